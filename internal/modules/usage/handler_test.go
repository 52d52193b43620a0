package usage

import (
	"context"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/opendata-tw/budget-linebot-go/internal/logger"
)

func TestCanHandle(t *testing.T) {
	h := NewHandler(logger.New("error"))

	tests := []struct {
		text string
		want bool
	}{
		{"說明", true},
		{"使用說明", true},
		{"help", true},
		{"HELP", true},
		{" 說明 ", true},
		{"113年工務局預算", false},
		{"說明書在哪", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := h.CanHandle(tt.text); got != tt.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestHandleMessage(t *testing.T) {
	h := NewHandler(logger.New("error"))

	msgs := h.HandleMessage(context.Background(), "說明")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	text, ok := msgs[0].(*messaging_api.TextMessage)
	if !ok {
		t.Fatalf("message is %T, want *TextMessage", msgs[0])
	}
	if !strings.Contains(text.Text, "#年度,單位,項目") {
		t.Errorf("help text missing admin syntax, got %q", text.Text)
	}
	if text.Sender == nil || text.Sender.Name != senderName {
		t.Errorf("sender = %+v, want name %q", text.Sender, senderName)
	}
}
