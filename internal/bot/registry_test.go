package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

type stubHandler struct {
	name   string
	prefix string
	hits   int
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) CanHandle(text string) bool {
	return strings.HasPrefix(text, h.prefix)
}

func (h *stubHandler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	h.hits++
	return []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: h.name}}
}

func TestDispatchMessageFirstMatchWins(t *testing.T) {
	first := &stubHandler{name: "first", prefix: "查"}
	second := &stubHandler{name: "second", prefix: ""}

	r := NewRegistry()
	r.Register(first)
	r.Register(second)

	msgs := r.DispatchMessage(context.Background(), "查預算")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if first.hits != 1 || second.hits != 0 {
		t.Errorf("hits = %d/%d, want first handler only", first.hits, second.hits)
	}

	r.DispatchMessage(context.Background(), "其他查詢")
	if second.hits != 1 {
		t.Errorf("fallthrough handler hits = %d, want 1", second.hits)
	}
}

func TestDispatchMessageNoHandler(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubHandler{name: "narrow", prefix: "查"})

	if msgs := r.DispatchMessage(context.Background(), "別的"); msgs != nil {
		t.Errorf("expected nil for unmatched text, got %v", msgs)
	}
}

func TestGetHandler(t *testing.T) {
	r := NewRegistry()
	h := &stubHandler{name: "stats"}
	r.Register(h)

	if got := r.GetHandler("stats"); got != h {
		t.Errorf("GetHandler(stats) = %v, want registered handler", got)
	}
	if got := r.GetHandler("missing"); got != nil {
		t.Errorf("GetHandler(missing) = %v, want nil", got)
	}
}

func TestBuildKeywordRegexLongestFirst(t *testing.T) {
	re := BuildKeywordRegex([]string{"說明", "使用說明"})

	m := re.FindStringSubmatch("使用說明")
	if len(m) < 2 || m[1] != "使用說明" {
		t.Errorf("match = %v, want longest keyword captured", m)
	}
	if re.MatchString("說明書") {
		t.Error("keyword followed by more text should not match")
	}
}
