// Package stats implements the budget statistics module for the LINE bot.
// It is the catch-all handler: every text message becomes one query against
// the knowledge index, and every reply carries a footer chosen by the
// outcome kind.
package stats

import (
	"context"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/opendata-tw/budget-linebot-go/internal/bot"
	"github.com/opendata-tw/budget-linebot-go/internal/lineutil"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
	"github.com/opendata-tw/budget-linebot-go/internal/metrics"
	"github.com/opendata-tw/budget-linebot-go/internal/resolver"
)

// Module constants
const (
	ModuleName = "stats"
	senderName = "預算小幫手"
)

// Footers are appended below every reply. The success footer points at the
// data portal; the guidance footer nudges the user toward the help command.
type Footers struct {
	Success  string
	Guidance string
}

// DefaultFooters returns the production footer texts.
func DefaultFooters(portalURL string) Footers {
	f := Footers{
		Guidance: "💡 輸入「說明」查看查詢方式",
	}
	if portalURL != "" {
		f.Success = "🔗 更多統計資料：" + portalURL
	}
	return f
}

// Handler resolves budget statistics queries.
type Handler struct {
	resolver *resolver.Resolver
	footers  Footers
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewHandler creates a new stats handler.
func NewHandler(res *resolver.Resolver, footers Footers, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		resolver: res,
		footers:  footers,
		metrics:  m,
		logger:   log,
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// CanHandle accepts any non-empty text. Register this handler last.
func (h *Handler) CanHandle(text string) bool {
	return strings.TrimSpace(text) != ""
}

// HandleMessage resolves the query and renders the reply with its footer.
func (h *Handler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	log := h.logger.WithModule(ModuleName)

	msg := h.resolver.Resolve(text)
	if h.metrics != nil {
		h.metrics.RecordQuery(msg.Kind.String())
	}
	log.WithField("kind", msg.Kind.String()).Debug("Query resolved")

	footer := h.footers.Guidance
	if msg.Kind.IsSuccess() {
		footer = h.footers.Success
	}

	body := msg.Text
	if footer != "" {
		body += "\n\n" + footer
	}

	sender := lineutil.GetSender(senderName)
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithSender(body, sender),
	}
}

// Ensure Handler implements the bot interface
var _ bot.Handler = (*Handler)(nil)
