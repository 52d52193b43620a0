// Package usage implements the usage instructions module for the LINE bot.
// It answers help keywords with a short guide to the query syntax.
package usage

import (
	"context"
	"regexp"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/opendata-tw/budget-linebot-go/internal/bot"
	"github.com/opendata-tw/budget-linebot-go/internal/lineutil"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
)

// Module constants
const (
	ModuleName = "usage"
	senderName = "預算小幫手"
)

var (
	helpKeywords = []string{
		"說明", "使用說明", "怎麼用", "怎麼問",
		"help", "usage",
	}
	helpRegex = bot.BuildKeywordRegex(helpKeywords)
)

const helpText = `📖 使用說明

直接輸入想查的項目，例如：
　113年工務局主管預算數

🔍 進階查詢：
　• 比較：113年工務局預算較上一年增減
　• 趨勢：109至113年工務局預算趨勢
　• 精確：#年度,單位,項目（如 #113,工務局,主管預算數）

💡 小提醒：
　• 年度請用民國年（如 113 或 113年）
　• 查詢字數至少 3 個字
　• 找不到時會提供相近的建議選項`

// Handler answers help keyword queries.
type Handler struct {
	logger *logger.Logger
}

// NewHandler creates a new usage handler.
func NewHandler(log *logger.Logger) *Handler {
	return &Handler{logger: log}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// CanHandle returns true if the text matches a help keyword.
func (h *Handler) CanHandle(text string) bool {
	return helpRegex.MatchString(strings.TrimSpace(text))
}

// HandleMessage returns the usage guide.
func (h *Handler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	h.logger.WithModule(ModuleName).Debug("Handling usage query")

	sender := lineutil.GetSender(senderName)
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithSender(helpText, sender),
	}
}

// Ensure Handler implements the bot interface
var (
	_ bot.Handler = (*Handler)(nil)

	_ *regexp.Regexp = helpRegex
)
