package reply

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/opendata-tw/budget-linebot-go/internal/compare"
	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/multiyear"
)

const notFoundText = "抱歉，我在訓練資料裡找不到這個問題的答案，可以換個說法或問別的問題喔。"

// Formatter renders outcomes into Traditional Chinese reply text.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter.
func NewFormatter() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.TraditionalChinese)}
}

// num renders a figure with thousands separators and at most two decimals.
func (f *Formatter) num(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// signedNum is num with an explicit sign for deltas.
func (f *Formatter) signedNum(v float64) string {
	if v > 0 {
		return "+" + f.num(v)
	}
	return f.num(v)
}

func withUnit(value, unit string) string {
	if unit == "" {
		return value
	}
	return value + " " + unit
}

func citation(e *knowledge.Entry) string {
	if e.SourceURL == "" && e.SourceName == "" {
		return ""
	}
	switch {
	case e.SourceURL == "":
		return "\n\n📖 資料來源：" + e.SourceName
	case e.SourceName == "":
		return "\n\n📖 資料來源：" + e.SourceURL
	default:
		return "\n\n📖 資料來源：" + e.SourceName + "\n" + e.SourceURL
	}
}

// Answer renders a single-entry answer. Exact matches return the description
// verbatim; fuzzy matches get a header naming the matched keyword so the
// user can see what was answered.
func (f *Formatter) Answer(e *knowledge.Entry, exact bool) Message {
	var b strings.Builder
	if !exact {
		b.WriteString("為您找到最接近的資料：\n📌 ")
		b.WriteString(e.Keyword)
		b.WriteString("\n\n")
	}
	b.WriteString(e.Description)
	b.WriteString(citation(e))
	return Message{Kind: KindAnswer, Text: b.String()}
}

// Comparison renders a year-over-year change answer.
func (f *Formatter) Comparison(topic string, r compare.Result) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s 年度比較\n", topic)
	fmt.Fprintf(&b, "%d年：%s\n", r.YearNew, withUnit(f.num(r.ValueNew), r.Unit))
	fmt.Fprintf(&b, "%d年：%s\n", r.YearOld, withUnit(f.num(r.ValueOld), r.Unit))
	if r.GrowthDefined {
		fmt.Fprintf(&b, "變動：%s（%+.2f%%）", withUnit(f.signedNum(r.Diff), r.Unit), r.GrowthPct)
	} else {
		fmt.Fprintf(&b, "變動：%s（基期為零，無法計算成長率）", withUnit(f.signedNum(r.Diff), r.Unit))
	}
	fmt.Fprintf(&b, "\n較%d年%s。", r.YearOld, r.Direction())
	return Message{Kind: KindComparison, Text: b.String()}
}

// MultiYear renders the aggregated series, appending the trend summary when
// the query asked for an analysis. With fewer than two resolved years no
// trend exists, so the summary gives way to a short note.
func (f *Formatter) MultiYear(topic string, a multiyear.Analysis, analysis bool) Message {
	first := a.Points[0].Year
	last := a.Points[len(a.Points)-1].Year

	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s（%d年至%d年）", topic, first, last)
	for _, p := range a.Points {
		if p.Known {
			fmt.Fprintf(&b, "\n%d年：%s", p.Year, withUnit(f.num(p.Value), a.Unit))
		} else {
			fmt.Fprintf(&b, "\n%d年：無資料", p.Year)
		}
	}
	if analysis {
		if a.Known >= 2 {
			fmt.Fprintf(&b, "\n\n整體趨勢：%s\n波動程度：%s\n%s", a.TrendLabel, a.VolatilityLabel, a.RecencyLabel)
		} else {
			b.WriteString("\n\n有資料的年度不足兩年，無法分析趨勢。")
		}
	}
	return Message{Kind: KindMultiYear, Text: b.String()}
}

// Suggestions renders the did-you-mean list.
func (f *Formatter) Suggestions(entries []*knowledge.Entry) Message {
	var b strings.Builder
	b.WriteString("我找不到完全符合的資料，您是不是想問：")
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%d. %s", i+1, e.Keyword)
	}
	return Message{Kind: KindSuggestions, Text: b.String()}
}

// NeedYear asks which year the user means for a recognized topic.
func (f *Formatter) NeedYear(topic string) Message {
	text := fmt.Sprintf("請問您想查詢哪一年的「%s」呢？\n例如：113年%s", topic, topic)
	return Message{Kind: KindNeedYear, Text: text}
}

// NeedTopic asks for the missing item after years were recognized.
func (f *Formatter) NeedTopic() Message {
	return Message{
		Kind: KindNeedTopic,
		Text: "請告訴我您想查詢的項目喔。\n例如:113年工務局主管預算數",
	}
}

// TooShort rejects a query below the minimum length.
func (f *Formatter) TooShort(minLen int) Message {
	text := fmt.Sprintf("問題有點太短了，請多提供幾個關鍵字（至少 %d 個字）。", minLen)
	return Message{Kind: KindTooShort, Text: text}
}

// RangeTooLong rejects an oversized year range.
func (f *Formatter) RangeTooLong(maxSpan int) Message {
	text := fmt.Sprintf("年度範圍太大了，一次最多查詢 %d 個年度，請縮小範圍再試一次。", maxSpan)
	return Message{Kind: KindRangeTooLong, Text: text}
}

// BadAdminSyntax rejects a malformed structured lookup with usage help.
func (f *Formatter) BadAdminSyntax() Message {
	return Message{
		Kind: KindBadAdminSyntax,
		Text: "格式不正確，請使用：#年度,單位,項目\n例如:#113,工務局,主管預算數",
	}
}

// NotFound returns the apology for unanswerable queries.
func (f *Formatter) NotFound() Message {
	return Message{Kind: KindNotFound, Text: notFoundText}
}
