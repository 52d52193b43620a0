package reply

import (
	"strings"
	"testing"

	"github.com/opendata-tw/budget-linebot-go/internal/compare"
	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/multiyear"
)

func TestKindIsSuccess(t *testing.T) {
	success := []Kind{KindAnswer, KindComparison, KindMultiYear}
	for _, k := range success {
		if !k.IsSuccess() {
			t.Errorf("%v should be a success", k)
		}
	}
	failure := []Kind{
		KindSuggestions, KindNeedYear, KindNeedTopic, KindTooShort,
		KindRangeTooLong, KindBadAdminSyntax, KindNotFound,
	}
	for _, k := range failure {
		if k.IsSuccess() {
			t.Errorf("%v should not be a success", k)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindMultiYear.String() != "multi_year" {
		t.Errorf("String = %q", KindMultiYear.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("unknown kind String = %q", Kind(99).String())
	}
}

func TestAnswerExactIsVerbatim(t *testing.T) {
	f := NewFormatter()
	e := &knowledge.Entry{
		Keyword:     "113年工務局主管預算數",
		Description: "113年工務局主管預算數總計100億元。",
	}

	msg := f.Answer(e, true)
	if msg.Kind != KindAnswer {
		t.Fatalf("Kind = %v", msg.Kind)
	}
	if msg.Text != e.Description {
		t.Errorf("exact answer must be the description verbatim, got %q", msg.Text)
	}
}

func TestAnswerFuzzyHasHeader(t *testing.T) {
	f := NewFormatter()
	e := &knowledge.Entry{
		Keyword:     "113年工務局主管預算數",
		Description: "113年工務局主管預算數總計100億元。",
		SourceURL:   "https://example.gov.tw/113",
		SourceName:  "主計處",
	}

	msg := f.Answer(e, false)
	if !strings.Contains(msg.Text, "📌 113年工務局主管預算數") {
		t.Errorf("fuzzy answer missing keyword header: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "📖 資料來源：主計處") {
		t.Errorf("citation block missing: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "https://example.gov.tw/113") {
		t.Errorf("citation URL missing: %q", msg.Text)
	}
}

func TestAnswerWithoutCitation(t *testing.T) {
	f := NewFormatter()
	e := &knowledge.Entry{Keyword: "k", Description: "d"}

	msg := f.Answer(e, true)
	if strings.Contains(msg.Text, "資料來源") {
		t.Errorf("no citation expected: %q", msg.Text)
	}
}

func TestComparison(t *testing.T) {
	f := NewFormatter()
	r := compare.Result{
		YearNew: 113, YearOld: 112,
		ValueNew: 1000, ValueOld: 800,
		Diff: 200, GrowthPct: 25, GrowthDefined: true,
		Unit: "千元",
	}

	msg := f.Comparison("工務局主管預算數", r)
	if msg.Kind != KindComparison {
		t.Fatalf("Kind = %v", msg.Kind)
	}
	for _, want := range []string{
		"113年：1,000 千元",
		"112年：800 千元",
		"變動：+200 千元（+25.00%）",
		"較112年增加",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("missing %q in:\n%s", want, msg.Text)
		}
	}
}

func TestComparisonZeroBase(t *testing.T) {
	f := NewFormatter()
	r := compare.Result{
		YearNew: 113, YearOld: 112,
		ValueNew: 500, ValueOld: 0, Diff: 500,
	}

	msg := f.Comparison("新設單位預算", r)
	if !strings.Contains(msg.Text, "基期為零") {
		t.Errorf("zero base note missing: %q", msg.Text)
	}
	if strings.Contains(msg.Text, "%") {
		t.Errorf("undefined growth must not render a percentage: %q", msg.Text)
	}
}

func TestMultiYear(t *testing.T) {
	f := NewFormatter()
	a := multiyear.Analysis{
		Unit: "千元",
		Points: []multiyear.YearValue{
			{Year: 111, Value: 900, Known: true},
			{Year: 112, Known: false},
			{Year: 113, Value: 1000, Known: true},
		},
		Known:           2,
		TrendLabel:      "明顯成長",
		VolatilityLabel: "穩定",
		RecencyLabel:    "最近一年增加",
	}

	listing := f.MultiYear("工務局預算", a, false)
	if msgKind := listing.Kind; msgKind != KindMultiYear {
		t.Fatalf("Kind = %v", msgKind)
	}
	for _, want := range []string{"111年至113年", "111年：900 千元", "112年：無資料", "113年：1,000 千元"} {
		if !strings.Contains(listing.Text, want) {
			t.Errorf("missing %q in:\n%s", want, listing.Text)
		}
	}
	if strings.Contains(listing.Text, "整體趨勢") {
		t.Error("plain listing must not include the trend summary")
	}

	analysis := f.MultiYear("工務局預算", a, true)
	for _, want := range []string{"整體趨勢：明顯成長", "波動程度：穩定", "最近一年增加"} {
		if !strings.Contains(analysis.Text, want) {
			t.Errorf("missing %q in:\n%s", want, analysis.Text)
		}
	}
}

func TestMultiYearSingleKnownYear(t *testing.T) {
	f := NewFormatter()
	a := multiyear.Analysis{
		Unit: "千元",
		Points: []multiyear.YearValue{
			{Year: 112, Known: false},
			{Year: 113, Value: 1000, Known: true},
		},
		Known: 1,
	}

	msg := f.MultiYear("工務局預算", a, true)
	if msg.Kind != KindMultiYear {
		t.Fatalf("Kind = %v", msg.Kind)
	}
	for _, want := range []string{"112年：無資料", "113年：1,000 千元", "無法分析趨勢"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("missing %q in:\n%s", want, msg.Text)
		}
	}
	if strings.Contains(msg.Text, "整體趨勢") {
		t.Error("trend summary must not render with a single known year")
	}
}

func TestSuggestions(t *testing.T) {
	f := NewFormatter()
	msg := f.Suggestions([]*knowledge.Entry{
		{Keyword: "113年工務局主管預算數"},
		{Keyword: "113年警察局預算數"},
	})

	if msg.Kind != KindSuggestions {
		t.Fatalf("Kind = %v", msg.Kind)
	}
	if !strings.Contains(msg.Text, "1. 113年工務局主管預算數") ||
		!strings.Contains(msg.Text, "2. 113年警察局預算數") {
		t.Errorf("numbered list missing:\n%s", msg.Text)
	}
}

func TestGuidanceMessages(t *testing.T) {
	f := NewFormatter()

	if msg := f.NeedYear("工務局主管預算數"); msg.Kind != KindNeedYear ||
		!strings.Contains(msg.Text, "哪一年") {
		t.Errorf("NeedYear = %+v", msg)
	}
	if msg := f.NeedTopic(); msg.Kind != KindNeedTopic {
		t.Errorf("NeedTopic = %+v", msg)
	}
	if msg := f.TooShort(3); msg.Kind != KindTooShort || !strings.Contains(msg.Text, "3") {
		t.Errorf("TooShort = %+v", msg)
	}
	if msg := f.RangeTooLong(5); msg.Kind != KindRangeTooLong || !strings.Contains(msg.Text, "5") {
		t.Errorf("RangeTooLong = %+v", msg)
	}
	if msg := f.BadAdminSyntax(); msg.Kind != KindBadAdminSyntax ||
		!strings.Contains(msg.Text, "#年度,單位,項目") {
		t.Errorf("BadAdminSyntax = %+v", msg)
	}
}

func TestNotFoundVerbatim(t *testing.T) {
	f := NewFormatter()
	msg := f.NotFound()
	want := "抱歉，我在訓練資料裡找不到這個問題的答案，可以換個說法或問別的問題喔。"
	if msg.Text != want {
		t.Errorf("NotFound text = %q", msg.Text)
	}
	if msg.Kind.IsSuccess() {
		t.Error("NotFound must not be a success")
	}
}
