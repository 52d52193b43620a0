package multiyear

import (
	"errors"
	"math"
	"testing"

	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
)

func TestExtractTotal(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  float64
		found bool
	}{
		{"總計 with unit", "113年工務局主管預算數總計100億元。", 100, true},
		{"合計 with separators", "合計為1,234,567元", 1234567, true},
		{"總數 decimal", "編制總數約為512.5人", 512.5, true},
		{"Label then filler text", "預算總計新臺幣 9000 千元", 9000, true},
		{"No label", "預算為100億元", 0, false},
		{"Label without number", "詳細總計請見附表", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractTotal(tt.text)
			if got != tt.want || found != tt.found {
				t.Errorf("ExtractTotal(%q) = (%v, %v), want (%v, %v)", tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestWantsAnalysis(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"109至113年工務局預算趨勢", true},
		{"109-113年預算變化分析", true},
		{"109-113年工務局預算", false},
	}
	for _, tt := range tests {
		if got := WantsAnalysis(tt.query); got != tt.want {
			t.Errorf("WantsAnalysis(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestStripCues(t *testing.T) {
	if got := StripCues("工務局預算趨勢分析"); got != "工務局預算" {
		t.Errorf("StripCues = %q, want 工務局預算", got)
	}
}

func seriesResolver(values map[int]float64, unit string) EntryResolver {
	return func(_ string, year int) (float64, string, bool) {
		v, ok := values[year]
		return v, unit, ok
	}
}

func TestAggregate(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{
		109: 800, 110: 850, 111: 900, 112: 950, 113: 1000,
	}, "千元"))

	a, err := e.Aggregate("工務局預算", []int{109, 110, 111, 112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if a.Known != 5 || len(a.Points) != 5 {
		t.Fatalf("Known = %d, Points = %d", a.Known, len(a.Points))
	}
	if a.Unit != "千元" {
		t.Errorf("Unit = %q", a.Unit)
	}
	// 800 → 1000 is +25%.
	if a.TrendLabel != "明顯成長" {
		t.Errorf("TrendLabel = %q, want 明顯成長", a.TrendLabel)
	}
	// The series spreads 200 around a mean of 900, a 22% range.
	if a.VolatilityLabel != "波動明顯" {
		t.Errorf("VolatilityLabel = %q, want 波動明顯", a.VolatilityLabel)
	}
	if a.RecencyLabel != "最近一年增加" {
		t.Errorf("RecencyLabel = %q", a.RecencyLabel)
	}
	if len(a.Deltas) != 4 {
		t.Fatalf("len(Deltas) = %d, want 4", len(a.Deltas))
	}
	if a.Deltas[0].Diff != 50 || !a.Deltas[0].PctDefined || math.Abs(a.Deltas[0].Pct-6.25) > 1e-9 {
		t.Errorf("Deltas[0] = %+v", a.Deltas[0])
	}
}

func TestAggregateFlat(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{111: 1000, 112: 1002, 113: 1005}, "人"))

	a, err := e.Aggregate("消防局人數", []int{111, 112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if a.TrendLabel != "大致持平" {
		t.Errorf("TrendLabel = %q, want 大致持平", a.TrendLabel)
	}
	if a.VolatilityLabel != "穩定" {
		t.Errorf("VolatilityLabel = %q, want 穩定", a.VolatilityLabel)
	}
}

func TestAggregateDecline(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{112: 1000, 113: 900}, ""))

	a, err := e.Aggregate("某處預算", []int{112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if a.TrendLabel != "明顯下降" || a.RecencyLabel != "最近一年減少" {
		t.Errorf("labels = %q / %q", a.TrendLabel, a.RecencyLabel)
	}
}

func TestAggregateUnknownYearsStayInSeries(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{111: 100, 113: 120}, ""))

	a, err := e.Aggregate("某處預算", []int{111, 112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(a.Points) != 3 || a.Known != 2 {
		t.Fatalf("Points = %d, Known = %d", len(a.Points), a.Known)
	}
	if a.Points[1].Known {
		t.Error("missing year must be marked unknown")
	}
	// The delta bridges the gap between the two known points.
	if len(a.Deltas) != 1 || a.Deltas[0].YearFrom != 111 || a.Deltas[0].YearTo != 113 {
		t.Errorf("Deltas = %+v", a.Deltas)
	}
}

func TestAggregateZeroBase(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{112: 0, 113: 50}, ""))

	a, err := e.Aggregate("新設單位", []int{112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if a.Deltas[0].PctDefined {
		t.Error("percentage must be undefined on a zero base")
	}
	if a.TrendLabel != "明顯成長" {
		t.Errorf("TrendLabel = %q", a.TrendLabel)
	}
}

// A steady climb can still spread the series wide: the range/mean ratio
// decides volatility, not the size of the individual steps.
func TestVolatilityOfMonotoneSeries(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{
		109: 100, 110: 103, 111: 106, 112: 109, 113: 112,
	}, ""))

	a, err := e.Aggregate("某處預算", []int{109, 110, 111, 112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// Range 12 over mean 106 is ~11%.
	if a.VolatilityLabel != "波動明顯" {
		t.Errorf("VolatilityLabel = %q, want 波動明顯", a.VolatilityLabel)
	}
}

// A span where only one year resolves still yields the per-year listing;
// only the trend labels stay empty.
func TestAggregateSingleKnownYear(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{113: 100}, "千元"))

	a, err := e.Aggregate("某處預算", []int{109, 110, 111, 112, 113})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if a.Known != 1 || len(a.Points) != 5 {
		t.Fatalf("Known = %d, Points = %d", a.Known, len(a.Points))
	}
	if a.Points[4].Year != 113 || !a.Points[4].Known {
		t.Errorf("Points[4] = %+v", a.Points[4])
	}
	if a.TrendLabel != "" || a.VolatilityLabel != "" || a.RecencyLabel != "" {
		t.Errorf("labels must stay empty with one known year: %+v", a)
	}
	if len(a.Deltas) != 0 {
		t.Errorf("Deltas = %+v, want none", a.Deltas)
	}
}

func TestAggregateNoKnownYears(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{}, ""))

	if _, err := e.Aggregate("某處預算", []int{112, 113}); !errors.Is(err, domerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAggregateSingleYearInvalid(t *testing.T) {
	e := NewEngine(seriesResolver(map[int]float64{113: 100}, ""))

	if _, err := e.Aggregate("某處預算", []int{113}); !errors.Is(err, domerrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
