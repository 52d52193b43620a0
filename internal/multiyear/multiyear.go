// Package multiyear aggregates a topic's figures over a span of years and
// derives a trend summary: overall direction, volatility, and the most
// recent movement.
package multiyear

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
)

// totalRe finds the headline figure of a description: a 總計/總數/合計 label
// followed by the first number, which may carry thousands separators and a
// decimal part.
var totalRe = regexp.MustCompile(`(?:總計|總數|合計)[^0-9-]*(-?[0-9][0-9,.]*)`)

// ExtractTotal pulls the headline figure out of a description text.
// Returns false when the text carries no recognizable total.
func ExtractTotal(description string) (float64, bool) {
	m := totalRe.FindStringSubmatch(description)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	raw = strings.TrimRight(raw, ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// analysisCues request a trend analysis rather than a plain year listing.
// Matched against the normalized query.
var analysisCues = []string{"趨勢", "走勢", "分析", "變化", "消長"}

// WantsAnalysis reports whether the normalized multi-year query asks for a
// trend analysis instead of a plain listing.
func WantsAnalysis(norm string) bool {
	for _, cue := range analysisCues {
		if strings.Contains(norm, cue) {
			return true
		}
	}
	return false
}

// StripCues removes analysis cue words from the normalized query.
func StripCues(norm string) string {
	for _, cue := range analysisCues {
		norm = strings.ReplaceAll(norm, cue, "")
	}
	return norm
}

// YearValue is one point of the aggregated series.
type YearValue struct {
	Year  int
	Value float64
	Known bool
}

// Delta is the movement between two consecutive known points.
type Delta struct {
	YearFrom   int
	YearTo     int
	Diff       float64
	Pct        float64
	PctDefined bool // false when the base value is zero
}

// Analysis is the aggregated multi-year view of one topic.
type Analysis struct {
	Topic           string
	Unit            string
	Points          []YearValue
	Known           int
	Deltas          []Delta
	TrendLabel      string
	VolatilityLabel string
	RecencyLabel    string
}

// EntryResolver returns the figure for a topic in a given year.
type EntryResolver func(topicNorm string, year int) (value float64, unit string, ok bool)

// Engine aggregates series through a pluggable resolver.
type Engine struct {
	resolve EntryResolver
}

// NewEngine creates an aggregation engine.
func NewEngine(resolve EntryResolver) *Engine {
	return &Engine{resolve: resolve}
}

// Aggregate collects the topic's figures for the given years, in order, and
// derives the trend labels. Years without a figure stay in the series marked
// unknown, so a partially resolved span still yields the per-year listing;
// the trend labels are only filled when at least two points are known.
// ErrNotFound is returned only when no year resolves at all.
func (e *Engine) Aggregate(topicNorm string, years []int) (Analysis, error) {
	if len(years) < 2 {
		return Analysis{}, domerrors.ErrInvalidInput
	}

	a := Analysis{Topic: topicNorm, Points: make([]YearValue, 0, len(years))}
	for _, y := range years {
		v, unit, ok := e.resolve(topicNorm, y)
		if ok {
			a.Known++
			if a.Unit == "" {
				a.Unit = unit
			}
		}
		a.Points = append(a.Points, YearValue{Year: y, Value: v, Known: ok})
	}
	if a.Known == 0 {
		return Analysis{}, domerrors.ErrNotFound
	}
	if a.Known < 2 {
		return a, nil
	}

	known := make([]YearValue, 0, a.Known)
	for _, p := range a.Points {
		if p.Known {
			known = append(known, p)
		}
	}

	a.Deltas = deltas(known)
	a.TrendLabel = classifyTrend(known[0].Value, known[len(known)-1].Value)
	a.VolatilityLabel = classifyVolatility(known)
	a.RecencyLabel = recency(known[len(known)-2].Value, known[len(known)-1].Value)
	return a, nil
}

// deltas computes movements between consecutive known points. A zero base
// leaves the percentage undefined.
func deltas(known []YearValue) []Delta {
	out := make([]Delta, 0, len(known)-1)
	for i := 1; i < len(known); i++ {
		d := Delta{
			YearFrom: known[i-1].Year,
			YearTo:   known[i].Year,
			Diff:     known[i].Value - known[i-1].Value,
		}
		if known[i-1].Value != 0 {
			d.Pct = d.Diff / known[i-1].Value * 100
			d.PctDefined = true
		}
		out = append(out, d)
	}
	return out
}

// classifyTrend labels the overall movement from the first known point to
// the last: under 1% is flat, under 5% is slight, anything more is marked.
func classifyTrend(first, last float64) string {
	if first == 0 {
		switch {
		case last > 0:
			return "明顯成長"
		case last < 0:
			return "明顯下降"
		default:
			return "大致持平"
		}
	}

	pct := (last - first) / first * 100
	switch {
	case math.Abs(pct) < 1:
		return "大致持平"
	case pct >= 5:
		return "明顯成長"
	case pct > 0:
		return "略有成長"
	case pct <= -5:
		return "明顯下降"
	default:
		return "略有下降"
	}
}

// classifyVolatility labels the series by the ratio of its value range to
// its mean: within 3% is steady, within 8% slightly choppy. A monotone climb
// still counts as volatile when it spreads the series wide enough.
func classifyVolatility(known []YearValue) string {
	lo, hi := known[0].Value, known[0].Value
	var sum float64
	for _, p := range known {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
		sum += p.Value
	}

	mean := sum / float64(len(known))
	if mean == 0 {
		if hi > lo {
			return "波動明顯"
		}
		return "穩定"
	}

	ratio := math.Abs((hi - lo) / mean * 100)
	switch {
	case ratio <= 3:
		return "穩定"
	case ratio <= 8:
		return "略有波動"
	default:
		return "波動明顯"
	}
}

// recency labels the movement between the last two known points.
func recency(prev, last float64) string {
	switch {
	case last > prev:
		return "最近一年增加"
	case last < prev:
		return "最近一年減少"
	default:
		return "最近一年持平"
	}
}
