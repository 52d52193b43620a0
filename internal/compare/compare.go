// Package compare answers year-over-year change questions: it detects the
// comparison intent in a normalized query, strips the cue words to recover
// the topic, and computes the delta between a year and its predecessor.
package compare

import (
	"strings"

	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
)

// Cue words are matched against the normalized query, so they must be
// written in post-normalization form (年度 has already collapsed to 年).
var (
	// temporalCues reference the previous year directly.
	temporalCues = []string{
		"較上一年",
		"比上一年",
		"較前一年",
		"比前一年",
		"比去年",
		"較去年",
		"去年",
		"上一年",
		"前一年",
	}

	// changeCues ask about the movement of a figure.
	changeCues = []string{
		"成長率",
		"成長",
		"增減",
		"增幅",
		"減幅",
		"增加多少",
		"減少多少",
		"多多少",
		"少多少",
		"變動",
		"變化",
		"差額",
		"差多少",
	}
)

// IsChangeQuery reports whether the normalized query carries a
// year-over-year comparison intent. Both cue classes must be present:
// a temporal cue or a change cue alone stays on the single-year path, so
// a plain lookup like 113年預算變動表 is never misrouted into a comparison.
func IsChangeQuery(norm string) bool {
	return containsAny(norm, temporalCues) && containsAny(norm, changeCues)
}

func containsAny(norm string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(norm, cue) {
			return true
		}
	}
	return false
}

// StripCues removes all comparison cue words from the normalized query,
// leaving the topic phrase. Temporal cues go first since they contain the
// shorter 上一年/前一年 forms.
func StripCues(norm string) string {
	for _, cue := range temporalCues {
		norm = strings.ReplaceAll(norm, cue, "")
	}
	for _, cue := range changeCues {
		norm = strings.ReplaceAll(norm, cue, "")
	}
	return norm
}

// Result is a computed year-over-year comparison.
type Result struct {
	Topic         string
	YearNew       int
	YearOld       int
	ValueNew      float64
	ValueOld      float64
	Diff          float64 // ValueNew - ValueOld
	GrowthPct     float64 // percentage change; meaningless when !GrowthDefined
	GrowthDefined bool    // false when ValueOld is zero
	Unit          string
}

// Direction labels the sign of the change.
func (r Result) Direction() string {
	switch {
	case r.Diff > 0:
		return "增加"
	case r.Diff < 0:
		return "減少"
	default:
		return "持平"
	}
}

// ValueResolver returns the numeric value and unit for a topic in a given
// year. ok is false when no figure is known.
type ValueResolver func(topicNorm string, year int) (value float64, unit string, ok bool)

// Engine computes comparisons through a pluggable value resolver, keeping
// the arithmetic independent from how figures are stored.
type Engine struct {
	resolve ValueResolver
}

// NewEngine creates a comparison engine.
func NewEngine(resolve ValueResolver) *Engine {
	return &Engine{resolve: resolve}
}

// Compare computes the change of topic from year-1 to year. Missing figures
// for either year yield ErrNotFound; a zero base value leaves the growth
// rate undefined rather than dividing by zero.
func (e *Engine) Compare(topicNorm string, year int) (Result, error) {
	valueNew, unit, ok := e.resolve(topicNorm, year)
	if !ok {
		return Result{}, domerrors.ErrNotFound
	}
	valueOld, oldUnit, ok := e.resolve(topicNorm, year-1)
	if !ok {
		return Result{}, domerrors.ErrNotFound
	}
	if unit == "" {
		unit = oldUnit
	}

	r := Result{
		Topic:    topicNorm,
		YearNew:  year,
		YearOld:  year - 1,
		ValueNew: valueNew,
		ValueOld: valueOld,
		Diff:     valueNew - valueOld,
		Unit:     unit,
	}
	if valueOld != 0 {
		r.GrowthPct = r.Diff / valueOld * 100
		r.GrowthDefined = true
	}
	return r, nil
}
