// Package resolver turns one free-text query into one rendered reply. It
// routes each query through the recognizers in a fixed precedence order:
// structured lookup, multi-year, year-over-year comparison, then single-year
// matching, with guidance replies on every incomplete path.
package resolver

import (
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/opendata-tw/budget-linebot-go/internal/compare"
	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
	"github.com/opendata-tw/budget-linebot-go/internal/matcher"
	"github.com/opendata-tw/budget-linebot-go/internal/multiyear"
	"github.com/opendata-tw/budget-linebot-go/internal/reply"
	"github.com/opendata-tw/budget-linebot-go/internal/textnorm"
	"github.com/opendata-tw/budget-linebot-go/internal/yearex"
)

// Limits bound the year spans a single query may cover. Trend analysis
// walks every year so it gets the tighter limit; a plain listing may span
// more.
type Limits struct {
	MaxYearSpan     int // analysis and comparison queries
	MaxListYearSpan int // plain multi-year listings
}

// DefaultLimits returns the production span limits.
func DefaultLimits() Limits {
	return Limits{MaxYearSpan: 5, MaxListYearSpan: 10}
}

// Resolver resolves queries against the hot-swappable knowledge index.
// Safe for concurrent use.
type Resolver struct {
	store     *knowledge.Store
	suggest   atomic.Pointer[matcher.SuggestIndex]
	matcher   *matcher.Matcher
	formatter *reply.Formatter
	limits    Limits
	log       *logger.Logger
}

// New creates a resolver over the given store. The BM25 suggestion index is
// built from the store's current index; call SetIndex to keep both in step
// after a refresh.
func New(store *knowledge.Store, m *matcher.Matcher, f *reply.Formatter, limits Limits, log *logger.Logger) *Resolver {
	r := &Resolver{
		store:     store,
		matcher:   m,
		formatter: f,
		limits:    limits,
		log:       log.WithModule("resolver"),
	}
	r.suggest.Store(matcher.NewSuggestIndex(store.Current().Entries(), log))
	return r
}

// SetIndex swaps in a freshly built index and rebuilds the suggestion index.
func (r *Resolver) SetIndex(idx *knowledge.Index) {
	if idx == nil {
		return
	}
	r.store.Swap(idx)
	r.suggest.Store(matcher.NewSuggestIndex(idx.Entries(), r.log))
}

// Resolve answers one query. It always returns a renderable message; errors
// surface as guidance or apology replies, never as raw error text.
func (r *Resolver) Resolve(text string) reply.Message {
	idx := r.store.Current()

	if strings.HasPrefix(strings.TrimSpace(text), "#") {
		return r.resolveAdmin(idx, text)
	}

	norm := textnorm.Normalize(text)
	if textnorm.RuneLen(norm) < r.matcher.Thresholds().MinQueryLen {
		return r.formatter.TooShort(r.matcher.Thresholds().MinQueryLen)
	}

	if msg, handled := r.resolveMultiYear(idx, text, norm); handled {
		return msg
	}
	if compare.IsChangeQuery(norm) {
		return r.resolveComparison(idx, text, norm)
	}
	return r.resolveSingle(idx, text, norm)
}

// resolveAdmin handles the structured #年度,單位,項目 lookup. It bypasses
// fuzzy matching entirely: the parts form a keyword that must match exactly.
func (r *Resolver) resolveAdmin(idx *knowledge.Index, text string) reply.Message {
	body := strings.TrimPrefix(strings.TrimSpace(text), "#")
	body = strings.ReplaceAll(body, "，", ",")
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return r.formatter.BadAdminSyntax()
	}

	yearStr := strings.TrimSpace(parts[0])
	unit := strings.TrimSpace(parts[1])
	item := strings.TrimSpace(parts[2])
	yearNum, err := strconv.Atoi(yearStr)
	if err != nil || yearNum <= 0 || unit == "" || item == "" {
		return r.formatter.BadAdminSyntax()
	}
	if yearNum < 100 {
		yearNum += 100
	}

	key := textnorm.Normalize(strconv.Itoa(yearNum) + "年" + unit + item)
	if e, ok := idx.Lookup(key); ok {
		return r.formatter.Answer(e, true)
	}
	return r.formatter.NotFound()
}

// resolveMultiYear recognizes range syntax and plural year mentions. The
// handled flag is false when the query names at most one year, passing
// control to the later recognizers.
func (r *Resolver) resolveMultiYear(idx *knowledge.Index, text, norm string) (reply.Message, bool) {
	wantsAnalysis := multiyear.WantsAnalysis(norm)
	maxSpan := r.limits.MaxListYearSpan
	if wantsAnalysis {
		maxSpan = r.limits.MaxYearSpan
	}

	years, err := yearex.Range(text, maxSpan)
	if errors.Is(err, domerrors.ErrRangeTooLong) {
		return r.formatter.RangeTooLong(maxSpan), true
	}
	if years == nil {
		years = yearex.AllYears(text)
		if len(years) < 2 {
			return reply.Message{}, false
		}
		if len(years) > maxSpan {
			return r.formatter.RangeTooLong(maxSpan), true
		}
	}

	topicNorm := multiyear.StripCues(textnorm.Normalize(yearex.StripYears(text)))
	topicNorm = textnorm.StripFillers(compare.StripCues(topicNorm))
	if topicNorm == "" {
		return r.formatter.NeedTopic(), true
	}

	engine := multiyear.NewEngine(r.valueResolver(idx))
	analysis, err := engine.Aggregate(topicNorm, years)
	if err != nil {
		return r.formatter.NotFound(), true
	}
	return r.formatter.MultiYear(topicNorm, analysis, wantsAnalysis), true
}

// resolveComparison answers year-over-year change questions against the
// change table, with the description-total fallback.
func (r *Resolver) resolveComparison(idx *knowledge.Index, text, norm string) reply.Message {
	topicNorm := textnorm.StripFillers(compare.StripCues(textnorm.Normalize(yearex.StripYears(text))))
	if topicNorm == "" {
		return r.formatter.NeedTopic()
	}

	year, ok := yearex.Year(text)
	if !ok {
		return r.formatter.NeedYear(topicNorm)
	}

	engine := compare.NewEngine(compare.ValueResolver(r.valueResolver(idx)))
	result, err := engine.Compare(topicNorm, year)
	if err != nil {
		return r.formatter.NotFound()
	}
	return r.formatter.Comparison(topicNorm, result)
}

// resolveSingle is the plain lookup path: exact match on the whole query,
// then fuzzy ranking of the topic within the query's year.
func (r *Resolver) resolveSingle(idx *knowledge.Index, text, norm string) reply.Message {
	year, _ := yearex.Year(text)
	topicNorm := textnorm.StripFillers(textnorm.Normalize(yearex.StripYears(text)))
	if topicNorm == "" {
		return r.formatter.NeedTopic()
	}

	d := r.matcher.Decide(idx, r.suggest.Load(), norm, topicNorm, year)
	switch d.Outcome {
	case matcher.OutcomeExact:
		return r.formatter.Answer(d.Best, true)
	case matcher.OutcomeConfident:
		if year == 0 {
			if years := topYears(d.Matches); len(years) > 1 {
				return r.formatter.NeedYear(topicNorm)
			}
		}
		return r.formatter.Answer(d.Best, false)
	case matcher.OutcomeSuggest:
		return r.formatter.Suggestions(d.Suggestions)
	default:
		return r.formatter.NotFound()
	}
}

// topYears returns the distinct years among matches tied at the top score.
func topYears(matches []matcher.Match) []int {
	if len(matches) == 0 {
		return nil
	}
	top := matches[0].Score
	seen := make(map[int]bool)
	var years []int
	for _, m := range matches {
		if m.Score != top {
			break
		}
		if !seen[m.Entry.Year] {
			seen[m.Entry.Year] = true
			years = append(years, m.Entry.Year)
		}
	}
	return years
}

// valueResolver looks up a topic's figure for one year: the change table
// first, then the headline total parsed out of a confidently matched
// entry's description.
func (r *Resolver) valueResolver(idx *knowledge.Index) func(topicNorm string, year int) (float64, string, bool) {
	return func(topicNorm string, year int) (float64, string, bool) {
		if v, unit, ok := idx.ChangeValue(topicNorm, year); ok {
			return v, unit, true
		}

		matches := r.matcher.Rank(idx, topicNorm, year)
		if len(matches) == 0 || matches[0].Score < r.matcher.Thresholds().Confident {
			return 0, "", false
		}
		e := matches[0].Entry
		if v, ok := multiyear.ExtractTotal(e.Description); ok {
			return v, e.Unit, true
		}
		return 0, "", false
	}
}
