// Package matcher ranks knowledge entries against a normalized user query.
// Scoring combines rune-multiset coverage with an LCS similarity ratio;
// containment either way is a perfect score. A BM25 index over keywords
// pads a short suggestion list with related keywords.
package matcher

import (
	"strings"

	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/textnorm"
)

// Thresholds are the score cutoffs of the match pipeline.
type Thresholds struct {
	Confident    int // minimum score to answer directly
	Suggest      int // minimum score to offer as a suggestion
	SuggestCount int // maximum suggestions returned
	MinQueryLen  int // minimum normalized query rune count
}

// DefaultThresholds returns the production cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Confident:    80,
		Suggest:      60,
		SuggestCount: 5,
		MinQueryLen:  3,
	}
}

// Outcome classifies a match decision.
type Outcome int

const (
	// OutcomeNone means nothing scored above the suggest threshold.
	OutcomeNone Outcome = iota
	// OutcomeExact means the normalized query equals a keyword.
	OutcomeExact
	// OutcomeConfident means the best fuzzy score cleared the confident
	// threshold.
	OutcomeConfident
	// OutcomeSuggest means only suggestion-grade candidates were found.
	OutcomeSuggest
)

// Match pairs an entry with its score against the query.
type Match struct {
	Entry *knowledge.Entry
	Score int
}

// Decision is the result of matching one query against the index.
type Decision struct {
	Outcome     Outcome
	Best        *knowledge.Entry
	Score       int
	Suggestions []*knowledge.Entry
	Matches     []Match // full ranking, best first; callers must not mutate
}

// Matcher scores queries against a knowledge index. It is stateless and
// safe for concurrent use.
type Matcher struct {
	th Thresholds
}

// New creates a matcher with the given thresholds.
func New(th Thresholds) *Matcher {
	return &Matcher{th: th}
}

// Thresholds returns the configured cutoffs.
func (m *Matcher) Thresholds() Thresholds {
	return m.th
}

// Score rates candidate against query on a 0-100 scale. Containment in
// either direction is exact; otherwise the better of coverage and LCS
// similarity wins.
func Score(query, candidate string) int {
	if query == "" || candidate == "" {
		return 0
	}
	if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
		return 100
	}
	c := Coverage(query, candidate)
	s := Similarity(query, candidate)
	if s > c {
		return s
	}
	return c
}

// Rank scores every index entry against topicNorm and returns the ranking,
// best first. Scoring uses the entry's year-free topic form so the year
// prefix of a keyword cannot dilute the score; the year constraint is a
// filter instead, applied before scoring so an off-year entry can never
// outrank an on-year one. Ties break toward the longer keyword, which
// carries more of the query's context.
func (m *Matcher) Rank(idx *knowledge.Index, topicNorm string, year int) []Match {
	if topicNorm == "" {
		return nil
	}

	var matches []Match
	entries := idx.Entries()
	for i := range entries {
		e := &entries[i]
		if year != 0 && e.Year != year {
			continue
		}
		candidate := e.TopicNorm
		if candidate == "" {
			candidate = e.KeywordNorm
		}
		if score := Score(topicNorm, candidate); score > 0 {
			matches = append(matches, Match{Entry: e, Score: score})
		}
	}

	// Insertion sort keeps the ranking stable for equal keys.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && less(matches[j-1], matches[j]); j-- {
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}
	return matches
}

func less(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return textnorm.RuneLen(a.Entry.KeywordNorm) < textnorm.RuneLen(b.Entry.KeywordNorm)
}

// Decide runs the full pipeline: exact lookup on the whole normalized query,
// fuzzy ranking of the topic against the (optionally year-filtered) index,
// then BM25 widening of the suggestion list. BM25 only pads a list that
// already holds a threshold-clearing candidate; when every rune-level score
// is below the suggest cutoff the outcome stays not-found. sugg may be nil.
func (m *Matcher) Decide(idx *knowledge.Index, sugg *SuggestIndex, fullNorm, topicNorm string, year int) Decision {
	if e, ok := idx.Lookup(fullNorm); ok {
		return Decision{Outcome: OutcomeExact, Best: e, Score: 100}
	}

	matches := m.Rank(idx, topicNorm, year)
	if len(matches) > 0 && matches[0].Score >= m.th.Confident {
		return Decision{
			Outcome: OutcomeConfident,
			Best:    matches[0].Entry,
			Score:   matches[0].Score,
			Matches: matches,
		}
	}

	seen := make(map[string]bool)
	var suggestions []*knowledge.Entry
	for _, match := range matches {
		if match.Score < m.th.Suggest || len(suggestions) >= m.th.SuggestCount {
			break
		}
		if seen[match.Entry.KeywordNorm] {
			continue
		}
		seen[match.Entry.KeywordNorm] = true
		suggestions = append(suggestions, match.Entry)
	}

	if len(suggestions) > 0 && len(suggestions) < m.th.SuggestCount {
		for _, e := range sugg.Search(topicNorm, m.th.SuggestCount) {
			if len(suggestions) >= m.th.SuggestCount {
				break
			}
			if seen[e.KeywordNorm] {
				continue
			}
			if year != 0 && e.Year != year {
				continue
			}
			seen[e.KeywordNorm] = true
			suggestions = append(suggestions, e)
		}
	}

	if len(suggestions) > 0 {
		return Decision{Outcome: OutcomeSuggest, Suggestions: suggestions, Matches: matches}
	}
	return Decision{Outcome: OutcomeNone, Matches: matches}
}
