package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/crawlab-team/bm25"

	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
)

// SuggestIndex is a BM25 index over normalized keywords, used to widen the
// suggestion list when rune-level scoring finds too few candidates. It is
// immutable after construction; rebuild it whenever the knowledge index is
// swapped.
type SuggestIndex struct {
	okapi   *bm25.BM25Okapi
	entries []knowledge.Entry
}

// NewSuggestIndex builds a BM25 index over the entries' normalized keywords.
// An empty corpus or a construction failure yields a disabled index that
// returns no results.
func NewSuggestIndex(entries []knowledge.Entry, log *logger.Logger) *SuggestIndex {
	if len(entries) == 0 {
		return &SuggestIndex{}
	}

	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.KeywordNorm
	}

	// k1=1.5, b=0.75 are standard BM25 parameters.
	okapi, err := bm25.NewBM25Okapi(docs, tokenizeCJK, 1.5, 0.75, nil)
	if err != nil {
		log.WithModule("matcher").WithError(err).Warn("BM25 suggest index disabled")
		return &SuggestIndex{}
	}

	return &SuggestIndex{okapi: okapi, entries: entries}
}

// Search returns up to topN entries ranked by BM25 score, best first.
// Zero-score documents are excluded.
func (s *SuggestIndex) Search(query string, topN int) []*knowledge.Entry {
	if s == nil || s.okapi == nil || topN <= 0 {
		return nil
	}

	tokens := tokenizeCJK(query)
	if len(tokens) == 0 {
		return nil
	}

	scores, err := s.okapi.GetScores(tokens)
	if err != nil {
		return nil
	}

	type scoredDoc struct {
		docID int
		score float64
	}
	var scored []scoredDoc
	for docID, score := range scores {
		if score > 0 {
			scored = append(scored, scoredDoc{docID, score})
		}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if len(scored) > topN {
		scored = scored[:topN]
	}
	results := make([]*knowledge.Entry, 0, len(scored))
	for _, sd := range scored {
		results = append(results, &s.entries[sd.docID])
	}
	return results
}

// tokenizeCJK tokenizes mixed Chinese and ASCII text: CJK runes become
// unigrams plus bigrams (no-space language), non-CJK letter and digit runs
// become whole words, everything else separates.
func tokenizeCJK(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var word strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if isCJK(r) {
				if word.Len() > 0 {
					tokens = append(tokens, word.String())
					word.Reset()
				}
				tokens = append(tokens, string(r))
				if i+1 < len(runes) && isCJK(runes[i+1]) {
					tokens = append(tokens, string(r)+string(runes[i+1]))
				}
			} else {
				word.WriteRune(r)
			}
		} else {
			if word.Len() > 0 {
				tokens = append(tokens, word.String())
				word.Reset()
			}
		}
	}
	if word.Len() > 0 {
		tokens = append(tokens, word.String())
	}

	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
