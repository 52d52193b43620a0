// Package knowledge holds the in-memory knowledge index built from the
// tabular training source: descriptive entries for answering queries and a
// secondary change table for year-over-year numeric deltas.
package knowledge

import (
	"github.com/opendata-tw/budget-linebot-go/internal/textnorm"
	"github.com/opendata-tw/budget-linebot-go/internal/yearex"
)

// Entry is one row of the knowledge source.
// Keyword and Description must both be non-empty for the entry to be
// indexed; rows with either blank are dropped at load time.
type Entry struct {
	Keyword     string // raw label text, e.g. "113年工務局主管預算數"
	KeywordNorm string // normalized form used for exact lookup
	TopicNorm   string // normalized keyword with year expressions removed; used for fuzzy scoring
	Year        int    // year extracted from the keyword; 0 if absent
	Description string // free-text answer body
	Unit        string // optional unit-of-measure label (人, 元, ...)
	SourceURL   string // optional citation URL
	SourceName  string // optional citation display name
}

// Normalize fills the derived fields (KeywordNorm, TopicNorm, Year) from
// Keyword. Explicitly set values are preserved.
func (e *Entry) Normalize() {
	if e.KeywordNorm == "" {
		e.KeywordNorm = textnorm.Normalize(e.Keyword)
	}
	if e.TopicNorm == "" {
		e.TopicNorm = textnorm.Normalize(yearex.StripYears(e.Keyword))
	}
	if e.Year == 0 {
		if y, ok := yearex.Year(e.Keyword); ok {
			e.Year = y
		}
	}
}

// Indexable reports whether the entry carries both a keyword and a
// description after normalization.
func (e *Entry) Indexable() bool {
	return e.KeywordNorm != "" && e.Description != ""
}

// ChangeEntry is one row of the secondary changes table, keyed by
// (keyword, year) and carrying a numeric value. It is independent from the
// descriptive Entry set and is used only for delta computation.
type ChangeEntry struct {
	Keyword     string
	KeywordNorm string
	Year        int
	Value       float64
	Unit        string
}

// Normalize fills KeywordNorm from Keyword when unset.
func (c *ChangeEntry) Normalize() {
	if c.KeywordNorm == "" {
		c.KeywordNorm = textnorm.Normalize(c.Keyword)
	}
}
