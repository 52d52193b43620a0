package knowledge

import (
	"sync/atomic"
)

type changeKey struct {
	keywordNorm string
	year        int
}

// Index is the process-wide knowledge index: an exact-match mapping from
// normalized keyword to entry plus an ordered entry list for fuzzy scans.
// It is read-only after construction, so lookups need no locking and the
// resolver may be called concurrently.
type Index struct {
	exact   map[string]*Entry
	entries []Entry
	changes map[changeKey]ChangeEntry
}

// BuildIndex constructs an Index from raw rows. Rows missing a keyword or
// description are dropped. When several rows share a normalized keyword the
// first one wins the exact slot; all remain visible to fuzzy ranking.
func BuildIndex(entries []Entry, changes []ChangeEntry) *Index {
	idx := &Index{
		exact:   make(map[string]*Entry),
		changes: make(map[changeKey]ChangeEntry),
	}

	for _, e := range entries {
		e.Normalize()
		if !e.Indexable() {
			continue
		}
		idx.entries = append(idx.entries, e)
	}
	for i := range idx.entries {
		e := &idx.entries[i]
		if _, dup := idx.exact[e.KeywordNorm]; !dup {
			idx.exact[e.KeywordNorm] = e
		}
	}

	for _, c := range changes {
		c.Normalize()
		if c.KeywordNorm == "" {
			continue
		}
		idx.changes[changeKey{c.KeywordNorm, c.Year}] = c
	}

	return idx
}

// Empty returns an index with no entries. Used for the degraded mode when
// the knowledge source cannot be loaded.
func Empty() *Index {
	return BuildIndex(nil, nil)
}

// Lookup returns the entry whose normalized keyword equals norm.
func (idx *Index) Lookup(norm string) (*Entry, bool) {
	e, ok := idx.exact[norm]
	return e, ok
}

// Entries returns all indexed entries for linear fuzzy scanning.
// Callers must not mutate the returned slice.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Changes returns all change rows, for persisting a snapshot.
func (idx *Index) Changes() []ChangeEntry {
	out := make([]ChangeEntry, 0, len(idx.changes))
	for _, c := range idx.changes {
		out = append(out, c)
	}
	return out
}

// ChangeValue returns the numeric value and unit recorded for
// (keywordNorm, year) in the changes table.
func (idx *Index) ChangeValue(keywordNorm string, year int) (float64, string, bool) {
	c, ok := idx.changes[changeKey{keywordNorm, year}]
	if !ok {
		return 0, "", false
	}
	return c.Value, c.Unit, true
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// ChangeCount returns the number of change rows.
func (idx *Index) ChangeCount() int {
	return len(idx.changes)
}

// Store holds the current index behind an atomic pointer so a background
// refresh can swap in a rebuilt index without blocking readers.
type Store struct {
	current atomic.Pointer[Index]
}

// NewStore creates a store holding idx (or an empty index if nil).
func NewStore(idx *Index) *Store {
	s := &Store{}
	if idx == nil {
		idx = Empty()
	}
	s.current.Store(idx)
	return s
}

// Current returns the active index. The returned index is immutable.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Swap atomically replaces the active index. A nil idx is ignored.
func (s *Store) Swap(idx *Index) {
	if idx == nil {
		return
	}
	s.current.Store(idx)
}
