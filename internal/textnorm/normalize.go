// Package textnorm canonicalizes Chinese query and keyword text so that
// surface variants compare equal: full-width forms are folded to half-width,
// ASCII letters are lowercased, calendar-term synonyms collapse to a single
// form, and whitespace plus punctuation are removed.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// synonyms are applied in order after width folding and lowercasing.
// 學年度 must be rewritten before 年度 so it does not degrade to 學年.
var synonyms = []struct {
	from string
	to   string
}{
	{"學年度", "年"},
	{"年度", "年"},
}

// Normalize returns the canonical matching form of text. The result contains
// only letters and digits; it may be empty.
func Normalize(text string) string {
	t := width.Narrow.String(text)
	t = strings.ToLower(t)
	for _, s := range synonyms {
		t = strings.ReplaceAll(t, s.from, s.to)
	}

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RuneLen returns the rune count of s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// fillers are interrogative and connective words that carry no topic
// information. Listed longest-first so compounds go before their parts.
var fillers = []string{
	"請問",
	"如何",
	"多少",
	"呢",
	"嗎",
	"的",
	"和",
	"與",
}

// StripFillers removes question fillers from a normalized query, leaving
// the topic phrase used for fuzzy scoring.
func StripFillers(norm string) string {
	for _, f := range fillers {
		norm = strings.ReplaceAll(norm, f, "")
	}
	return norm
}
