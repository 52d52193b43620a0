// Package yearex extracts ROC-calendar year expressions from free text:
// single years (113年), inclusive ranges (109-113, 109至113), and bare year
// mentions. Two-digit years are a shorthand missing the leading century
// digit and are padded with a leading "1" (13 → 113).
package yearex

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
)

var (
	// suffixYearRe matches a 2-3 digit number immediately followed by 年.
	suffixYearRe = regexp.MustCompile(`(\d{2,3})年`)

	// rangeRe matches two 3-digit years joined by a range separator,
	// consuming an optional trailing 年 so StripYears removes it too.
	// Separators: - ~ － — 至 到
	rangeRe = regexp.MustCompile(`(\d{3})\s*(?:[-~－—]|至|到)\s*(\d{3})年?`)

	// digitRunRe matches maximal digit runs; used for bare-year fallback
	// and for stripping. Matching runs (not \d{3}) avoids pulling a
	// 3-digit prefix out of a longer number such as 1131.
	digitRunRe = regexp.MustCompile(`\d+`)
)

// pad applies the ROC-calendar convention: 2-digit years gain a leading
// "1" digit (13 → 113).
func pad(year int) int {
	if year < 100 {
		return year + 100
	}
	return year
}

// Year returns the first year mentioned in text.
// A 2-3 digit number immediately followed by 年 wins; otherwise the first
// bare 2-3 digit run is used. Returns false if text contains neither.
func Year(text string) (int, bool) {
	if m := suffixYearRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			return pad(v), true
		}
	}
	for _, run := range digitRunRe.FindAllString(text, -1) {
		if len(run) == 2 || len(run) == 3 {
			v, err := strconv.Atoi(run)
			if err == nil {
				return pad(v), true
			}
		}
	}
	return 0, false
}

// Range returns the inclusive ascending year sequence for the first range
// expression in text, or nil if text contains none. If the span exceeds
// maxSpan the distinguished ErrRangeTooLong is returned instead of a
// silently truncated sequence.
func Range(text string, maxSpan int) ([]int, error) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}

	a, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, nil
	}
	b, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil
	}
	if a > b {
		a, b = b, a
	}

	span := b - a + 1
	if maxSpan > 0 && span > maxSpan {
		return nil, domerrors.ErrRangeTooLong
	}

	years := make([]int, 0, span)
	for y := a; y <= b; y++ {
		years = append(years, y)
	}
	return years, nil
}

// AllYears returns every distinct 3-digit year mentioned in text, in
// ascending order. Used when no explicit range syntax is present.
func AllYears(text string) []int {
	seen := make(map[int]bool)
	var years []int
	for _, run := range digitRunRe.FindAllString(text, -1) {
		if len(run) != 3 {
			continue
		}
		v, err := strconv.Atoi(run)
		if err != nil || seen[v] {
			continue
		}
		seen[v] = true
		years = append(years, v)
	}
	sort.Ints(years)
	return years
}

// StripYears removes all recognized year and year-range substrings from
// text, leaving the topic phrase. The caller is responsible for treating
// an empty remainder as the missing-topic condition.
func StripYears(text string) string {
	t := rangeRe.ReplaceAllString(text, "")
	t = suffixYearRe.ReplaceAllString(t, "")
	t = digitRunRe.ReplaceAllStringFunc(t, func(run string) string {
		if len(run) == 3 {
			return ""
		}
		return run
	})
	return strings.TrimSpace(t)
}
