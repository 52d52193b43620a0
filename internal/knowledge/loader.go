package knowledge

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
)

// Column names of the tabular knowledge source. Only keywords and
// description are required; the rest are optional.
const (
	colKeywords   = "keywords"
	colDesc       = "description"
	colUnit       = "unit"
	colYear       = "year"
	colValue      = "value"
	colSourceURL  = "source_url"
	colSourceName = "source_url_name"
)

// headerIndex maps trimmed, lowercased column names to their position.
func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		m[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return m
}

func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseNumber parses a numeric cell, tolerating thousands separators.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

// LoadCSV parses the descriptive entries sheet. Rows with a blank keyword
// or description are skipped, matching the index invariant.
func LoadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are tolerated, cells default to empty

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := headerIndex(header)
	for _, required := range []string{colKeywords, colDesc} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", domerrors.ErrMissingColumn, required)
		}
	}

	var entries []Entry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		e := Entry{
			Keyword:     cell(record, cols, colKeywords),
			Description: cell(record, cols, colDesc),
			Unit:        cell(record, cols, colUnit),
			SourceURL:   cell(record, cols, colSourceURL),
			SourceName:  cell(record, cols, colSourceName),
		}
		if y := cell(record, cols, colYear); y != "" {
			if v, err := strconv.Atoi(y); err == nil {
				e.Year = v
			}
		}
		if e.Keyword == "" || e.Description == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadChangesCSV parses the secondary changes sheet: (keywords, year,
// value, unit). Rows without a parsable year or value are skipped.
func LoadChangesCSV(r io.Reader) ([]ChangeEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := headerIndex(header)
	for _, required := range []string{colKeywords, colYear, colValue} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", domerrors.ErrMissingColumn, required)
		}
	}

	var changes []ChangeEntry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		keyword := cell(record, cols, colKeywords)
		if keyword == "" {
			continue
		}
		year, err := strconv.Atoi(cell(record, cols, colYear))
		if err != nil {
			continue
		}
		value, err := parseNumber(cell(record, cols, colValue))
		if err != nil {
			continue
		}
		changes = append(changes, ChangeEntry{
			Keyword: keyword,
			Year:    year,
			Value:   value,
			Unit:    cell(record, cols, colUnit),
		})
	}
	return changes, nil
}

// ParseHTMLTable parses the first <table> of a published-to-web sheet into
// entries. The first row supplies column names.
func ParseHTMLTable(r io.Reader) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table element", domerrors.ErrSourceLoad)
	}

	var records [][]string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var fields []string
		row.Find("th, td").Each(func(_ int, c *goquery.Selection) {
			fields = append(fields, strings.TrimSpace(c.Text()))
		})
		if len(fields) > 0 {
			records = append(records, fields)
		}
	})
	if len(records) < 1 {
		return nil, fmt.Errorf("%w: empty table", domerrors.ErrSourceLoad)
	}

	cols := headerIndex(records[0])
	for _, required := range []string{colKeywords, colDesc} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", domerrors.ErrMissingColumn, required)
		}
	}

	var entries []Entry
	for _, record := range records[1:] {
		e := Entry{
			Keyword:     cell(record, cols, colKeywords),
			Description: cell(record, cols, colDesc),
			Unit:        cell(record, cols, colUnit),
			SourceURL:   cell(record, cols, colSourceURL),
			SourceName:  cell(record, cols, colSourceName),
		}
		if y := cell(record, cols, colYear); y != "" {
			if v, err := strconv.Atoi(y); err == nil {
				e.Year = v
			}
		}
		if e.Keyword == "" || e.Description == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// parseEntries sniffs the payload format: an HTML document (published
// sheet) or plain CSV.
func parseEntries(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(1)
	if len(head) == 1 && head[0] == '<' {
		return ParseHTMLTable(br)
	}
	return LoadCSV(br)
}

// Loader fetches and parses the knowledge source into an Index.
type Loader struct {
	fetcher *Fetcher
	log     *logger.Logger
}

// NewLoader creates a loader using the given fetcher.
func NewLoader(fetcher *Fetcher, log *logger.Logger) *Loader {
	return &Loader{fetcher: fetcher, log: log.WithModule("knowledge")}
}

// Load fetches the entries source and the optional changes source
// concurrently and builds an index. A missing or malformed changes source
// only disables delta computation; a failed entries source fails the load
// and the caller decides how to degrade.
func (l *Loader) Load(ctx context.Context, entriesLocation, changesLocation string) (*Index, error) {
	var (
		entries []Entry
		changes []ChangeEntry
	)

	g, gctx := errgroup.WithContext(ctx)

	wrap := domerrors.NewWrapper("knowledge", "load_entries")
	g.Go(func() error {
		body, err := l.fetcher.Fetch(gctx, entriesLocation)
		if err != nil {
			return wrap.Wrap(domerrors.NewSourceError(entriesLocation, err), "無法讀取訓練資料來源")
		}
		defer func() { _ = body.Close() }()

		entries, err = parseEntries(body)
		if err != nil {
			return wrap.Wrap(domerrors.NewSourceError(entriesLocation, err), "訓練資料格式不正確")
		}
		return nil
	})

	if changesLocation != "" {
		g.Go(func() error {
			body, err := l.fetcher.Fetch(gctx, changesLocation)
			if err != nil {
				// Change data is optional: log and continue without it.
				l.log.WithError(err).Warn("Failed to fetch changes source")
				return nil
			}
			defer func() { _ = body.Close() }()

			parsed, err := LoadChangesCSV(body)
			if err != nil {
				l.log.WithError(err).Warn("Failed to parse changes source")
				return nil
			}
			changes = parsed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := BuildIndex(entries, changes)
	l.log.WithField("entries", idx.Len()).
		WithField("changes", idx.ChangeCount()).
		Info("Knowledge index built")
	return idx, nil
}
