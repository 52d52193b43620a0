package knowledge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domerrors "github.com/opendata-tw/budget-linebot-go/internal/errors"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
)

const sampleCSV = `keywords,description,unit,source_url,source_url_name
113年工務局主管預算數,113年工務局主管預算數總計100億元。,元,https://example.gov.tw/113,主計處
112年工務局主管預算數,112年工務局主管預算數總計95億元。,元,,
,孤兒描述,,,
沒有描述的關鍵字,,,,
`

func TestLoadCSV(t *testing.T) {
	entries, err := LoadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (blank rows skipped)", len(entries))
	}

	first := entries[0]
	if first.Keyword != "113年工務局主管預算數" {
		t.Errorf("Keyword = %q", first.Keyword)
	}
	if first.Unit != "元" {
		t.Errorf("Unit = %q", first.Unit)
	}
	if first.SourceURL != "https://example.gov.tw/113" || first.SourceName != "主計處" {
		t.Errorf("citation = (%q, %q)", first.SourceURL, first.SourceName)
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("keywords,unit\nx,y\n"))
	if !errors.Is(err, domerrors.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestLoadCSVRaggedRows(t *testing.T) {
	csv := "keywords,description,unit\n113年預算,描述\n"
	entries, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 1 || entries[0].Unit != "" {
		t.Fatalf("short row should parse with empty optional cells: %+v", entries)
	}
}

func TestLoadCSVExplicitYearColumn(t *testing.T) {
	csv := "keywords,description,year\n工務局預算,描述,113\n"
	entries, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if entries[0].Year != 113 {
		t.Fatalf("Year = %d, want 113", entries[0].Year)
	}
}

func TestLoadChangesCSV(t *testing.T) {
	csv := `keywords,year,value,unit
工務局主管預算數,113,"1,000",千元
工務局主管預算數,112,800,千元
工務局主管預算數,abc,5,千元
工務局主管預算數,111,not-a-number,千元
`
	changes, err := LoadChangesCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadChangesCSV: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("len(changes) = %d, want 2 (bad rows skipped)", len(changes))
	}
	if changes[0].Value != 1000 {
		t.Errorf("Value = %v, want 1000 (thousands separator)", changes[0].Value)
	}
	if changes[0].Year != 113 || changes[0].Unit != "千元" {
		t.Errorf("parsed row = %+v", changes[0])
	}
}

func TestLoadChangesCSVMissingColumn(t *testing.T) {
	_, err := LoadChangesCSV(strings.NewReader("keywords,year\nx,113\n"))
	if !errors.Is(err, domerrors.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

const sampleHTML = `<html><body>
<table>
  <tr><th>keywords</th><th>description</th><th>unit</th></tr>
  <tr><td>113年消防局人數</td><td>113年消防局編制人數為500人。</td><td>人</td></tr>
  <tr><td></td><td>無關鍵字列</td><td></td></tr>
</table>
</body></html>`

func TestParseHTMLTable(t *testing.T) {
	entries, err := ParseHTMLTable(strings.NewReader(sampleHTML))
	if err != nil {
		t.Fatalf("ParseHTMLTable: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Keyword != "113年消防局人數" || entries[0].Unit != "人" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestParseHTMLTableNoTable(t *testing.T) {
	_, err := ParseHTMLTable(strings.NewReader("<html><body><p>nope</p></body></html>"))
	if !errors.Is(err, domerrors.ErrSourceLoad) {
		t.Fatalf("err = %v, want ErrSourceLoad", err)
	}
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	fetcher, err := NewFetcher(context.Background(), S3Config{}, 5*time.Second)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	return NewLoader(fetcher, logger.NewWithWriter("error", io.Discard))
}

func TestLoaderLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	entriesPath := filepath.Join(dir, "entries.csv")
	changesPath := filepath.Join(dir, "changes.csv")

	if err := os.WriteFile(entriesPath, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	changesCSV := "keywords,year,value,unit\n工務局主管預算數,113,1000,千元\n"
	if err := os.WriteFile(changesPath, []byte(changesCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	idx, err := newTestLoader(t).Load(context.Background(), entriesPath, changesPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Len = %d, want 2", idx.Len())
	}
	if idx.ChangeCount() != 1 {
		t.Errorf("ChangeCount = %d, want 1", idx.ChangeCount())
	}
}

func TestLoaderLoadHTMLOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request has no User-Agent header")
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(sampleHTML))
	}))
	defer srv.Close()

	idx, err := newTestLoader(t).Load(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}
}

func TestLoaderLoadEntriesFailure(t *testing.T) {
	_, err := newTestLoader(t).Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "")
	if err == nil {
		t.Fatal("Load should fail when the entries source is unreadable")
	}
	var wrapped *domerrors.WrappedError
	if !errors.As(err, &wrapped) {
		t.Fatalf("err = %T, want *WrappedError", err)
	}
	if wrapped.Module != "knowledge" || wrapped.Operation != "load_entries" {
		t.Errorf("wrapped context = %s:%s", wrapped.Module, wrapped.Operation)
	}
	if got := domerrors.GetUserMessage(err); got != "無法讀取訓練資料來源" {
		t.Errorf("GetUserMessage = %q", got)
	}
	var srcErr *domerrors.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("err = %T, want *SourceError in the chain", err)
	}
}

func TestLoaderLoadChangesFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	entriesPath := filepath.Join(dir, "entries.csv")
	if err := os.WriteFile(entriesPath, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	idx, err := newTestLoader(t).Load(context.Background(), entriesPath, filepath.Join(dir, "missing.csv"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.ChangeCount() != 0 {
		t.Errorf("ChangeCount = %d, want 0", idx.ChangeCount())
	}
}
