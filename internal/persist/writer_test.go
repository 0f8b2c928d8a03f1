package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/reconcile"
	"github.com/nao1215/inspector/internal/review"
	"github.com/nao1215/inspector/internal/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test fixture
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// loadSession loads, reconciles and restores a folder the same way the
// application does.
func loadSession(t *testing.T, dir string, count int) *model.ReviewSession {
	t.Helper()

	layout := model.DefaultLayout()
	res, err := source.NewLoader(layout).Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	meta, err := review.ReadMetadata(filepath.Join(dir, layout.MetadataFile))
	if err != nil {
		t.Fatalf("metadata read failed: %v", err)
	}
	rec, err := reconcile.Reconcile(res.Pages, count, reconcile.Options{PreferStored: meta.Edited()})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	s := model.NewReviewSession(dir, res.Kind)
	s.DocumentName = res.DocumentName
	s.Pages = rec.Pages
	s.MissingPages = rec.Missing
	s.IncompletePages = rec.Incomplete
	s.CountMode = rec.Mode
	review.Restore(s, meta, nil)
	return s
}

// testClock returns a clock that advances one minute per call.
func testClock() func() time.Time {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

// testIDs returns a deterministic identifier source.
func testIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestWriter() *Writer {
	return NewWriter(model.DefaultLayout(), WithClock(testClock()), WithIDGenerator(testIDs()))
}

const consolidatedFixture = `{
  "document_info": {"document_name": "report", "pipeline_version": "2.1"},
  "pages": [
    {
      "page_id": "page_1",
      "title": "Revenue",
      "summary": "Revenue by quarter",
      "keywords": ["revenue"],
      "raw_content": "Revenue text",
      "processing_metadata": {"model": "x", "confidence": 0.93},
      "tables": [
        {"table_id": "t1", "title": "Q1", "columns": ["region", "amount"], "rows": [["north", 10], ["south", 12]], "metadata": {"source": "ocr"}}
      ]
    },
    {"page_id": "page_2", "title": "Costs", "keywords": [], "raw_content": "Cost text", "tables": []}
  ]
}`

func entryOf(t *testing.T, path string, index int) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(readFile(t, path), &doc); err != nil {
		t.Fatal(err)
	}
	pages, _ := doc["pages"].([]any)
	if index >= len(pages) {
		t.Fatalf("expected at least %d pages, got %d", index+1, len(pages))
	}
	entry, _ := pages[index].(map[string]any)
	return entry
}

// TestSave_ConsolidatedTables tests that tables are updated in place and appended.
func TestSave_ConsolidatedTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final_output.json")
	writeFile(t, path, consolidatedFixture)

	s := loadSession(t, dir, 2)
	store := review.NewStore(s)
	fixed := s.Pages[0].Tables[0].Clone()
	fixed.Title = "Q1 corrected"
	if err := store.SetTable(1, 0, fixed); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Q2", "Q3"} {
		if _, err := store.AddTable(1, model.TableRecord{Title: title, Rows: []model.Row{{"k": "v"}}}); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := newTestWriter().Save(s); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entry := entryOf(t, path, 0)
	tables, _ := entry["tables"].([]any)
	if len(tables) != 3 {
		t.Fatalf("expected 3 tables on disk, got %d", len(tables))
	}
	first, _ := tables[0].(map[string]any)
	if first["title"] != "Q1 corrected" || first["table_id"] != "t1" {
		t.Errorf("unexpected updated table: %v", first)
	}
	if _, ok := first["metadata"]; !ok {
		t.Error("expected unowned table field kept")
	}
	if rows, _ := first["rows"].([]any); len(rows) != 2 {
		t.Errorf("expected 2 rows, got %v", first["rows"])
	} else if _, positional := rows[0].([]any); !positional {
		t.Error("expected positional row encoding kept")
	}
	if first["row_count"] != float64(2) || first["column_count"] != float64(2) {
		t.Errorf("unexpected derived counts: %v / %v", first["row_count"], first["column_count"])
	}
	second, _ := tables[1].(map[string]any)
	if second["table_id"] != "id-1" || second["title"] != "Q2" {
		t.Errorf("unexpected appended table: %v", second)
	}
	if s.Pages[0].Tables[1].ID != "id-1" {
		t.Errorf("expected minted id stored on the session, got %q", s.Pages[0].Tables[1].ID)
	}

	meta, _ := entry["processing_metadata"].(map[string]any)
	if meta["model"] != "x" {
		t.Errorf("expected processing_metadata untouched, got %v", entry["processing_metadata"])
	}
	if entry["summary"] != "Revenue by quarter" || entry["raw_content"] != "Revenue text" {
		t.Errorf("unexpected page fields: %v", entry)
	}
}

// TestSave_ConsolidatedEntryOrder tests that entries are matched by the page
// number they carry, and by position only when they carry none.
func TestSave_ConsolidatedEntryOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantIdx int
	}{
		{
			name:    "identifiers out of order",
			doc:     `{"pages": [{"page_id": "page_2", "title": "two"}, {"page_id": "page_1", "title": "one"}]}`,
			wantIdx: 1,
		},
		{
			name:    "no identifiers",
			doc:     `{"pages": [{"title": "one"}, {"title": "two"}]}`,
			wantIdx: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "final_output.json")
			writeFile(t, path, tt.doc)

			s := loadSession(t, dir, 2)
			if err := review.NewStore(s).SetTitle(1, "First"); err != nil {
				t.Fatal(err)
			}
			if _, err := newTestWriter().Save(s); err != nil {
				t.Fatalf("save failed: %v", err)
			}

			if got := entryOf(t, path, tt.wantIdx)["title"]; got != "First" {
				t.Errorf("expected entry %d retitled, got %v", tt.wantIdx, got)
			}
			if got := entryOf(t, path, 1-tt.wantIdx)["title"]; got != "two" {
				t.Errorf("expected entry %d untouched, got %v", 1-tt.wantIdx, got)
			}
		})
	}
}

// TestSave_Idempotent tests that a second save leaves every file byte-identical.
func TestSave_Idempotent(t *testing.T) {
	t.Parallel()

	t.Run("consolidated", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "final_output.json"), consolidatedFixture)
		s := loadSession(t, dir, 3)
		store := review.NewStore(s)
		if err := store.Approve(1); err != nil {
			t.Fatal(err)
		}
		if _, err := store.AddTable(2, model.TableRecord{Title: "new"}); err != nil {
			t.Fatal(err)
		}

		w := newTestWriter()
		if _, err := w.Save(s); err != nil {
			t.Fatal(err)
		}
		before := snapshot(t, dir)

		res, err := w.Save(s)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Written) != 0 {
			t.Errorf("expected nothing written, got %v", res.Written)
		}
		if after := snapshot(t, dir); !reflect.DeepEqual(before, after) {
			t.Error("second save changed the folder")
		}
	})

	t.Run("legacy", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "json_pages", "page_1.json"), `{"title": "a", "tables": [{"title": "T", "data": [{"c": 1}]}]}`)
		writeFile(t, filepath.Join(dir, "markdown_pages", "page_1.md"), "a")
		s := loadSession(t, dir, 2)

		w := newTestWriter()
		if _, err := w.Save(s); err != nil {
			t.Fatal(err)
		}
		before := snapshot(t, dir)
		if _, err := w.Save(s); err != nil {
			t.Fatal(err)
		}
		if after := snapshot(t, dir); !reflect.DeepEqual(before, after) {
			t.Error("second save changed the folder")
		}
	})
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		out[path] = string(readFile(t, path))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// TestSave_RoundTrip tests that save followed by load reproduces the session.
func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "final_output.json"), consolidatedFixture)
	writeFile(t, filepath.Join(dir, "markdown_pages", "page_3.md"), "third page rendering")

	s := loadSession(t, dir, 4)
	store := review.NewStore(s)
	if err := store.Approve(1); err != nil {
		t.Fatal(err)
	}
	if err := store.Flag(4); err != nil {
		t.Fatal(err)
	}
	if err := store.SetContent(2, "edited cost text"); err != nil {
		t.Fatal(err)
	}
	store.SetPortfolio("fund-a")

	if _, err := newTestWriter().Save(s); err != nil {
		t.Fatal(err)
	}
	reloaded := loadSession(t, dir, 4)

	if len(reloaded.Pages) != len(s.Pages) {
		t.Fatalf("expected %d pages, got %d", len(s.Pages), len(reloaded.Pages))
	}
	for i := range s.Pages {
		want, got := *s.Pages[i], *reloaded.Pages[i]
		want.Dirty, got.Dirty = false, false
		if !reflect.DeepEqual(want, got) {
			t.Errorf("page %d differs after reload:\nwant %+v\ngot  %+v", i+1, want, got)
		}
	}
	if !reflect.DeepEqual(reloaded.MissingPages.Sorted(), []int{4}) {
		t.Errorf("expected missing [4], got %v", reloaded.MissingPages.Sorted())
	}
	if !reflect.DeepEqual(reloaded.IncompletePages.Sorted(), []int{3}) {
		t.Errorf("expected incomplete [3], got %v", reloaded.IncompletePages.Sorted())
	}
	if reloaded.PortfolioTag != "fund-a" {
		t.Errorf("expected portfolio kept, got %q", reloaded.PortfolioTag)
	}
}

// TestSave_UselessRoundTrip tests that a discarded page reloads overwritten.
func TestSave_UselessRoundTrip(t *testing.T) {
	t.Parallel()

	for _, layout := range []string{"consolidated", "legacy"} {
		t.Run(layout, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if layout == "consolidated" {
				writeFile(t, filepath.Join(dir, "final_output.json"), consolidatedFixture)
			} else {
				writeFile(t, filepath.Join(dir, "json_pages", "page_1.json"),
					`{"title": "a", "tables": [{"title": "A", "data": [{"x": 1}]}, {"title": "B", "data": []}]}`)
				writeFile(t, filepath.Join(dir, "markdown_pages", "page_1.md"), "a")
				writeFile(t, filepath.Join(dir, "markdown_pages", "page_2.md"), "b")
			}

			s := loadSession(t, dir, 2)
			if err := review.NewStore(s).Discard(1); err != nil {
				t.Fatal(err)
			}
			if _, err := newTestWriter().Save(s); err != nil {
				t.Fatal(err)
			}

			reloaded := loadSession(t, dir, 2)
			page := reloaded.Pages[0]
			if page.Content != "useless" {
				t.Errorf("expected content useless, got %q", page.Content)
			}
			want := []model.TableRecord{model.UselessTable()}
			got := append([]model.TableRecord(nil), page.Tables...)
			for i := range got {
				got[i].ID = ""
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected useless table, got %+v", page.Tables)
			}
			if !reloaded.UselessPages.Has(1) {
				t.Error("expected page 1 in useless pages")
			}
		})
	}
}

// TestSave_Legacy tests per-page writes.
func TestSave_Legacy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "json_pages", "page_1.json"), `{"title": "one", "extra_field": true}`)
	writeFile(t, filepath.Join(dir, "markdown_pages", "page_1.md"), "one")
	writeFile(t, filepath.Join(dir, "markdown_pages", "page_2.md"), "two")
	writeFile(t, filepath.Join(dir, "markdown_pages", "page_4.md"), "four")

	s := loadSession(t, dir, 5)
	if err := review.NewStore(s).SetTitle(4, "Four"); err != nil {
		t.Fatal(err)
	}
	if _, err := newTestWriter().Save(s); err != nil {
		t.Fatal(err)
	}

	jsonDir := filepath.Join(dir, "json_pages")
	for _, name := range []string{"page_2.json", "page_3.json", "page_5.json"} {
		if _, err := os.Stat(filepath.Join(jsonDir, name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected %s not written, got %v", name, err)
		}
	}

	var p1 map[string]any
	if err := json.Unmarshal(readFile(t, filepath.Join(jsonDir, "page_1.json")), &p1); err != nil {
		t.Fatal(err)
	}
	if p1["extra_field"] != true || p1["content"] != "one" {
		t.Errorf("unexpected page_1.json: %v", p1)
	}

	var p4 map[string]any
	if err := json.Unmarshal(readFile(t, filepath.Join(jsonDir, "page_4.json")), &p4); err != nil {
		t.Fatalf("expected edited incomplete page written: %v", err)
	}
	if p4["title"] != "Four" {
		t.Errorf("unexpected page_4.json title %v", p4["title"])
	}
}

// TestSave_LegacyFileNames tests that pages are written back to the record
// file they were loaded from, whatever its spelling.
func TestSave_LegacyFileNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
	}{
		{name: "zero padded", file: "page_01.json"},
		{name: "capitalized", file: "Page_1.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			jsonDir := filepath.Join(dir, "json_pages")
			writeFile(t, filepath.Join(jsonDir, tt.file), `{"title": "Old", "content": "one"}`)
			writeFile(t, filepath.Join(dir, "markdown_pages", "page_1.md"), "one")

			s := loadSession(t, dir, 1)
			store := review.NewStore(s)
			if err := store.Approve(1); err != nil {
				t.Fatal(err)
			}
			if err := store.SetTitle(1, "New"); err != nil {
				t.Fatal(err)
			}
			if _, err := newTestWriter().Save(s); err != nil {
				t.Fatal(err)
			}

			entries, err := os.ReadDir(jsonDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 || entries[0].Name() != tt.file {
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					names = append(names, e.Name())
				}
				t.Fatalf("expected only %s, got %v", tt.file, names)
			}

			again := loadSession(t, dir, 1)
			if again.Pages[0].Title != "New" {
				t.Errorf("expected reloaded title New, got %q", again.Pages[0].Title)
			}
		})
	}

	t.Run("canonical name wins over a duplicate", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		jsonDir := filepath.Join(dir, "json_pages")
		writeFile(t, filepath.Join(jsonDir, "page_01.json"), `{"title": "Stale", "content": "one"}`)
		writeFile(t, filepath.Join(jsonDir, "page_1.json"), `{"title": "Current", "content": "one"}`)
		writeFile(t, filepath.Join(dir, "markdown_pages", "page_1.md"), "one")

		s := loadSession(t, dir, 1)
		if s.Pages[0].Title != "Current" {
			t.Fatalf("expected page_1.json loaded, got title %q", s.Pages[0].Title)
		}
		if err := review.NewStore(s).SetTitle(1, "Edited"); err != nil {
			t.Fatal(err)
		}
		if _, err := newTestWriter().Save(s); err != nil {
			t.Fatal(err)
		}

		var stale map[string]any
		if err := json.Unmarshal(readFile(t, filepath.Join(jsonDir, "page_01.json")), &stale); err != nil {
			t.Fatal(err)
		}
		if stale["title"] != "Stale" {
			t.Errorf("expected page_01.json untouched, got %v", stale["title"])
		}
		if got := loadSession(t, dir, 1).Pages[0].Title; got != "Edited" {
			t.Errorf("expected reloaded title Edited, got %q", got)
		}
	})
}

// TestSave_BareListUpgrade tests that the bare pages array is wrapped.
func TestSave_BareListUpgrade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final_output.json")
	writeFile(t, path, `[{"title": "a"}, {"title": "b"}]`)

	s := loadSession(t, dir, 2)
	if _, err := newTestWriter().Save(s); err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(readFile(t, path), &doc); err != nil {
		t.Fatalf("expected object form: %v", err)
	}
	info, _ := doc["document_info"].(map[string]any)
	if info["total_pages"] != float64(2) || info["last_updated"] == nil {
		t.Errorf("unexpected document_info: %v", info)
	}
	if pages, _ := doc["pages"].([]any); len(pages) != 2 {
		t.Errorf("expected 2 pages, got %v", doc["pages"])
	}
}

// TestSave_Failures tests that failed saves leave the target intact.
func TestSave_Failures(t *testing.T) {
	t.Parallel()

	t.Run("rename failure", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "final_output.json")
		writeFile(t, path, consolidatedFixture)
		s := loadSession(t, dir, 2)
		if err := review.NewStore(s).SetTitle(1, "changed"); err != nil {
			t.Fatal(err)
		}

		w := newTestWriter()
		w.files.rename = func(string, string) error { return errors.New("disk full") }

		_, err := w.Save(s)
		var atomicErr *AtomicWriteError
		if !errors.As(err, &atomicErr) || atomicErr.Op != "rename" {
			t.Fatalf("expected rename AtomicWriteError, got %v", err)
		}
		if string(readFile(t, path)) != consolidatedFixture {
			t.Error("original file was modified")
		}
		if !s.Pages[0].Dirty {
			t.Error("expected dirty mark kept after a failed save")
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.Contains(e.Name(), ".tmp-") {
				t.Errorf("temporary file left behind: %s", e.Name())
			}
		}
	})

	t.Run("serialization failure", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "final_output.json")
		writeFile(t, path, consolidatedFixture)
		s := loadSession(t, dir, 2)
		if _, err := review.NewStore(s).AddTable(1, model.TableRecord{Rows: []model.Row{{"v": math.Inf(1)}}}); err != nil {
			t.Fatal(err)
		}

		_, err := newTestWriter().Save(s)
		var serErr *SerializationError
		if !errors.As(err, &serErr) {
			t.Fatalf("expected SerializationError, got %v", err)
		}
		if string(readFile(t, path)) != consolidatedFixture {
			t.Error("original file was modified")
		}
		if _, err := os.Stat(filepath.Join(dir, "inspector_metadata.json")); !errors.Is(err, os.ErrNotExist) {
			t.Error("expected metadata not written after a failed save")
		}
	})

	t.Run("unknown schema kind", func(t *testing.T) {
		t.Parallel()

		s := model.NewReviewSession(t.TempDir(), "xml")
		if _, err := newTestWriter().Save(s); !errors.Is(err, ErrUnsupportedSchema) {
			t.Errorf("expected ErrUnsupportedSchema, got %v", err)
		}
	})
}

// TestSave_Metadata tests the metadata file contents.
func TestSave_Metadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "final_output.json"), consolidatedFixture)
	s := loadSession(t, dir, 3)
	store := review.NewStore(s)
	if err := store.Flag(2); err != nil {
		t.Fatal(err)
	}

	if _, err := newTestWriter().Save(s); err != nil {
		t.Fatal(err)
	}
	meta, err := review.ReadMetadata(filepath.Join(dir, "inspector_metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(meta.PageStatuses, map[string]string{"1": "flagged"}) {
		t.Errorf("unexpected page statuses %v", meta.PageStatuses)
	}
	if !reflect.DeepEqual(meta.MissingPages, []int{3}) {
		t.Errorf("unexpected missing pages %v", meta.MissingPages)
	}
	if meta.Portfolio != nil {
		t.Errorf("expected null portfolio, got %v", *meta.Portfolio)
	}
	if meta.LastUpdated == "" {
		t.Error("expected last_updated")
	}
}
