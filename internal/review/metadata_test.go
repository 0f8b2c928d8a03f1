package review

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/inspector/internal/model"
)

// TestNewMetadata tests building metadata from a session.
func TestNewMetadata(t *testing.T) {
	t.Parallel()

	store := NewStore(newSession())
	if err := store.Approve(1); err != nil {
		t.Fatal(err)
	}
	if err := store.Flag(3); err != nil {
		t.Fatal(err)
	}
	if err := store.Discard(2); err != nil {
		t.Fatal(err)
	}
	store.SetPortfolio("fund-a")

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	m := NewMetadata(store.Session(), now)

	if !reflect.DeepEqual(m.PageStatuses, map[string]string{"0": "approved", "2": "flagged"}) {
		t.Errorf("unexpected page statuses %v", m.PageStatuses)
	}
	if !reflect.DeepEqual(m.FlaggedPages, []int{3}) {
		t.Errorf("unexpected flagged pages %v", m.FlaggedPages)
	}
	if !reflect.DeepEqual(m.UselessPages, []int{2}) || len(m.IncompletePages) != 0 {
		t.Errorf("unexpected useless %v / incomplete %v", m.UselessPages, m.IncompletePages)
	}
	if m.PortfolioTag() != "fund-a" {
		t.Errorf("unexpected portfolio %q", m.PortfolioTag())
	}
	if m.LastUpdated != "2024-05-06T07:08:09Z" {
		t.Errorf("unexpected timestamp %q", m.LastUpdated)
	}

	data, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"page_statuses", "flagged_pages", "missing_pages", "incomplete_pages", "useless_pages", "portfolio", "last_updated"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected key %q in metadata file", key)
		}
	}
}

// TestMetadata_PortfolioNull tests that an unset portfolio is written as null.
func TestMetadata_PortfolioNull(t *testing.T) {
	t.Parallel()

	data, err := NewMetadata(newSession(), time.Now()).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if v, ok := raw["portfolio"]; !ok || v != nil {
		t.Errorf("expected portfolio null, got %v (present=%v)", v, ok)
	}
}

// TestReadMetadata tests reading the metadata file.
func TestReadMetadata(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty metadata", func(t *testing.T) {
		t.Parallel()

		m, err := ReadMetadata(filepath.Join(t.TempDir(), "inspector_metadata.json"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Edited() {
			t.Error("expected empty metadata to be unedited")
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "inspector_metadata.json")
		if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadMetadata(path); err == nil {
			t.Error("expected error")
		}
	})
}

// TestMetadata_Edited tests the heuristic on persisted state.
func TestMetadata_Edited(t *testing.T) {
	t.Parallel()

	blank := " "
	tag := "fund"
	tests := []struct {
		name string
		m    Metadata
		want bool
	}{
		{"empty", Metadata{}, false},
		{"pending only", Metadata{PageStatuses: map[string]string{"0": "pending"}}, false},
		{"approved", Metadata{PageStatuses: map[string]string{"0": "approved"}}, true},
		{"flagged list", Metadata{FlaggedPages: []int{2}}, true},
		{"useless", Metadata{UselessPages: []int{1}}, true},
		{"blank portfolio", Metadata{Portfolio: &blank}, false},
		{"portfolio", Metadata{Portfolio: &tag}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.m.Edited(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestRestore tests applying metadata to a reconciled session.
func TestRestore(t *testing.T) {
	t.Parallel()

	tag := "fund-b"
	m := &Metadata{
		PageStatuses: map[string]string{"0": "approved", "1": "bogus", "9": "flagged", "x": "approved"},
		FlaggedPages: []int{3},
		UselessPages: []int{2, 12},
		Portfolio:    &tag,
	}
	s := newSession()
	Restore(s, m, nil)

	p1, _ := s.Page(1)
	if p1.ReviewStatus != model.StatusApproved {
		t.Errorf("expected page 1 approved, got %s", p1.ReviewStatus)
	}
	p2, _ := s.Page(2)
	if !p2.IsUseless() || p2.Content != model.UselessMarker || p2.Dirty {
		t.Errorf("expected page 2 restored as clean useless page, got %+v", p2)
	}
	if s.IncompletePages.Has(2) || !s.UselessPages.Has(2) {
		t.Error("expected page 2 moved from incomplete to useless")
	}
	p3, _ := s.Page(3)
	if p3.ReviewStatus != model.StatusFlagged {
		t.Errorf("expected page 3 flagged, got %s", p3.ReviewStatus)
	}
	if s.PortfolioTag != "fund-b" {
		t.Errorf("expected portfolio restored, got %q", s.PortfolioTag)
	}
	if s.UselessPages.Has(12) {
		t.Error("expected out-of-range useless page skipped")
	}
}
