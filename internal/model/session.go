package model

import (
	"sort"
	"strings"
)

// PageSet is a set of physical page numbers.
type PageSet map[int]struct{}

// NewPageSet creates a set holding the given page numbers.
func NewPageSet(pages ...int) PageSet {
	s := make(PageSet, len(pages))
	for _, p := range pages {
		s.Add(p)
	}
	return s
}

// Add inserts a page number.
func (s PageSet) Add(n int) {
	s[n] = struct{}{}
}

// Remove deletes a page number.
func (s PageSet) Remove(n int) {
	delete(s, n)
}

// Has reports whether the page number is in the set.
func (s PageSet) Has(n int) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the page numbers in ascending order.
// The result is never nil so it serializes as an empty JSON array.
func (s PageSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ReviewSession is the in-memory state of one loaded document folder.
// It replaces ambient UI state: every engine operation receives it explicitly.
//
// Invariant: Pages[i].PDFPageNumber == i+1 for every i.
type ReviewSession struct {
	// Folder is the document folder the session was loaded from.
	Folder string

	// DocumentName is the document base name (no extension, no temp_ prefix).
	DocumentName string

	// SourcePDF is the path of the source PDF, empty when none was found.
	SourcePDF string

	// Kind is the on-disk schema detected at load time.
	Kind SchemaKind

	// CountMode records whether len(Pages) came from the PDF or from observed data.
	CountMode CountMode

	// Pages is the dense, ordered page sequence.
	Pages []*PageRecord

	// MissingPages holds pages synthesized as placeholders.
	MissingPages PageSet

	// IncompletePages holds pages with no structured data.
	IncompletePages PageSet

	// UselessPages holds pages the reviewer discarded.
	UselessPages PageSet

	// PortfolioTag is the optional document-level tag. Empty means unset.
	PortfolioTag string

	// ExtraPages lists page numbers found on disk beyond the authoritative count.
	ExtraPages []int

	// LoadErrors holds the per-page errors absorbed during load.
	LoadErrors []error
}

// NewReviewSession creates an empty session for a folder.
func NewReviewSession(folder string, kind SchemaKind) *ReviewSession {
	return &ReviewSession{
		Folder:          folder,
		Kind:            kind,
		Pages:           make([]*PageRecord, 0),
		MissingPages:    NewPageSet(),
		IncompletePages: NewPageSet(),
		UselessPages:    NewPageSet(),
	}
}

// PageCount returns the number of pages in the session.
func (s *ReviewSession) PageCount() int {
	return len(s.Pages)
}

// Page returns the record for a 1-based page number.
func (s *ReviewSession) Page(n int) (*PageRecord, bool) {
	if n < 1 || n > len(s.Pages) {
		return nil, false
	}
	return s.Pages[n-1], true
}

// HasPortfolio reports whether a non-blank portfolio tag is set.
func (s *ReviewSession) HasPortfolio() bool {
	return strings.TrimSpace(s.PortfolioTag) != ""
}

// PagesWithStatus returns the page numbers carrying the given review status.
func (s *ReviewSession) PagesWithStatus(status ReviewStatus) []int {
	out := make([]int, 0)
	for _, p := range s.Pages {
		if p.ReviewStatus == status {
			out = append(out, p.PDFPageNumber)
		}
	}
	return out
}

// ReviewCounts summarizes a session for reports.
type ReviewCounts struct {
	TotalPages  int `json:"total_pages"`
	TotalTables int `json:"total_tables"`
	Approved    int `json:"approved_pages"`
	Flagged     int `json:"flagged_pages"`
	Pending     int `json:"pending_pages"`
	Missing     int `json:"missing_pages"`
	Incomplete  int `json:"incomplete_pages"`
	Useless     int `json:"useless_pages"`
}

// Reviewed returns the number of pages with a reviewer decision.
func (c ReviewCounts) Reviewed() int {
	return c.Approved + c.Flagged
}

// Progress returns the reviewed share of pages as a percentage.
func (c ReviewCounts) Progress() float64 {
	if c.TotalPages == 0 {
		return 0
	}
	return float64(c.Reviewed()) / float64(c.TotalPages) * 100
}

// Counts computes the review summary of the session.
func (s *ReviewSession) Counts() ReviewCounts {
	c := ReviewCounts{
		TotalPages: len(s.Pages),
		Missing:    len(s.MissingPages),
		Incomplete: len(s.IncompletePages),
		Useless:    len(s.UselessPages),
	}
	for _, p := range s.Pages {
		c.TotalTables += len(p.Tables)
		switch p.ReviewStatus {
		case StatusApproved:
			c.Approved++
		case StatusFlagged:
			c.Flagged++
		default:
			c.Pending++
		}
	}
	return c
}

// AllKeywords returns the sorted union of keywords across all pages.
func (s *ReviewSession) AllKeywords() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range s.Pages {
		for _, k := range p.Keywords {
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
