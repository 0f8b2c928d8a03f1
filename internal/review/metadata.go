package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/inspector/internal/model"
)

// Metadata is the content of the review metadata file.
type Metadata struct {
	// PageStatuses maps 0-based page indexes to approved or flagged.
	// Pending pages are not listed.
	PageStatuses map[string]string `json:"page_statuses"`

	FlaggedPages    []int `json:"flagged_pages"`
	MissingPages    []int `json:"missing_pages"`
	IncompletePages []int `json:"incomplete_pages"`
	UselessPages    []int `json:"useless_pages"`

	// Portfolio is the portfolio tag, null when unset.
	Portfolio *string `json:"portfolio"`

	// DocumentName is the document base name.
	DocumentName string `json:"document_name,omitempty"`

	// LastUpdated is the RFC 3339 time of the save that wrote the file.
	LastUpdated string `json:"last_updated"`
}

// NewMetadata builds the metadata of a session as of now.
func NewMetadata(s *model.ReviewSession, now time.Time) *Metadata {
	m := &Metadata{
		PageStatuses:    make(map[string]string),
		FlaggedPages:    s.PagesWithStatus(model.StatusFlagged),
		MissingPages:    s.MissingPages.Sorted(),
		IncompletePages: s.IncompletePages.Sorted(),
		UselessPages:    s.UselessPages.Sorted(),
		DocumentName:    s.DocumentName,
		LastUpdated:     now.Format(time.RFC3339),
	}
	for i, p := range s.Pages {
		if p.ReviewStatus.IsReviewed() {
			m.PageStatuses[strconv.Itoa(i)] = p.ReviewStatus.String()
		}
	}
	if s.HasPortfolio() {
		tag := s.PortfolioTag
		m.Portfolio = &tag
	}
	return m
}

// Marshal encodes the metadata as indented JSON.
func (m *Metadata) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ReadMetadata reads a metadata file. A missing file yields empty metadata.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
	if errors.Is(err, fs.ErrNotExist) {
		return &Metadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read review metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse review metadata %s: %w", path, err)
	}
	return &m, nil
}

// PortfolioTag returns the stored portfolio tag, or "".
func (m *Metadata) PortfolioTag() string {
	if m.Portfolio == nil {
		return ""
	}
	return strings.TrimSpace(*m.Portfolio)
}

// Edited evaluates the edited-document heuristic on persisted state, before
// any session exists.
func (m *Metadata) Edited() bool {
	for _, status := range m.PageStatuses {
		if s, err := model.ParseReviewStatus(status); err == nil && s.IsReviewed() {
			return true
		}
	}
	return len(m.FlaggedPages) > 0 || len(m.UselessPages) > 0 || m.PortfolioTag() != ""
}

// Restore applies persisted review state to a freshly reconciled session:
// statuses, the useless overwrite and the portfolio tag. Entries that refer
// to pages the session does not have are skipped.
func Restore(s *model.ReviewSession, m *Metadata, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, n := range m.UselessPages {
		page, ok := s.Page(n)
		if !ok {
			logger.Warn("discarded page out of range", slog.Int("page", n))
			continue
		}
		page.MarkUseless()
		page.Dirty = false
		s.MissingPages.Remove(n)
		s.IncompletePages.Remove(n)
		s.UselessPages.Add(n)
	}

	indexes := make([]string, 0, len(m.PageStatuses))
	for k := range m.PageStatuses {
		indexes = append(indexes, k)
	}
	sort.Strings(indexes)
	for _, k := range indexes {
		i, err := strconv.Atoi(k)
		if err != nil {
			logger.Warn("invalid page index in review metadata", slog.String("index", k))
			continue
		}
		status, err := model.ParseReviewStatus(m.PageStatuses[k])
		if err != nil {
			logger.Warn("invalid page status in review metadata",
				slog.String("index", k), slog.String("error", err.Error()))
			continue
		}
		applyStatus(s, i+1, status, logger)
	}
	for _, n := range m.FlaggedPages {
		applyStatus(s, n, model.StatusFlagged, logger)
	}

	s.PortfolioTag = m.PortfolioTag()
}

func applyStatus(s *model.ReviewSession, n int, status model.ReviewStatus, logger *slog.Logger) {
	page, ok := s.Page(n)
	if !ok {
		logger.Warn("reviewed page out of range", slog.Int("page", n))
		return
	}
	if page.IsUseless() {
		return
	}
	page.ReviewStatus = status
}
