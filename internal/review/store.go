package review

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/inspector/internal/model"
)

// Store applies reviewer actions to a session.
type Store struct {
	session *model.ReviewSession
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for transition records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store over session.
func NewStore(session *model.ReviewSession, opts ...Option) *Store {
	s := &Store{session: session}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Session returns the wrapped session.
func (s *Store) Session() *model.ReviewSession {
	return s.session
}

// Approve marks page n approved, clearing a flag.
func (s *Store) Approve(n int) error {
	return s.setStatus(n, model.StatusApproved)
}

// Flag marks page n for later review, clearing an approval.
func (s *Store) Flag(n int) error {
	return s.setStatus(n, model.StatusFlagged)
}

func (s *Store) setStatus(n int, status model.ReviewStatus) error {
	page, err := s.page(n)
	if err != nil {
		return err
	}
	if page.IsUseless() {
		return fmt.Errorf("%s page %d: %w", status, n, ErrPageDiscarded)
	}
	if page.ReviewStatus == status {
		return nil
	}
	s.logger.Debug("page status changed",
		slog.Int("page", n),
		slog.String("from", page.ReviewStatus.String()),
		slog.String("to", status.String()),
	)
	page.ReviewStatus = status
	return nil
}

// Discard overwrites page n with the useless marker and records it in the
// useless set. Discarding an already discarded page does nothing.
func (s *Store) Discard(n int) error {
	page, err := s.page(n)
	if err != nil {
		return err
	}
	if page.IsUseless() {
		return nil
	}
	page.MarkUseless()
	s.session.MissingPages.Remove(n)
	s.session.IncompletePages.Remove(n)
	s.session.UselessPages.Add(n)
	s.logger.Debug("page discarded", slog.Int("page", n))
	return nil
}

// SetPortfolio sets the document-level portfolio tag. A blank tag clears it.
func (s *Store) SetPortfolio(tag string) {
	s.session.PortfolioTag = strings.TrimSpace(tag)
}

// SetTitle replaces the title of page n.
func (s *Store) SetTitle(n int, title string) error {
	return s.edit(n, func(p *model.PageRecord) error {
		p.Title = title
		return nil
	})
}

// SetSummary replaces the summary of page n.
func (s *Store) SetSummary(n int, summary string) error {
	return s.edit(n, func(p *model.PageRecord) error {
		p.Summary = summary
		return nil
	})
}

// SetContent replaces the body text of page n.
func (s *Store) SetContent(n int, content string) error {
	return s.edit(n, func(p *model.PageRecord) error {
		p.Content = content
		return nil
	})
}

// SetKeywords replaces the keywords of page n. Blank keywords are dropped.
func (s *Store) SetKeywords(n int, keywords []string) error {
	return s.edit(n, func(p *model.PageRecord) error {
		out := make([]string, 0, len(keywords))
		for _, k := range keywords {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		p.Keywords = out
		return nil
	})
}

// SetTable replaces table i (0-based) of page n. The table keeps its
// persisted identifier when the replacement has none.
func (s *Store) SetTable(n, i int, table model.TableRecord) error {
	return s.edit(n, func(p *model.PageRecord) error {
		if i < 0 || i >= len(p.Tables) {
			return fmt.Errorf("page %d table %d: %w", n, i, ErrTableOutOfRange)
		}
		table = normalizeTable(table)
		if table.ID == "" {
			table.ID = p.Tables[i].ID
		}
		p.Tables[i] = table
		return nil
	})
}

// AddTable appends a table to page n and returns its index.
func (s *Store) AddTable(n int, table model.TableRecord) (int, error) {
	index := -1
	err := s.edit(n, func(p *model.PageRecord) error {
		p.Tables = append(p.Tables, normalizeTable(table))
		index = len(p.Tables) - 1
		return nil
	})
	return index, err
}

// Edited reports whether the session counts as edited.
func (s *Store) Edited() bool {
	return Edited(s.session)
}

// KeepsContent returns nil when a content edit of page n survives a save and
// reload. A page with a first-pass rendering reloads the rendering until the
// document counts as edited, so its content edits fail with ErrContentNotKept.
func (s *Store) KeepsContent(n int) error {
	page, err := s.page(n)
	if err != nil {
		return err
	}
	if page.HasRendering && !Edited(s.session) {
		return fmt.Errorf("page %d: %w", n, ErrContentNotKept)
	}
	return nil
}

// Counts returns the review summary of the session.
func (s *Store) Counts() model.ReviewCounts {
	return s.session.Counts()
}

// edit applies fn to page n after checking the page accepts edits.
func (s *Store) edit(n int, fn func(*model.PageRecord) error) error {
	page, err := s.page(n)
	if err != nil {
		return err
	}
	switch page.Classification {
	case model.ClassificationUseless:
		return fmt.Errorf("edit page %d: %w", n, ErrPageDiscarded)
	case model.ClassificationMissing:
		return fmt.Errorf("edit page %d: %w", n, ErrPlaceholderPage)
	}
	if err := fn(page); err != nil {
		return err
	}
	page.Dirty = true
	return nil
}

func (s *Store) page(n int) (*model.PageRecord, error) {
	page, ok := s.session.Page(n)
	if !ok {
		return nil, fmt.Errorf("page %d of %d: %w", n, s.session.PageCount(), ErrPageOutOfRange)
	}
	return page, nil
}

func normalizeTable(t model.TableRecord) model.TableRecord {
	t = t.Clone()
	if len(t.Columns) == 0 {
		t.Columns = model.DeriveColumns(t.Rows)
	}
	return t
}

// Edited evaluates the edited-document heuristic on a session: any page
// approved or flagged, any page discarded, or a non-blank portfolio tag.
func Edited(s *model.ReviewSession) bool {
	for _, p := range s.Pages {
		if p.ReviewStatus.IsReviewed() {
			return true
		}
	}
	return len(s.UselessPages) > 0 || s.HasPortfolio()
}
