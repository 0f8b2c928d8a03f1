package inspector

import (
	"github.com/nao1215/inspector/internal/model"
)

// Summary is a read-only digest of a document folder.
type Summary struct {
	Folder     string             `json:"folder"`
	Document   string             `json:"document_name"`
	Schema     model.SchemaKind   `json:"source_schema"`
	CountMode  model.CountMode    `json:"page_count_mode"`
	Portfolio  string             `json:"portfolio,omitempty"`
	Counts     model.ReviewCounts `json:"counts"`
	Progress   float64            `json:"progress_percent"`
	LoadErrors int                `json:"load_errors"`
	ExtraPages []int              `json:"extra_pages"`

	// Err is set when the folder could not be opened.
	Err error `json:"-"`
}

// Summarize opens a folder and digests it without writing anything.
func (in *Inspector) Summarize(folder string) (*Summary, error) {
	s, err := in.Open(folder)
	if err != nil {
		return nil, err
	}
	return NewSummary(s.Model()), nil
}

// NewSummary digests a review session.
func NewSummary(s *model.ReviewSession) *Summary {
	counts := s.Counts()
	extra := append([]int{}, s.ExtraPages...)
	return &Summary{
		Folder:     s.Folder,
		Document:   s.DocumentName,
		Schema:     s.Kind,
		CountMode:  s.CountMode,
		Portfolio:  s.PortfolioTag,
		Counts:     counts,
		Progress:   counts.Progress(),
		LoadErrors: len(s.LoadErrors),
		ExtraPages: extra,
	}
}
