package reconcile

import (
	"sort"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/source"
)

// UnknownCount is passed to Reconcile when no authoritative count exists.
const UnknownCount = -1

// Options controls content selection during reconciliation.
type Options struct {
	// PreferStored selects the content stored with the structured record over
	// the first-pass rendering for normal pages. It is set when the document
	// has been edited, so that reviewer edits are not replaced on reload.
	PreferStored bool
}

// Result is the reconciled page sequence and its bookkeeping.
type Result struct {
	// Pages has one record per page number, Pages[i].PDFPageNumber == i+1.
	Pages []*model.PageRecord

	// Mode records where the count came from.
	Mode model.CountMode

	// Missing holds the synthesized placeholder pages.
	Missing model.PageSet

	// Incomplete holds the pages without structured data.
	Incomplete model.PageSet

	// Extra lists observed page numbers above the authoritative count.
	// They are not part of Pages.
	Extra []int
}

type sourcePage struct {
	source.RawPage
}

func (p sourcePage) pageID(n int) string {
	if p.PageID != "" {
		return p.PageID
	}
	return model.PageIDFor(n)
}

// Reconcile builds the dense page sequence for count pages. A negative count
// means unknown: the highest observed page number is used instead, and
// ErrNoPages is returned when nothing was observed.
func Reconcile(raw map[int]source.RawPage, count int, opts Options) (*Result, error) {
	res := &Result{
		Mode:       model.CountAuthoritative,
		Missing:    model.NewPageSet(),
		Incomplete: model.NewPageSet(),
		Extra:      []int{},
	}

	if count < 0 {
		if len(raw) == 0 {
			return nil, ErrNoPages
		}
		res.Mode = model.CountObserved
		count = 0
		for n := range raw {
			if n > count {
				count = n
			}
		}
	}

	res.Pages = make([]*model.PageRecord, 0, count)
	for n := 1; n <= count; n++ {
		rp, ok := raw[n]
		var page *model.PageRecord
		switch {
		case !ok:
			page = missingPage(n)
			res.Missing.Add(n)
		case rp.Structured.HasData():
			page = normalPage(n, sourcePage{rp}, opts.PreferStored)
		default:
			page = incompletePage(n, sourcePage{rp})
			res.Incomplete.Add(n)
		}
		res.Pages = append(res.Pages, page)
	}

	for n := range raw {
		if n > count {
			res.Extra = append(res.Extra, n)
		}
	}
	sort.Ints(res.Extra)

	return res, nil
}

// normalPage builds the record for a page with structured data.
func normalPage(n int, raw sourcePage, preferStored bool) *model.PageRecord {
	sp := raw.Structured
	tables := make([]model.TableRecord, len(sp.Tables))
	for i, t := range sp.Tables {
		tables[i] = t.Clone()
	}
	return &model.PageRecord{
		PDFPageNumber:  n,
		PageID:         raw.pageID(n),
		Title:          sp.Title,
		Summary:        sp.Summary,
		Content:        selectContent(raw, preferStored),
		Keywords:       append([]string{}, sp.Keywords...),
		Tables:         tables,
		Classification: model.ClassificationNormal,
		ReviewStatus:   model.StatusPending,
		HasRendering:   raw.HasRendering,
	}
}

// selectContent picks the page body. An edited document keeps its stored
// content; otherwise the first-pass rendering wins when present.
func selectContent(raw sourcePage, preferStored bool) string {
	sp := raw.Structured
	if preferStored && sp.HasContent {
		return sp.Content
	}
	if raw.HasRendering {
		return raw.Rendering
	}
	return sp.Content
}
