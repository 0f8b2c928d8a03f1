package reconcile

import (
	"fmt"

	"github.com/nao1215/inspector/internal/model"
)

const (
	missingTitleFormat    = "Missing Data - Page %d"
	incompleteTitleFormat = "Incomplete Processing - Page %d"

	missingBodyFormat = `No extraction data exists for page %d.

The source document has this page but the extraction pipeline produced no record for it.
Compare against the source page, then flag the page for re-extraction or discard it.`

	unprocessedBodyFormat = `Page %d was recorded by the extraction pipeline but holds no data.

Neither structured data nor a first-pass rendering is available.
Enter the content from the source page, flag the page for re-extraction or discard it.`
)

// missingPage synthesizes the placeholder for a page absent from the load.
func missingPage(n int) *model.PageRecord {
	return &model.PageRecord{
		PDFPageNumber:  n,
		PageID:         model.PageIDFor(n),
		Title:          fmt.Sprintf(missingTitleFormat, n),
		Summary:        fmt.Sprintf("Page %d is missing from the extraction output.", n),
		Content:        fmt.Sprintf(missingBodyFormat, n),
		Keywords:       append([]string(nil), model.PlaceholderKeywords...),
		Tables:         []model.TableRecord{},
		Classification: model.ClassificationMissing,
		ReviewStatus:   model.StatusPending,
	}
}

// incompletePage builds the record for a page without structured data.
// The rendering is used as content when it exists.
func incompletePage(n int, raw sourcePage) *model.PageRecord {
	p := &model.PageRecord{
		PDFPageNumber:  n,
		PageID:         raw.pageID(n),
		Title:          fmt.Sprintf(incompleteTitleFormat, n),
		Tables:         []model.TableRecord{},
		Classification: model.ClassificationIncomplete,
		ReviewStatus:   model.StatusPending,
	}
	if raw.HasRendering {
		p.HasRendering = true
		p.Content = raw.Rendering
		p.Keywords = append([]string(nil), model.IncompleteKeywords...)
		p.Summary = fmt.Sprintf("Page %d has only a first-pass rendering.", n)
		return p
	}
	p.Content = fmt.Sprintf(unprocessedBodyFormat, n)
	p.Keywords = append([]string(nil), model.PlaceholderKeywords...)
	p.Summary = fmt.Sprintf("Page %d was not processed.", n)
	return p
}
