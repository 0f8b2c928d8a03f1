package export

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/nao1215/markdown"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLength bounds the title part of a page file name.
const maxSlugLength = 60

// PageFileName returns the bundle file name of a page rendering,
// e.g. "page_03_Quarterly_Results.md".
func PageFileName(p Page) string {
	return fmt.Sprintf("page_%02d_%s.md", p.PageNumber, slug(p.Title))
}

// RenderPage renders one page as a standalone markdown file with every table row.
func RenderPage(p Page) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(fmt.Sprintf("Page %d: %s", p.PageNumber, p.Title))
	md.PlainText("")
	md.PlainTextf("**Status:** %s", statusLabel(p.ReviewStatus))
	md.PlainText("")
	md.PlainTextf("**Classification:** %s", statusLabel(p.Classification))
	md.PlainText("")
	md.PlainTextf("**Summary:** %s", p.Summary)
	md.PlainText("")
	md.PlainTextf("**Keywords:** %s", strings.Join(p.Keywords, ", "))
	md.PlainText("")

	if len(p.Tables) > 0 {
		md.H2("Tables")
		md.PlainText("")
		for _, t := range p.Tables {
			md.H3(tableTitle(t))
			md.PlainText("")
			if t.Description != "" {
				md.PlainTextf("*%s*", t.Description)
				md.PlainText("")
			}
			if len(t.Columns) > 0 && len(t.Rows) > 0 {
				writeTable(md, t, 0)
			}
		}
	}

	md.H2("Content")
	md.PlainText("")
	md.PlainText(p.RawContent)

	if err := md.Build(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// slug turns a page title into an ASCII file name component. Accents are
// stripped, every other run of non-alphanumerics becomes one underscore.
func slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pending := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			if b.Len() >= maxSlugLength {
				break
			}
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
