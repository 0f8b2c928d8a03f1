package source

import (
	"errors"
	"fmt"
	"os"
)

// Document is the generic form of a consolidated file. Unknown fields are
// kept so a writer can update the engine-owned fields and leave the rest.
type Document struct {
	// Root is the top-level object. It is nil for the bare-list variant.
	Root map[string]any

	// Pages are the page entries in file order.
	Pages []any
}

// Bare reports whether the file was a bare pages array.
func (d *Document) Bare() bool {
	return d.Root == nil
}

// Info returns the document_info object, or nil.
func (d *Document) Info() map[string]any {
	if d.Root == nil {
		return nil
	}
	info, _ := d.Root["document_info"].(map[string]any)
	return info
}

// errNoPagesArray is the reason a JSON file is not a consolidated document.
var errNoPagesArray = errors.New("no pages array")

// DecodeDocument parses a consolidated file. The object form must carry a
// "pages" array; a top-level array is the bare-list variant.
func DecodeDocument(data []byte) (*Document, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []any:
		return &Document{Pages: x}, nil
	case map[string]any:
		pages, ok := x["pages"].([]any)
		if !ok {
			return nil, errNoPagesArray
		}
		return &Document{Root: x, Pages: pages}, nil
	default:
		return nil, errNoPagesArray
	}
}

// ReadDocument reads and parses a consolidated file.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
	if err != nil {
		return nil, err
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
