package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nao1215/inspector/internal/model"
)

// Discover returns root itself when it is a document folder, otherwise its
// direct subdirectories that are document folders, sorted by path.
func Discover(root string, layout model.Layout) ([]string, error) {
	layout = layout.WithDefaults()
	if IsDocumentFolder(root, layout) {
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}
	folders := make([]string, 0)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if IsDocumentFolder(dir, layout) {
			folders = append(folders, dir)
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// IsDocumentFolder reports whether dir holds either recognized layout. It
// only checks names; the content is validated on load.
func IsDocumentFolder(dir string, layout model.Layout) bool {
	if info, err := os.Stat(filepath.Join(dir, layout.ConsolidatedFile)); err == nil && info.Mode().IsRegular() {
		return true
	}
	return isDir(filepath.Join(dir, layout.StructuredDir)) && isDir(filepath.Join(dir, layout.RenderingDir))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
