package source

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// folderTimestamp matches the _YYYYMMDD_HHMMSS suffix the pipeline appends
// to output folder names.
var folderTimestamp = regexp.MustCompile(`_\d{8}_\d{6}$`)

// CleanDocumentName removes the "temp_" upload prefix and ".pdf" suffix.
func CleanDocumentName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".pdf")
	name = strings.TrimSuffix(name, ".PDF")
	return strings.TrimPrefix(name, "temp_")
}

// DocumentName resolves the document base name: document_info.document_name
// when present, otherwise the folder name without its timestamp suffix.
func DocumentName(info map[string]any, folder string) string {
	if info != nil {
		if name := CleanDocumentName(stringValue(info["document_name"])); name != "" {
			return name
		}
	}
	base := filepath.Base(filepath.Clean(folder))
	return CleanDocumentName(folderTimestamp.ReplaceAllString(base, ""))
}

// DefaultPDFCandidates are the file names tried when looking for the source
// PDF. "{name}" is replaced by the document name.
var DefaultPDFCandidates = []string{
	"original.pdf",
	"{name}.pdf",
	"temp_{name}.pdf",
	"temp_{name}",
	"{name}",
}

// FindPDF looks for the source PDF of a document: every candidate in the
// folder first, then in each of the extra directories. It returns the first
// regular file found.
func FindPDF(folder, name string, candidates, dirs []string) (string, bool) {
	if len(candidates) == 0 {
		candidates = DefaultPDFCandidates
	}
	searchDirs := append([]string{folder}, dirs...)
	for _, dir := range searchDirs {
		for _, c := range candidates {
			file := strings.ReplaceAll(c, "{name}", name)
			if file == "" {
				continue
			}
			path := filepath.Join(dir, file)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, true
			}
		}
	}
	return "", false
}
