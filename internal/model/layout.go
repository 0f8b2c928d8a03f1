package model

// Default on-disk names of a document folder.
const (
	DefaultConsolidatedFile = "final_output.json"
	DefaultStructuredDir    = "json_pages"
	DefaultRenderingDir     = "markdown_pages"
	DefaultMetadataFile     = "inspector_metadata.json"
)

// Layout names the files and directories of a document folder.
// Every component that reads or writes a folder takes the same Layout so a
// renamed file is renamed everywhere.
type Layout struct {
	// ConsolidatedFile is the single-file page document.
	ConsolidatedFile string

	// StructuredDir holds page_<N>.json records of the per-page schema.
	StructuredDir string

	// RenderingDir holds page_<N>.md first-pass renderings.
	RenderingDir string

	// MetadataFile is the review metadata file owned by the engine.
	MetadataFile string
}

// DefaultLayout returns the layout produced by the extraction pipeline.
func DefaultLayout() Layout {
	return Layout{
		ConsolidatedFile: DefaultConsolidatedFile,
		StructuredDir:    DefaultStructuredDir,
		RenderingDir:     DefaultRenderingDir,
		MetadataFile:     DefaultMetadataFile,
	}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	d := DefaultLayout()
	if l.ConsolidatedFile == "" {
		l.ConsolidatedFile = d.ConsolidatedFile
	}
	if l.StructuredDir == "" {
		l.StructuredDir = d.StructuredDir
	}
	if l.RenderingDir == "" {
		l.RenderingDir = d.RenderingDir
	}
	if l.MetadataFile == "" {
		l.MetadataFile = d.MetadataFile
	}
	return l
}
