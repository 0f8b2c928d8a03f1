package config

// File represents the structure of the .inspector configuration file.
// Every field is optional; unset fields keep the current value.
type File struct {
	Layout  LayoutFile  `yaml:"layout,omitempty"`
	PDF     PDFFile     `yaml:"pdf,omitempty"`
	Export  ExportFile  `yaml:"export,omitempty"`
	History HistoryFile `yaml:"history,omitempty"`

	// BatchSize overrides the number of folders summarized concurrently.
	BatchSize int `yaml:"batchSize,omitempty"`
}

// LayoutFile overrides the document folder layout.
type LayoutFile struct {
	ConsolidatedFile string `yaml:"consolidatedFile,omitempty"`
	StructuredDir    string `yaml:"structuredDir,omitempty"`
	RenderingDir     string `yaml:"renderingDir,omitempty"`
	MetadataFile     string `yaml:"metadataFile,omitempty"`
}

// PDFFile overrides source PDF discovery.
type PDFFile struct {
	Candidates []string `yaml:"candidates,omitempty"`
	Dirs       []string `yaml:"dirs,omitempty"`

	// MaxSize is in bytes. Nil keeps the current limit, zero disables it.
	MaxSize *int64 `yaml:"maxSize,omitempty"`
}

// ExportFile overrides export bundle options.
type ExportFile struct {
	Dir       string   `yaml:"dir,omitempty"`
	SideFiles []string `yaml:"sideFiles,omitempty"`
	PageFiles *bool    `yaml:"pageFiles,omitempty"`
	Workbook  *bool    `yaml:"workbook,omitempty"`
}

// HistoryFile overrides the review history database.
type HistoryFile struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// Apply merges the file into the configuration. Set values win.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}

	setString(&c.ConsolidatedFile, f.Layout.ConsolidatedFile)
	setString(&c.StructuredDir, f.Layout.StructuredDir)
	setString(&c.RenderingDir, f.Layout.RenderingDir)
	setString(&c.MetadataFile, f.Layout.MetadataFile)

	if len(f.PDF.Candidates) > 0 {
		c.PDFCandidates = f.PDF.Candidates
	}
	if len(f.PDF.Dirs) > 0 {
		c.PDFDirs = f.PDF.Dirs
	}
	if f.PDF.MaxSize != nil {
		c.MaxPDFSize = *f.PDF.MaxSize
	}

	setString(&c.ExportDir, f.Export.Dir)
	if len(f.Export.SideFiles) > 0 {
		c.SideFiles = f.Export.SideFiles
	}
	if f.Export.PageFiles != nil {
		c.PageFiles = *f.Export.PageFiles
	}
	if f.Export.Workbook != nil {
		c.Workbook = *f.Export.Workbook
	}

	if f.History.Enabled != nil {
		c.SaveHistory = *f.History.Enabled
	}
	setString(&c.DBDir, f.History.Dir)

	if f.BatchSize != 0 {
		c.BatchSize = f.BatchSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
