package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/inspector/internal/database"
	"github.com/nao1215/inspector/internal/export"
	"github.com/nao1215/inspector/internal/inspector"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <folder>",
		Short: "Write a final export bundle",
		Long: `Export writes a timestamped bundle directory for a document folder:

  <name>_final_<YYYYMMDD_HHMMSS>/
    <name>.pdf               source PDF, when found
    <name>_final.json        canonical document
    <name>_summary.md        review summary
    <name>_tables.xlsx       one sheet per extracted table
    pages/page_NN_<title>.md one file per page
    export_report.json       manifest with sizes and checksums
    <metadata files>         copied side-channel files

The bundle is built from the folder as it is on disk. Export never saves;
review changes are saved by the command that makes them. A file that
cannot be written is reported and the others are still written.

Examples:
  inspector export ./report_20240101_120000
  inspector export -o /srv/outputs ./report_20240101_120000`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCmd,
	}
	cmd.Flags().StringP("output", "o", "",
		"Directory the bundle is created in (default: export.dir of the configuration)")
	cmd.Flags().Bool("no-pages", false, "Do not write per-page markdown files")
	cmd.Flags().Bool("no-workbook", false, "Do not write the table workbook")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	dest, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagBool(cmd, "no-pages") {
		a.cfg.PageFiles = false
	}
	if flagBool(cmd, "no-workbook") {
		a.cfg.Workbook = false
	}
	// The toggles are read when the inspector is built.
	a.insp = inspector.New(a.cfg, inspector.WithLogger(a.logger))

	s, err := a.insp.Open(args[0])
	if err != nil {
		return err
	}

	m, exportErr := a.insp.Export(s, dest)
	if m == nil {
		if errors.Is(exportErr, export.ErrBundleExists) {
			return fmt.Errorf("%w: another export of this document ran in the same second", exportErr)
		}
		return exportErr
	}
	printManifest(a.out, m)
	a.recordExport(cmd, s, m)

	if exportErr != nil {
		return fmt.Errorf("export incomplete: %d file(s) failed: %w", len(m.Failed()), exportErr)
	}
	return nil
}

// printManifest lists the files of a bundle.
func printManifest(w io.Writer, m *export.Manifest) {
	fmt.Fprintf(w, "Exported %s to %s\n\n", m.Document, m.Directory)
	for _, f := range m.Files {
		if f.Error != "" {
			fmt.Fprintf(w, "  ✗ %-40s  %s\n", f.Path, f.Error)
			continue
		}
		fmt.Fprintf(w, "  ✓ %-40s  %s\n", f.Path, humanize.Bytes(uint64(f.Size))) //nolint:gosec // sizes are never negative
	}
	fmt.Fprintf(w, "\n%d file(s), %s\n", len(m.Written()), humanize.Bytes(uint64(m.TotalSize()))) //nolint:gosec // sizes are never negative
}

// recordExport stores the export run in the history. Failures are logged only.
func (a *app) recordExport(cmd *cobra.Command, s *inspector.Session, m *export.Manifest) {
	if a.db == nil {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		a.logger.Error("failed to encode export manifest", slog.String("error", err.Error()))
		raw = nil
	}
	_, err = a.db.RecordExport(recordContext(cmd), &database.ExportRecord{
		Folder:    s.Model().Folder,
		Document:  m.Document,
		Directory: m.Directory,
		Files:     len(m.Written()),
		Failed:    len(m.Failed()),
		Bytes:     m.TotalSize(),
		Manifest:  raw,
		Timestamp: m.ExportedAt,
	})
	if err != nil {
		a.logger.Error("failed to record export",
			slog.String("directory", m.Directory),
			slog.String("error", err.Error()),
		)
	}
}
