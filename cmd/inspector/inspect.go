package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/inspector/internal/export"
	"github.com/nao1215/inspector/internal/inspector"
	"github.com/nao1215/inspector/internal/model"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <folder>",
		Short: "Show the reconciled pages of a document folder",
		Long: `Inspect loads a document folder and prints its reconciled page list with
review statuses, classifications and the problems found while loading.
Nothing is written.

Examples:
  # Human-readable page list
  inspector inspect ./report_20240101_120000

  # The canonical export document as JSON
  inspector inspect --json ./report_20240101_120000

  # The review summary as Markdown
  inspector inspect --markdown ./report_20240101_120000`,
		Args: cobra.ExactArgs(1),
		RunE: runInspectCmd,
	}
	cmd.Flags().BoolP("json", "j", false,
		"Output the canonical document as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the review summary as Markdown (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	a, s, err := openFolder(cmd, args[0], false)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case jsonOutput:
		doc := export.NewDocument(s.Model(), time.Now(), s.Model().SourcePDF)
		_, err = export.NewJSONWriter(a.out, export.WithPrettyPrint()).Write(doc)
		return err
	case markdownOutput:
		doc := export.NewDocument(s.Model(), time.Now(), s.Model().SourcePDF)
		_, err = export.NewMarkdownWriter(a.out).Write(doc)
		return err
	default:
		printSession(a.out, s.Model())
		return nil
	}
}

// printSession writes the human-readable page list.
func printSession(w io.Writer, s *model.ReviewSession) {
	sum := inspector.NewSummary(s)

	fmt.Fprintf(w, "Document: %s\n", s.DocumentName)
	fmt.Fprintf(w, "Folder:   %s\n", s.Folder)
	fmt.Fprintf(w, "Layout:   %s\n", s.Kind)
	pdf := s.SourcePDF
	if pdf == "" {
		pdf = "not found"
	}
	fmt.Fprintf(w, "PDF:      %s (%s page count)\n", pdf, s.CountMode)
	if s.HasPortfolio() {
		fmt.Fprintf(w, "Tag:      %s\n", s.PortfolioTag)
	}
	fmt.Fprintf(w, "Progress: %s\n\n", formatProgress(sum))

	fmt.Fprintf(w, "  %-5s  %-9s  %-10s  %-6s  %s\n", "Page", "Status", "Kind", "Tables", "Title")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 64))
	for _, p := range s.Pages {
		fmt.Fprintf(w, "  %-5d  %-9s  %-10s  %-6d  %s\n",
			p.PDFPageNumber, p.ReviewStatus, p.Classification, p.TableCount(), p.Title)
	}

	if len(s.ExtraPages) > 0 {
		fmt.Fprintf(w, "\nIgnored pages beyond the PDF page count: %s\n", joinInts(s.ExtraPages))
	}
	if len(s.LoadErrors) > 0 {
		fmt.Fprintf(w, "\nLoad errors (%d):\n", len(s.LoadErrors))
		for _, err := range s.LoadErrors {
			fmt.Fprintf(w, "  • %v\n", err)
		}
	}
}

// formatProgress formats the review counts of a summary on one line.
func formatProgress(sum *inspector.Summary) string {
	c := sum.Counts
	parts := []string{
		fmt.Sprintf("%.1f%% (%d/%d reviewed)", sum.Progress, c.Approved+c.Flagged, c.TotalPages),
		fmt.Sprintf("A:%d F:%d P:%d", c.Approved, c.Flagged, c.Pending),
	}
	var gaps []string
	if c.Missing > 0 {
		gaps = append(gaps, fmt.Sprintf("missing:%d", c.Missing))
	}
	if c.Incomplete > 0 {
		gaps = append(gaps, fmt.Sprintf("incomplete:%d", c.Incomplete))
	}
	if c.Useless > 0 {
		gaps = append(gaps, fmt.Sprintf("useless:%d", c.Useless))
	}
	if len(gaps) > 0 {
		parts = append(parts, strings.Join(gaps, " "))
	}
	return strings.Join(parts, "  ")
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
