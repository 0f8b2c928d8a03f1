package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/inspector/internal/batch"
	"github.com/nao1215/inspector/internal/inspector"
)

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <dir...>",
		Short: "Summarize the review progress of many document folders",
		Long: `Summary loads every document folder found in the given directories and
prints one line of review progress per folder. A directory that is itself a
document folder is summarized directly; otherwise its direct subdirectories
are searched. Folders are loaded concurrently and nothing is written.

Examples:
  inspector summary ./outputs
  inspector summary --batch 8 --json ./outputs ./archive`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSummaryCmd,
	}
	cmd.Flags().IntP("batch", "b", 0,
		"Number of folders loaded concurrently (default: batchSize of the configuration)")
	cmd.Flags().BoolP("json", "j", false, "Output the summaries as JSON")
	return cmd
}

func runSummaryCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	batchSize, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()
	if batchSize <= 0 {
		batchSize = a.cfg.BatchSize
	}

	var folders []string
	for _, dir := range args {
		found, err := batch.Discover(dir, a.cfg.Layout())
		if err != nil {
			return err
		}
		folders = append(folders, found...)
	}
	if len(folders) == 0 {
		fmt.Fprintln(a.out, "No document folders found.")
		return nil
	}

	ctx, cancel := signal.NotifyContext(recordContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := batch.NewProcessor(a.insp.Summarize,
		batch.WithConcurrency(batchSize),
		batch.WithLogger(a.logger),
	)
	summaries, err := p.Process(ctx, folders)
	if err != nil {
		if ctx.Err() != nil {
			a.logger.Warn("summary cancelled", slog.String("error", err.Error()))
		}
		return err
	}

	if jsonOutput {
		return writeJSON(a.out, summaryRows(summaries))
	}
	printSummaries(a.out, summaries)
	return nil
}

// summaryRow is the JSON form of a summary, with the failure as text.
type summaryRow struct {
	*inspector.Summary
	Error string `json:"error,omitempty"`
}

func summaryRows(summaries []*inspector.Summary) []summaryRow {
	rows := make([]summaryRow, 0, len(summaries))
	for _, sum := range summaries {
		row := summaryRow{Summary: sum}
		if sum.Err != nil {
			row.Error = sum.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// printSummaries writes one line per folder.
func printSummaries(w io.Writer, summaries []*inspector.Summary) {
	failed := 0
	fmt.Fprintf(w, "  %-32s  %-6s  %s\n", "Document", "Pages", "Progress")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))
	for _, sum := range summaries {
		if sum.Err != nil {
			failed++
			fmt.Fprintf(w, "  %-32s  %-6s  error: %v\n", sum.Folder, "-", sum.Err)
			continue
		}
		name := sum.Document
		if sum.Portfolio != "" {
			name += " [" + sum.Portfolio + "]"
		}
		fmt.Fprintf(w, "  %-32s  %-6d  %s\n", name, sum.Counts.TotalPages, formatProgress(sum))
	}
	fmt.Fprintf(w, "\n%d folder(s)", len(summaries))
	if failed > 0 {
		fmt.Fprintf(w, ", %d failed to load", failed)
	}
	fmt.Fprintln(w)
}

