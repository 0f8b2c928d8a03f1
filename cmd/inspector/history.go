package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/inspector/internal/config"
	"github.com/nao1215/inspector/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [folder]",
		Short: "Show the recorded review history",
		Long: `History lists the review actions and exports recorded for a document
folder, newest first. Without a folder it lists every folder with history.

Examples:
  # List folders with recorded history
  inspector history

  # Show the last 50 actions and every export of a folder
  inspector history --limit 50 ./report_20240101_120000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of review actions to show (0 shows all)")
	cmd.Flags().BoolP("json", "j", false, "Output the history as JSON")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.SaveHistory {
		return errors.New("history is disabled (history.enabled or --no-history)")
	}

	// Reading never creates the database.
	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet.")
		return nil //nolint:nilerr // a missing database means an empty history
	}
	defer db.Close()

	ctx := recordContext(cmd)
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listFolders(ctx, out, db, jsonOutput)
	}
	return listHistory(ctx, out, db, args[0], limit, jsonOutput)
}

// listFolders lists every folder with recorded history.
func listFolders(ctx context.Context, w io.Writer, db *database.ReviewDB, jsonOutput bool) error {
	folders, err := db.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	if jsonOutput {
		return writeJSON(w, folders)
	}
	if len(folders) == 0 {
		fmt.Fprintln(w, "No history recorded yet.")
		return nil
	}

	fmt.Fprintf(w, "Folders with history (%d):\n\n", len(folders))
	for _, folder := range folders {
		fmt.Fprintf(w, "  • %s\n", folder)
	}
	fmt.Fprintln(w, "\nUse 'inspector history <folder>' to see the history of a folder.")
	return nil
}

// folderHistory is the JSON form of a folder's history.
type folderHistory struct {
	Events  []database.ReviewEvent  `json:"events"`
	Exports []database.ExportRecord `json:"exports"`
}

// listHistory prints the events and exports of one folder.
func listHistory(ctx context.Context, w io.Writer, db *database.ReviewDB, folder string, limit int, jsonOutput bool) error {
	events, err := db.ListEvents(ctx, folder, limit)
	if err != nil {
		return fmt.Errorf("failed to get review history: %w", err)
	}
	exports, err := db.ListExports(ctx, folder)
	if err != nil {
		return fmt.Errorf("failed to get export history: %w", err)
	}
	if jsonOutput {
		return writeJSON(w, folderHistory{Events: events, Exports: exports})
	}
	if len(events) == 0 && len(exports) == 0 {
		fmt.Fprintf(w, "No history found for %s\n", folder)
		return nil
	}

	fmt.Fprintf(w, "Review actions (%d):\n\n", len(events))
	fmt.Fprintf(w, "  %-19s  %-8s  %-16s  %s\n", "Date", "Action", "Pages", "Detail")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 64))
	for _, ev := range events {
		fmt.Fprintf(w, "  %-19s  %-8s  %-16s  %s\n",
			ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
			ev.Action,
			joinInts(ev.Pages),
			ev.Detail,
		)
	}

	if len(exports) > 0 {
		fmt.Fprintf(w, "\nExports (%d):\n\n", len(exports))
		for _, ex := range exports {
			status := fmt.Sprintf("%d file(s), %s", ex.Files, humanize.Bytes(uint64(ex.Bytes))) //nolint:gosec // sizes are never negative
			if ex.Failed > 0 {
				status += fmt.Sprintf(", %d failed", ex.Failed)
			}
			fmt.Fprintf(w, "  %s  %s  (%s)\n",
				humanize.Time(ex.Timestamp), ex.Directory, status)
		}
	}
	return nil
}
