package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the inspector.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspector",
		Short: "Review and export PDF page extractions",
		Long: `The inspector reviews the page-by-page extraction of a PDF document.

It reads a document folder in either layout written by the extraction
pipeline (a consolidated final_output.json, or json_pages/ plus
markdown_pages/), fills gaps so that every physical page of the source PDF
has exactly one record, and keeps reviewer decisions (approved, flagged,
discarded pages, a portfolio tag) in the folder's metadata file.

Every command that changes a folder saves it before returning. Review
actions and exports are also recorded in a local history database unless
--no-history is given.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .inspector in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.PersistentFlags().Bool("no-history", false, "Do not record actions in the history database")

	// Add subcommands
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewStatusCmds()...)
	cmd.AddCommand(NewTagCmd())
	cmd.AddCommand(NewEditCmd())
	cmd.AddCommand(NewTableCmd())
	cmd.AddCommand(NewSaveCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewSummaryCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
