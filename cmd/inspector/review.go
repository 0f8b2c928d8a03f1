package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/inspector/internal/database"
	"github.com/nao1215/inspector/internal/inspector"
	"github.com/nao1215/inspector/internal/model"
)

// NewStatusCmds creates the approve, flag and discard commands.
func NewStatusCmds() []*cobra.Command {
	return []*cobra.Command{
		newPageActionCmd("approve", database.ActionApprove,
			"Mark pages approved",
			`Approve marks pages as reviewed and correct. An approved page loses its flag.`,
			(*inspector.Session).Approve),
		newPageActionCmd("flag", database.ActionFlag,
			"Flag pages for later review",
			`Flag marks pages that need another look. A flagged page loses its approval.`,
			(*inspector.Session).Flag),
		newPageActionCmd("discard", database.ActionDiscard,
			"Discard pages as useless",
			`Discard overwrites every field of the pages with the useless marker and
records them in the metadata file. Discarding cannot be undone.`,
			(*inspector.Session).Discard),
	}
}

func newPageActionCmd(
	name string,
	action database.Action,
	short, long string,
	apply func(*inspector.Session, int) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <folder> <pages...>",
		Short: short,
		Long: long + `

Pages are 1-based and may be given as lists and ranges. The folder is
saved after every page was changed; nothing is saved when a page fails.

Examples:
  inspector ` + name + ` ./report_20240101_120000 3
  inspector ` + name + ` ./report_20240101_120000 1,2 5-7`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := parsePages(args[1:])
			if err != nil {
				return err
			}
			return mutate(cmd, args[0], action, pages, "", func(s *inspector.Session) error {
				var errs []error
				for _, n := range pages {
					errs = append(errs, apply(s, n))
				}
				return errors.Join(errs...)
			})
		},
	}
}

// mutate opens a folder, applies fn, saves and records the action.
func mutate(
	cmd *cobra.Command,
	folder string,
	action database.Action,
	pages []int,
	detail string,
	fn func(*inspector.Session) error,
) error {
	a, s, err := openFolder(cmd, folder, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(s); err != nil {
		return err
	}
	if err := a.saveSession(s); err != nil {
		return err
	}
	a.record(recordContext(cmd), s, action, pages, detail)
	return nil
}

// NewTagCmd creates the tag command.
func NewTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <folder> [tag]",
		Short: "Set or clear the portfolio tag",
		Long: `Tag sets the document-level portfolio tag. A blank tag or --clear removes it.

Examples:
  inspector tag ./report_20240101_120000 "Fund III"
  inspector tag --clear ./report_20240101_120000`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearTag, err := cmd.Flags().GetBool("clear")
			if err != nil {
				return err
			}
			tag := ""
			if len(args) == 2 {
				tag = args[1]
			}
			if tag == "" && !clearTag {
				return errors.New("a tag is required (use --clear to remove the tag)")
			}
			if clearTag {
				tag = ""
			}
			return mutate(cmd, args[0], database.ActionTag, nil, tag, func(s *inspector.Session) error {
				s.SetPortfolio(tag)
				return nil
			})
		},
	}
	cmd.Flags().Bool("clear", false, "Remove the portfolio tag")
	return cmd
}

// NewEditCmd creates the edit command.
func NewEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <folder> <page>",
		Short: "Edit the text fields of a page",
		Long: `Edit replaces the title, summary, content or keywords of one page.
Only the given fields change. Discarded pages and missing-page placeholders
cannot be edited.

A page with a first-pass rendering shows the rendering until the document
is reviewed (any page approved, flagged or discarded, or a portfolio tag).
Content edits of such a page are refused before that point, because the
next load would replace them with the rendering.

Examples:
  inspector edit ./report_20240101_120000 4 --title "Balance sheet"
  inspector edit ./report_20240101_120000 4 --keywords assets,liabilities
  inspector edit ./report_20240101_120000 4 --content-file fixed.md`,
		Args: cobra.ExactArgs(2),
		RunE: runEditCmd,
	}
	cmd.Flags().String("title", "", "New page title")
	cmd.Flags().String("summary", "", "New page summary")
	cmd.Flags().String("content", "", "New page content")
	cmd.Flags().String("content-file", "", "Read the new page content from a file")
	cmd.Flags().StringSlice("keywords", nil, "New page keywords (comma separated)")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
	return cmd
}

func runEditCmd(cmd *cobra.Command, args []string) error {
	n, err := pageNumber(args[1])
	if err != nil {
		return err
	}

	var (
		edits   []func(*inspector.Session) error
		changed []string
	)
	flags := cmd.Flags()
	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		edits = append(edits, func(s *inspector.Session) error { return s.SetTitle(n, title) })
		changed = append(changed, "title")
	}
	if flags.Changed("summary") {
		summary, _ := flags.GetString("summary")
		edits = append(edits, func(s *inspector.Session) error { return s.SetSummary(n, summary) })
		changed = append(changed, "summary")
	}
	content, hasContent, err := contentFlag(cmd)
	if err != nil {
		return err
	}
	if hasContent {
		edits = append(edits, func(s *inspector.Session) error {
			if err := s.KeepsContent(n); err != nil {
				return fmt.Errorf("%w; approve, flag or tag the document first, or edit the rendering file", err)
			}
			return s.SetContent(n, content)
		})
		changed = append(changed, "content")
	}
	if flags.Changed("keywords") {
		keywords, _ := flags.GetStringSlice("keywords")
		edits = append(edits, func(s *inspector.Session) error { return s.SetKeywords(n, keywords) })
		changed = append(changed, "keywords")
	}
	if len(edits) == 0 {
		return errors.New("nothing to edit (use --title, --summary, --content, --content-file or --keywords)")
	}

	return mutate(cmd, args[0], database.ActionEdit, []int{n}, strings.Join(changed, ","),
		func(s *inspector.Session) error {
			for _, edit := range edits {
				if err := edit(s); err != nil {
					return err
				}
			}
			return nil
		})
}

// contentFlag returns the new content from --content or --content-file.
func contentFlag(cmd *cobra.Command) (string, bool, error) {
	flags := cmd.Flags()
	if flags.Changed("content") {
		content, err := flags.GetString("content")
		return content, true, err
	}
	if !flags.Changed("content-file") {
		return "", false, nil
	}
	path, err := flags.GetString("content-file")
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-provided content file
	if err != nil {
		return "", false, fmt.Errorf("failed to read content file: %w", err)
	}
	return string(data), true, nil
}

// NewTableCmd creates the table command.
func NewTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table <folder> <page>",
		Short: "Replace or append a table of a page",
		Long: `Table reads a table from a JSON file and appends it to the page, or
replaces the table at --index (0-based). The file holds one object:

  {"title": "Revenue", "columns": ["region", "amount"],
   "rows": [{"region": "north", "amount": 10}]}

Columns are derived from the row keys when omitted. A replaced table keeps
its identifier.

Examples:
  inspector table ./report_20240101_120000 2 --file revenue.json
  inspector table ./report_20240101_120000 2 --file revenue.json --index 0`,
		Args: cobra.ExactArgs(2),
		RunE: runTableCmd,
	}
	cmd.Flags().StringP("file", "f", "", "JSON file holding the table")
	cmd.Flags().IntP("index", "i", -1, "Replace the table at this index instead of appending")
	_ = cmd.MarkFlagRequired("file") //nolint:errcheck // the flag is defined above
	return cmd
}

func runTableCmd(cmd *cobra.Command, args []string) error {
	n, err := pageNumber(args[1])
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	index, err := cmd.Flags().GetInt("index")
	if err != nil {
		return err
	}
	table, err := readTable(path)
	if err != nil {
		return err
	}

	detail := "table added"
	if index >= 0 {
		detail = fmt.Sprintf("table %d replaced", index)
	}
	return mutate(cmd, args[0], database.ActionEdit, []int{n}, detail, func(s *inspector.Session) error {
		if index >= 0 {
			return s.SetTable(n, index, table)
		}
		_, err := s.AddTable(n, table)
		return err
	})
}

// readTable decodes a table file, keeping numbers exact.
func readTable(path string) (model.TableRecord, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided table file
	if err != nil {
		return model.TableRecord{}, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var table model.TableRecord
	if err := dec.Decode(&table); err != nil {
		return model.TableRecord{}, fmt.Errorf("failed to parse table file %s: %w", path, err)
	}
	return table, nil
}

// NewSaveCmd creates the save command.
func NewSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <folder>",
		Short: "Reload and save a document folder",
		Long: `Save loads a folder and writes it back without changes. This refreshes
the document_info summary fields and the metadata file. Files that would
not change are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, args[0], database.ActionSave, nil, "", func(*inspector.Session) error {
				return nil
			})
		},
	}
}

// recordContext returns the command context or a background context.
func recordContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
