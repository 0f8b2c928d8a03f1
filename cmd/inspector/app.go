package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/inspector/internal/config"
	"github.com/nao1215/inspector/internal/database"
	"github.com/nao1215/inspector/internal/inspector"
	ilog "github.com/nao1215/inspector/internal/log"
)

// app bundles what every command needs: configuration, logger, the
// inspector and the optional history database.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	insp   *inspector.Inspector

	// db is nil when history is disabled.
	db *database.ReviewDB
}

// newApp builds the app from the command's flags and configuration file.
// The history database is opened only when history is set and enabled.
// The caller must Close it.
func newApp(cmd *cobra.Command, history bool) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    cmd.OutOrStdout(),
		insp:   inspector.New(cfg, inspector.WithLogger(logger)),
	}

	if history && cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			// History is an audit trail; the review itself does not need it.
			logger.Warn("history database unavailable",
				slog.String("dir", cfg.DBDir),
				slog.String("error", err.Error()),
			)
		} else {
			a.db = db
			logger.Debug("history database opened", slog.String("path", db.Path()))
		}
	}
	return a, nil
}

// Close releases the history database.
func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// record appends a review event to the history. Failures are logged only.
func (a *app) record(ctx context.Context, s *inspector.Session, action database.Action, pages []int, detail string) {
	if a.db == nil {
		return
	}
	m := s.Model()
	_, err := a.db.RecordEvent(ctx, &database.ReviewEvent{
		Folder:   m.Folder,
		Document: m.DocumentName,
		Action:   action,
		Pages:    pages,
		Detail:   detail,
	})
	if err != nil {
		a.logger.Error("failed to record review event",
			slog.String("folder", m.Folder),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
}

// buildConfig creates a Config from the configuration file and flags.
// Flags win over the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.ConfigFilePath = flagString(cmd, "config")

	// An explicit config path must exist; a missing default file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Verbose = flagBool(cmd, "verbose")
	cfg.JSONLog = flagBool(cmd, "json-log")
	if dir := flagString(cmd, "db-dir"); dir != "" {
		cfg.DBDir = dir
	}
	if flagBool(cmd, "no-history") {
		cfg.SaveHistory = false
	}
	return cfg, nil
}

// setupLogger creates the structured logger for the configuration.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if cfg.JSONLog {
		return ilog.NewJSONLogger(w, cfg.Verbose)
	}
	return ilog.NewLogger(w, cfg.Verbose)
}

// flagBool reads a boolean flag from the command or the root's persistent flags.
func flagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// flagString reads a string flag from the command or the root's persistent flags.
func flagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// openFolder opens a document folder and closes the app on failure.
func openFolder(cmd *cobra.Command, folder string, history bool) (*app, *inspector.Session, error) {
	a, err := newApp(cmd, history)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.insp.Open(folder)
	if err != nil {
		_ = a.Close() //nolint:errcheck // the open error is the one to report
		return nil, nil, err
	}
	return a, s, nil
}

// saveSession saves the session and reports the outcome.
func (a *app) saveSession(s *inspector.Session) error {
	res, err := a.insp.Save(s)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", s.Model().Folder, err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d file(s) written, %d unchanged)\n",
		s.Model().Folder, len(res.Written), len(res.Unchanged))
	return nil
}

var errNoPages = errors.New("no page numbers given")
