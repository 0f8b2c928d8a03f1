// Package log builds the slog loggers of the inspector.
//
// The Handler wrapper keeps log lines readable and safe to share:
//   - long string values (page content, raw JSON) are cut to a bounded length
//   - values under credential-like keys (api_key, token, password) are masked,
//     since pipeline metadata copied next to a document may carry them
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
