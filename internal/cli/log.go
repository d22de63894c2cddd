// Package cli implements the llumina command-line interface.
//
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library. Every command works on one project file,
// selected with --project (default llumina.toml).
//
// # Commands
//
// The main commands are:
//   - init: Create a project file next to a photo
//   - render: Compose a still frame for a day and counter
//   - mask: Write the bare reveal mask
//   - export: Render the count-up animation (PNG sequence, APNG or GIF)
//   - serve: Serve live previews over HTTP
//   - preview: Scrub the reveal interactively in the terminal
//   - day: List, record and delete day counts
//   - cache: Manage the frame cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Exported 180 frames (1.234s)"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg+" ("+p.elapsed().String()+")", keyvals...)
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
