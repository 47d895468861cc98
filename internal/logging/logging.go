// Package logging provides structured logging configuration using log/slog.
//
// Setup is called once at startup. Request-scoped attributes (request id,
// acting member) are attached to a context with AppendCtx and emitted by every
// *Context logging call made with that context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Good-for-good/goodforgood-sub000/internal/config"
)

// CloseFunc releases logging resources. Safe to call for stdout/stderr.
type CloseFunc func() error

// Setup creates a configured slog.Logger based on LoggingConfig.
// fallbackWriter is used for stdout/stderr and when a log file cannot be opened.
// The returned CloseFunc closes the log file, if one was opened.
func Setup(cfg config.LoggingConfig, fallbackWriter io.Writer) (*slog.Logger, CloseFunc) {
	level := parseLevel(cfg.Level)
	writer, closer := openWriter(cfg.Output, fallbackWriter)
	handler := &contextHandler{Handler: createHandler(cfg.Format, writer, level)}
	return slog.New(handler), closer
}

// SetupDefault creates a logger, sets it as the slog default, and returns its cleanup function.
func SetupDefault(cfg config.LoggingConfig) CloseFunc {
	logger, closer := Setup(cfg, os.Stdout)
	slog.SetDefault(logger)
	return closer
}

type ctxAttrsKey struct{}

// AppendCtx returns a child context carrying attr in addition to any
// attributes already attached to ctx.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	existing, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

// contextHandler adds attributes stored by AppendCtx to each record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openWriter returns the writer for output and a cleanup function.
// overrideWriter, if non-nil, replaces stdout/stderr (useful for testing).
func openWriter(output string, overrideWriter io.Writer) (io.Writer, CloseFunc) {
	noopCloser := func() error { return nil }
	fallback := overrideWriter
	if fallback == nil {
		fallback = os.Stdout
	}

	switch strings.ToLower(output) {
	case "stdout", "":
		return fallback, noopCloser
	case "stderr":
		if overrideWriter != nil {
			return overrideWriter, noopCloser
		}
		return os.Stderr, noopCloser
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) //nolint:gosec // G304: path comes from config, not untrusted input
		if err != nil {
			slog.Warn("failed to open log file, falling back",
				"path", output,
				"error", err,
			)
			return fallback, noopCloser
		}
		return file, file.Close
	}
}

func createHandler(format string, writer io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "text" {
		return slog.NewTextHandler(writer, opts)
	}
	return slog.NewJSONHandler(writer, opts)
}
