// Package config holds process-wide settings and the logging setup
// shared by cmd/hub and cmd/node (spec.md §2 "glue/config").
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// multiHandler fans out one log record to several slog.Handlers, so a
// single logger can write structured JSON to a file and a human-readable
// line to stdout at the same time.
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) *multiHandler {
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return fmt.Errorf("multiHandler: %w", err)
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return newMultiHandler(next...)
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return newMultiHandler(next...)
}

// SetupLogging builds a logger that writes structured JSON to logPath
// (truncated on open) and a human-readable text stream to stdout. An
// empty logPath skips the file handler — stdout only.
func SetupLogging(logPath string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	stdout := slog.NewTextHandler(os.Stdout, opts)

	if logPath == "" {
		return slog.New(stdout), nil
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("config.SetupLogging: open %q: %w", logPath, err)
	}
	jsonHandler := slog.NewJSONHandler(f, opts)
	return slog.New(newMultiHandler(stdout, jsonHandler)), nil
}

// DiscardLogger returns a logger that drops every record. Packages that
// accept an optional *slog.Logger fall back to this instead of guarding
// every call site with a nil check.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
