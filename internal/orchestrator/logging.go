package orchestrator

import (
	"context"
	"log/slog"

	"github.com/LavishGent/stormdrain/internal/types"
)

// newLogger returns slog.Default, or an slog logger that writes to l.
func newLogger(l types.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return slog.New(loggerHandler{logger: l})
}

// loggerHandler adapts a types.Logger to slog.Handler. Group names are
// flattened into dotted attribute keys.
//
//nolint:govet // Simple adapter struct - alignment optimization minimal
type loggerHandler struct {
	attrs  []slog.Attr
	logger types.Logger
	group  string
}

func (h loggerHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

//nolint:gocritic // slog.Handler interface requires passing Record by value
func (h loggerHandler) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, (len(h.attrs)+r.NumAttrs())*2)
	for _, attr := range h.attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	r.Attrs(func(attr slog.Attr) bool {
		args = append(args, h.qualify(attr.Key), attr.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, args...)
	default:
		h.logger.Debug(r.Message, args...)
	}
	return nil
}

func (h loggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	for _, attr := range attrs {
		merged = append(merged, slog.Attr{Key: h.qualify(attr.Key), Value: attr.Value})
	}
	return loggerHandler{logger: h.logger, attrs: merged, group: h.group}
}

func (h loggerHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return loggerHandler{logger: h.logger, attrs: h.attrs, group: h.qualify(name)}
}

func (h loggerHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
