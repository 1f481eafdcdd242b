package orchestrator

import (
	"log/slog"
	"slices"
	"testing"
)

func TestLoggerHandler(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l *slog.Logger)
		wantMsg  string
		wantArgs []any
	}{
		{
			name:     "levels and attributes pass through",
			log:      func(l *slog.Logger) { l.Warn("degraded", "backend", "redis") },
			wantMsg:  "degraded",
			wantArgs: []any{"backend", "redis"},
		},
		{
			name:     "logger attributes come first",
			log:      func(l *slog.Logger) { l.With("component", "worker").Info("started", "worker", 1) },
			wantMsg:  "started",
			wantArgs: []any{"component", "worker", "worker", int64(1)},
		},
		{
			name:     "groups prefix keys",
			log:      func(l *slog.Logger) { l.WithGroup("cache").With("entries", 3).Debug("swept", "freed", 10) },
			wantMsg:  "swept",
			wantArgs: []any{"cache.entries", int64(3), "cache.freed", int64(10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &captureLogger{}
			tt.log(newLogger(capture))

			if len(capture.msgs) != 1 || capture.msgs[0] != tt.wantMsg {
				t.Fatalf("messages = %v, want [%s]", capture.msgs, tt.wantMsg)
			}
			if !slices.Equal(capture.args[0], tt.wantArgs) {
				t.Errorf("args = %v, want %v", capture.args[0], tt.wantArgs)
			}
		})
	}
}

func TestLoggerHandlerLevels(t *testing.T) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelError + 4}
	capture := &captureLogger{}
	l := newLogger(capture)

	for _, level := range levels {
		l.Log(t.Context(), level, level.String())
	}
	if len(capture.msgs) != len(levels) {
		t.Errorf("logged %d messages, want %d", len(capture.msgs), len(levels))
	}
}

func TestNewLoggerDefault(t *testing.T) {
	if newLogger(nil) != slog.Default() {
		t.Error("newLogger(nil) is not slog.Default()")
	}
}
