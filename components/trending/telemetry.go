package trending

import (
	"context"
	"log/slog"
	"sort"
)

// Telemetry records trending events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SlogTelemetry writes telemetry events as structured log records.
type SlogTelemetry struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogTelemetry wraps logger; nil falls back to slog.Default().
func NewSlogTelemetry(logger *slog.Logger) *SlogTelemetry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTelemetry{logger: logger, level: slog.LevelInfo}
}

// Record logs the event with its payload as attributes. Events carrying an
// "error" key are logged at warn level.
func (t *SlogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	level := t.level
	if _, ok := payload["error"]; ok {
		level = slog.LevelWarn
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, payload[k]))
	}
	t.logger.LogAttrs(ctx, level, event, attrs...)
}
