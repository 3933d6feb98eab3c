package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// console receives records when Setup gets no file. Stdout is left to the
// export subcommand.
var console io.Writer = os.Stderr

const (
	otelScope  = "gaze-watcher"
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider

	context ContextProvider
	extra   []slog.Handler
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// WithContext makes every record carry p's attributes. It applies from the
// next Setup call.
func (m *SlogManager) WithContext(p ContextProvider) *SlogManager {
	m.context = p
	return m
}

// WithHandlers adds sinks (Graylog, ...) that receive every record. They
// apply from the next Setup call.
func (m *SlogManager) WithHandlers(handlers ...slog.Handler) *SlogManager {
	m.extra = append(m.extra, handlers...)
	return m
}

// parseLevel accepts the slog level names in any case. Anything else is
// info.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.TimeKey || len(groups) > 0 {
				return a
			}
			if t, ok := a.Value.Any().(time.Time); ok {
				a.Value = slog.StringValue(t.UTC().Format(timeLayout))
			}
			return a
		},
	}
}

// Setup (re)builds the logger. Records go to file, or to stderr when file
// is nil. A nil provider disables the OTel bridge.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	out := file
	if out == nil {
		out = console
	}
	sinks := []slog.Handler{slog.NewTextHandler(out, handlerOptions(lvl))}
	if provider != nil {
		sinks = append(sinks, otelslog.NewHandler(otelScope, otelslog.WithLoggerProvider(provider)))
	}
	sinks = append(sinks, m.extra...)

	m.logger = slog.New(newFanout(m.context, sinks...))
	m.logger.Debug("Logging initialized", "level", lvl.String(), "sinks", len(sinks))
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog logs data at level, tagged with the function that raised it.
// It is a no-op before Setup.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
