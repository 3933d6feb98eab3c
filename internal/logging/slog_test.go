package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSetup_WritesToFileOnly(t *testing.T) {
	var stderr bytes.Buffer
	orig := console
	console = &stderr
	t.Cleanup(func() { console = orig })

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil)
	m.Logger().Info("frame loop started")

	assert.Contains(t, file.String(), "msg=\"frame loop started\"")
	assert.Empty(t, stderr.String())
}

func TestSetup_NoFileFallsBackToConsole(t *testing.T) {
	var stderr bytes.Buffer
	orig := console
	console = &stderr
	t.Cleanup(func() { console = orig })

	m := NewSlogManager()
	m.Setup(nil, "info", nil)
	m.Logger().Info("waiting for sidecar")

	assert.Contains(t, stderr.String(), "waiting for sidecar")
}

func TestSetup_LevelFilter(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)

			m.Logger().Debug("per-frame detail")
			m.Logger().Info("state changed")

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "per-frame detail"))
			assert.Contains(t, buf.String(), "state changed")
		})
	}
}

func TestSetup_RebuildSwitchesOutput(t *testing.T) {
	var early, late bytes.Buffer
	m := NewSlogManager()

	m.Setup(&early, "info", nil)
	m.Logger().Info("before config")
	m.Setup(&late, "info", nil)
	m.Logger().Info("after config")

	assert.Contains(t, early.String(), "before config")
	assert.NotContains(t, early.String(), "after config")
	assert.Contains(t, late.String(), "after config")
}

func TestSetup_TimeIsUTCMillis(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)
	m.Logger().Info("tick")

	line := buf.String()
	require.True(t, strings.HasPrefix(line, "time="))
	stamp := strings.Fields(line)[0][len("time="):]
	_, err := time.Parse(timeLayout, stamp)
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(stamp, "Z"))
}

func TestSetup_ContextAndExtraHandlers(t *testing.T) {
	var file, extra bytes.Buffer
	state := "LOOKING"

	m := NewSlogManager().
		WithContext(AttrsFunc(func() []slog.Attr { return []slog.Attr{slog.String("state", state)} })).
		WithHandlers(slog.NewJSONHandler(&extra, nil))
	m.Setup(&file, "info", nil)

	m.Logger().Info("first")
	state = "LOOKING_AWAY"
	m.Logger().Info("second")

	assert.Contains(t, file.String(), "msg=first state=LOOKING\n")
	assert.Contains(t, file.String(), "msg=second state=LOOKING_AWAY\n")
	assert.Contains(t, extra.String(), `"state":"LOOKING_AWAY"`)
}

func TestSetup_WithOTelProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", provider)
	m.Logger().Info("bridged")

	assert.Contains(t, buf.String(), "bridged")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
	assert.NoError(t, NewSlogManager().Flush(context.Background()))
}

func TestWriteLog(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "debug", nil)

	m.WriteLog(":DB:WRITER:", "flush failed", "ERROR")
	m.WriteLog("sqlite:dump", "dumped", "debug")
	m.WriteLog("worker", "odd level", "loud")

	out := buf.String()
	assert.Contains(t, out, `level=ERROR msg="flush failed" function=:DB:WRITER:`)
	assert.Contains(t, out, `level=DEBUG msg=dumped function=sqlite:dump`)
	assert.Contains(t, out, `level=INFO msg="odd level" function=worker`)

	// no-op before Setup
	NewSlogManager().WriteLog("fn", "data", "info")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"Info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewGraylogHandler_SendsPackets(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	h, closer, err := NewGraylogHandler(pc.LocalAddr().String(), "gaze-watcher", "info")
	require.NoError(t, err)
	defer closer.Close()

	slog.New(h).Info("state changed", "message", "LOOKING_AWAY")

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestNewGraylogHandler_BadAddress(t *testing.T) {
	_, _, err := NewGraylogHandler("not-an-address", "", "info")
	assert.Error(t, err)
}
