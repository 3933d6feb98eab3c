package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/database"
	gormstorage "github.com/OCAP2/gaze/internal/storage/gorm"
	v1 "github.com/OCAP2/gaze/internal/storage/memory/export/v1"
	"github.com/OCAP2/gaze/pkg/core"
)

var testStart = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func TestHttpToWS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:5000", "ws://localhost:5000"},
		{"https://gaze.example.com/", "wss://gaze.example.com"},
		{"ws://already", "ws://already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpToWS(tt.in), tt.in)
	}
}

func TestResolveStorageConfig(t *testing.T) {
	t.Run("sqlite path defaults to logs dir", func(t *testing.T) {
		cfg := resolveStorageConfig(config.StorageConfig{Type: "sqlite"}, "logs", testStart)
		assert.Equal(t, filepath.Join("logs", "gaze_20260410_080000.db"), cfg.SQLite.Path)
	})

	t.Run("explicit sqlite path kept", func(t *testing.T) {
		in := config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: "x.db"}}
		assert.Equal(t, "x.db", resolveStorageConfig(in, "logs", testStart).SQLite.Path)
	})

	t.Run("websocket url from upload server", func(t *testing.T) {
		in := config.StorageConfig{
			Type:   "websocket",
			Upload: config.UploadConfig{ServerURL: "https://gaze.example.com/", APIKey: "k"},
		}
		cfg := resolveStorageConfig(in, "logs", testStart)
		assert.Equal(t, "wss://gaze.example.com/api/gaze", cfg.WebSocket.URL)
		assert.Equal(t, "k", cfg.WebSocket.Secret)
	})

	t.Run("other types untouched", func(t *testing.T) {
		in := config.StorageConfig{Type: "memory"}
		assert.Equal(t, in, resolveStorageConfig(in, "logs", testStart))
	})
}

func TestSessionSettings(t *testing.T) {
	camera := sessionSettings(config.CaptureConfig{Source: "camera", Device: 2, Preview: true})
	assert.Equal(t, map[string]string{"device": "2", "preview": "true"}, camera)

	replay := sessionSettings(config.CaptureConfig{
		Source:     "replay",
		ReplayFile: filepath.Join("data", "run1.jsonl"),
		RecordFile: filepath.Join("out", "rec.jsonl"),
	})
	assert.Equal(t, map[string]string{
		"preview":    "false",
		"replayFile": "run1.jsonl",
		"realtime":   "false",
		"recordFile": "rec.jsonl",
	}, replay)
}

func TestNewSession(t *testing.T) {
	s := newSession(
		config.GazeConfig{YawThreshold: 0.1, PitchThreshold: 0.4, MinSendInterval: 250 * time.Millisecond},
		config.CaptureConfig{},
		testStart,
	)
	assert.Equal(t, "camera", s.Source)
	assert.Equal(t, CurrentVersion, s.Version)
	assert.Equal(t, 0.1, s.YawThreshold)
	assert.Equal(t, 0.4, s.PitchThreshold)
	assert.Equal(t, 250*time.Millisecond, s.MinInterval)
	assert.Equal(t, testStart, s.StartTime)
	assert.Equal(t, "0", s.Settings["device"])
}

func TestParseFlags_BindsCaptureSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir, err := parseFlags([]string{"--config", "/etc/gaze", "--source", "replay", "--replay", "a.jsonl", "--preview=false"})
	require.NoError(t, err)
	assert.Equal(t, "/etc/gaze", dir)
	assert.Equal(t, "replay", viper.GetString("capture.source"))
	assert.Equal(t, "a.jsonl", viper.GetString("capture.replayFile"))
	assert.False(t, viper.GetBool("capture.preview"))
}

func TestParseFlags_Unknown(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := parseFlags([]string{"--nope"})
	assert.Error(t, err)
}

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestInputsClose_ReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	in := &inputs{}
	in.closers = append(in.closers,
		closeRecorder{"camera", &order, nil},
		closeRecorder{"sidecar", &order, boom},
		closeRecorder{"window", &order, nil},
	)

	err := in.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"window", "sidecar", "camera"}, order)
}

// writeDump stores one finished session in a sqlite file.
func writeDump(t *testing.T) (string, *core.Session) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gaze.db")
	db, err := database.GetSqliteDB(path)
	require.NoError(t, err)

	b := gormstorage.New(gormstorage.Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	s := core.NewSession("replay", testStart)
	s.Host = "bench"
	s.YawThreshold = 0.08
	s.PitchThreshold = 0.5
	s.MinInterval = 100 * time.Millisecond
	require.NoError(t, b.StartSession(s))

	require.NoError(t, b.RecordTransition(&core.Transition{
		Seq:     3,
		Time:    testStart.Add(200 * time.Millisecond),
		Message: core.MessageLookingAway,
	}))
	require.NoError(t, b.RecordTransition(&core.Transition{
		Seq:          9,
		Time:         testStart.Add(600 * time.Millisecond),
		Message:      core.MessageLooking,
		FaceDetected: true,
	}))
	require.NoError(t, b.RecordFrameStats(&core.FrameStats{
		WindowStart: testStart,
		WindowEnd:   testStart.Add(time.Second),
		Frames:      30,
		AwayCount:   12,
	}))

	s.EndTime = testStart.Add(time.Second)
	require.NoError(t, b.EndSession(s))
	require.NoError(t, b.Close())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return path, s
}

func TestRunExport_ListsSessions(t *testing.T) {
	path, s := writeDump(t)

	var out bytes.Buffer
	require.NoError(t, runExport([]string{path}, &out))
	assert.Contains(t, out.String(), "ID")
	assert.Contains(t, out.String(), s.ID.String())
	assert.Contains(t, out.String(), "bench")
	assert.Contains(t, out.String(), "1s")
}

func TestRunExport_WritesSession(t *testing.T) {
	path, s := writeDump(t)

	var out bytes.Buffer
	require.NoError(t, runExport([]string{path, s.ID.String()}, &out))

	var export v1.Export
	require.NoError(t, json.Unmarshal(out.Bytes(), &export))
	assert.Equal(t, v1.FormatVersion, export.FormatVersion)
	assert.Equal(t, s.ID.String(), export.SessionID)
	assert.Equal(t, int64(1000), export.DurationMs)
	require.Len(t, export.Transitions, 2)
	assert.Equal(t, int64(200), export.Transitions[0].OffsetMs)
	assert.Equal(t, "LOOKING_AWAY", export.Transitions[0].Message)
	require.Len(t, export.Windows, 1)
	assert.Equal(t, uint32(30), export.Windows[0].Frames)
}

func TestRunExport_OutputFile(t *testing.T) {
	path, s := writeDump(t)
	outPath := filepath.Join(t.TempDir(), "export.json")

	var out bytes.Buffer
	require.NoError(t, runExport([]string{path, s.ID.String(), "-o", outPath}, &out))
	assert.Zero(t, out.Len())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), s.ID.String())
}

func TestRunExport_Errors(t *testing.T) {
	path, _ := writeDump(t)

	assert.Error(t, runExport(nil, &bytes.Buffer{}))
	assert.Error(t, runExport([]string{filepath.Join(t.TempDir(), "missing.db")}, &bytes.Buffer{}))
	assert.Error(t, runExport([]string{path, "not-a-uuid"}, &bytes.Buffer{}))
	assert.ErrorContains(t, runExport([]string{path, "6f1c2d3e-0000-4000-8000-000000000000"}, &bytes.Buffer{}), "not found")
}
