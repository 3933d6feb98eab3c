package worker

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/dispatcher"
	"github.com/OCAP2/gaze/internal/influx"
	"github.com/OCAP2/gaze/internal/logging"
	"github.com/OCAP2/gaze/internal/storage/memory"
	"github.com/OCAP2/gaze/pkg/core"
)

type fakeInflux struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
	err    error
}

func (f *fakeInflux) WritePoint(p *influxdb2_write.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
	return f.err
}

func (f *fakeInflux) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.points))
	for _, p := range f.points {
		out = append(out, p.Name())
	}
	return out
}

func newDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	return d
}

func TestRegisterHandlers(t *testing.T) {
	d := newDispatcher(t)
	NewManager(Dependencies{}, nil).RegisterHandlers(d)
	defer d.Close()

	for _, cmd := range []string{core.CommandStateChanged, core.CommandFrameStats, core.CommandSessionEnd} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
}

func TestSessionFlow(t *testing.T) {
	dir := t.TempDir()
	backend := memory.New(config.MemoryConfig{OutputDir: dir})
	fi := &fakeInflux{}
	m := NewManager(Dependencies{Influx: fi}, backend)
	d := newDispatcher(t)
	m.RegisterHandlers(d)

	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	s := core.NewSession("replay", start)
	require.NoError(t, backend.StartSession(s))

	_, err := d.Dispatch(dispatcher.Event{Command: core.CommandStateChanged, Payload: core.Transition{
		SessionID: s.ID, Time: start, Message: core.MessageLooking,
	}})
	require.NoError(t, err)
	_, err = d.Dispatch(dispatcher.Event{Command: core.CommandStateChanged, Payload: &core.Transition{
		SessionID: s.ID, Time: start.Add(time.Second), Message: core.MessageLookingAway,
	}})
	require.NoError(t, err)
	_, err = d.Dispatch(dispatcher.Event{Command: core.CommandFrameStats, Payload: core.FrameStats{
		SessionID: s.ID, WindowStart: start, WindowEnd: start.Add(time.Second), Frames: 30,
	}})
	require.NoError(t, err)

	d.Close()
	assert.Len(t, backend.Transitions(), 2)
	assert.Len(t, backend.FrameStats(), 1)
	assert.ElementsMatch(t, []string{
		influx.MeasurementTransition, influx.MeasurementTransition, influx.MeasurementFrameStats,
	}, fi.names())

	end := start.Add(3 * time.Second)
	result, err := d.Dispatch(dispatcher.Event{Command: core.CommandSessionEnd, Payload: *s, Timestamp: end})
	require.NoError(t, err)
	ended, ok := result.(core.Session)
	require.True(t, ok)
	assert.Equal(t, end, ended.EndTime)

	assert.FileExists(t, backend.GetExportedFilePath())
	assert.Equal(t, 3*time.Second, backend.GetExportMetadata().Duration)
}

func TestHandlers_NoBackend(t *testing.T) {
	fi := &fakeInflux{err: errors.New("influx down")}
	m := NewManager(Dependencies{Influx: fi}, nil)

	_, err := m.handleStateChanged(dispatcher.Event{Command: core.CommandStateChanged, Payload: core.Transition{}})
	assert.NoError(t, err)
	_, err = m.handleFrameStats(dispatcher.Event{Command: core.CommandFrameStats, Payload: core.FrameStats{}})
	assert.NoError(t, err)
	_, err = m.handleSessionEnd(dispatcher.Event{Command: core.CommandSessionEnd, Payload: core.Session{}, Timestamp: time.Now()})
	assert.NoError(t, err)
	assert.Len(t, fi.names(), 2)
}

func TestHandlers_UnexpectedPayload(t *testing.T) {
	m := NewManager(Dependencies{}, nil)

	tests := []struct {
		name    string
		handler func(dispatcher.Event) (any, error)
		payload any
	}{
		{"transition string", m.handleStateChanged, "LOOKING"},
		{"stats nil pointer", m.handleFrameStats, (*core.FrameStats)(nil)},
		{"session transition", m.handleSessionEnd, core.Transition{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.handler(dispatcher.Event{Command: "x", Payload: tt.payload})
			assert.ErrorIs(t, err, ErrUnexpectedPayload)
		})
	}
}

func TestHandlers_BackendError(t *testing.T) {
	// memory backend rejects records before StartSession
	m := NewManager(Dependencies{}, memory.New(config.MemoryConfig{}))

	_, err := m.handleStateChanged(dispatcher.Event{Payload: core.Transition{}})
	assert.ErrorIs(t, err, memory.ErrNoSession)
	_, err = m.handleFrameStats(dispatcher.Event{Payload: core.FrameStats{}})
	assert.ErrorIs(t, err, memory.ErrNoSession)
	_, err = m.handleSessionEnd(dispatcher.Event{Payload: core.Session{}})
	assert.ErrorIs(t, err, memory.ErrNoSession)
}

type timedBackend struct {
	*memory.Backend
}

func (timedBackend) LastWriteDuration() time.Duration { return 42 * time.Millisecond }
func (timedBackend) QueueLengths() map[string]int     { return map[string]int{"transitions": 3} }

func TestOptionalProviders(t *testing.T) {
	plain := NewManager(Dependencies{}, memory.New(config.MemoryConfig{}))
	assert.Zero(t, plain.GetLastDBWriteDuration())
	assert.Nil(t, plain.GetQueueLengths())

	timed := NewManager(Dependencies{}, timedBackend{memory.New(config.MemoryConfig{})})
	assert.Equal(t, 42*time.Millisecond, timed.GetLastDBWriteDuration())
	assert.Equal(t, map[string]int{"transitions": 3}, timed.GetQueueLengths())
}
