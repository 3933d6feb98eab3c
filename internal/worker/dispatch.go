package worker

import (
	"fmt"

	"github.com/OCAP2/gaze/internal/dispatcher"
	"github.com/OCAP2/gaze/internal/influx"
	"github.com/OCAP2/gaze/pkg/core"
)

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Frame loop events - buffered so storage latency never stalls a frame
	d.Register(core.CommandStateChanged, m.handleStateChanged, dispatcher.Buffered(1000), dispatcher.Logged())
	d.Register(core.CommandFrameStats, m.handleFrameStats, dispatcher.Buffered(100), dispatcher.Logged())

	// Session end - sync, raised after the buffers have drained
	d.Register(core.CommandSessionEnd, m.handleSessionEnd, dispatcher.Logged())
}

// payloadAs accepts either T or *T.
func payloadAs[T any](e dispatcher.Event) (T, error) {
	switch p := e.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w for %s: %T", ErrUnexpectedPayload, e.Command, e.Payload)
}

func (m *Manager) handleStateChanged(e dispatcher.Event) (any, error) {
	t, err := payloadAs[core.Transition](e)
	if err != nil {
		return nil, err
	}

	if m.deps.Influx != nil {
		if err := m.deps.Influx.WritePoint(influx.TransitionPoint(t)); err != nil {
			m.deps.LogManager.WriteLog(e.Command, fmt.Sprintf("failed to write transition point: %v", err), "WARN")
		}
	}

	if m.hasBackend() {
		if err := m.backend.RecordTransition(&t); err != nil {
			return nil, fmt.Errorf("failed to record transition: %w", err)
		}
	}
	return nil, nil
}

func (m *Manager) handleFrameStats(e dispatcher.Event) (any, error) {
	s, err := payloadAs[core.FrameStats](e)
	if err != nil {
		return nil, err
	}

	if m.deps.Influx != nil {
		if err := m.deps.Influx.WritePoint(influx.FrameStatsPoint(s)); err != nil {
			m.deps.LogManager.WriteLog(e.Command, fmt.Sprintf("failed to write frame stats point: %v", err), "WARN")
		}
	}

	if m.hasBackend() {
		if err := m.backend.RecordFrameStats(&s); err != nil {
			return nil, fmt.Errorf("failed to record frame stats: %w", err)
		}
	}
	return nil, nil
}

func (m *Manager) handleSessionEnd(e dispatcher.Event) (any, error) {
	s, err := payloadAs[core.Session](e)
	if err != nil {
		return nil, err
	}
	if s.EndTime.IsZero() {
		s.EndTime = e.Timestamp
	}

	if m.hasBackend() {
		if err := m.backend.EndSession(&s); err != nil {
			return nil, fmt.Errorf("failed to end session: %w", err)
		}
	}
	m.deps.LogManager.WriteLog(e.Command, "session ended", "INFO")
	return s, nil
}
