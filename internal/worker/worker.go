package worker

import (
	"fmt"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/OCAP2/gaze/internal/logging"
	"github.com/OCAP2/gaze/internal/storage"
)

// ErrUnexpectedPayload is returned when an event carries the wrong type.
var ErrUnexpectedPayload = fmt.Errorf("unexpected event payload")

// PointWriter receives measurement points. *influx.Manager satisfies it.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	LogManager *logging.SlogManager
	// Influx is optional.
	Influx PointWriter
}

// Manager turns dispatched session events into storage and influx writes.
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager. backend may be nil when storage
// is disabled.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

func (m *Manager) hasBackend() bool {
	return m.backend != nil
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	LastWriteDuration() time.Duration
}

// QueueLengthProvider is an optional interface for backends that buffer writes.
type QueueLengthProvider interface {
	QueueLengths() map[string]int
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.LastWriteDuration()
	}
	return 0
}

// GetQueueLengths returns the backend's pending writes per table, or nil.
func (m *Manager) GetQueueLengths() map[string]int {
	if p, ok := m.backend.(QueueLengthProvider); ok {
		return p.QueueLengths()
	}
	return nil
}
