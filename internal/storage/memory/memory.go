// Package memory keeps a session in memory and exports it as JSON when the
// session ends.
package memory

import (
	"errors"
	"sync"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/pkg/core"
)

// ErrNoSession is returned when recording before StartSession.
var ErrNoSession = errors.New("no active session")

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	transitions []core.Transition
	stats       []core.FrameStats

	lastExportPath     string
	lastExportMetadata core.UploadMetadata
	mu                 sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session and drops anything left from
// the previous one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.transitions = nil
	b.stats = nil
	b.lastExportPath = ""
	b.lastExportMetadata = core.UploadMetadata{}
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	if s != nil {
		b.session = s
	}
	return b.exportJSON()
}

// RecordTransition appends an emitted notification.
func (b *Backend) RecordTransition(t *core.Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.transitions = append(b.transitions, *t)
	return nil
}

// RecordFrameStats appends a stats window.
func (b *Backend) RecordFrameStats(s *core.FrameStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.stats = append(b.stats, *s)
	return nil
}

// Transitions returns a copy of the recorded transitions.
func (b *Backend) Transitions() []core.Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Transition(nil), b.transitions...)
}

// FrameStats returns a copy of the recorded stats windows.
func (b *Backend) FrameStats() []core.FrameStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.FrameStats(nil), b.stats...)
}

// GetExportedFilePath returns the path of the last export, or "" if none.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last export.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMetadata
}
