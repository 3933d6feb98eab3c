// Package monitor periodically writes the watcher's status to a JSON file.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/gaze/internal/dispatcher"
	"github.com/OCAP2/gaze/internal/logging"
	"github.com/OCAP2/gaze/internal/pipeline"
	"github.com/OCAP2/gaze/internal/session"
	"github.com/OCAP2/gaze/internal/worker"
)

// SnapshotProvider is satisfied by *pipeline.Loop.
type SnapshotProvider interface {
	Snapshot() pipeline.Snapshot
}

// QueueStatsProvider is satisfied by *dispatcher.Dispatcher.
type QueueStatsProvider interface {
	Stats() map[string]dispatcher.QueueStats
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager     *logging.SlogManager
	SessionContext *session.Context
	Pipeline       SnapshotProvider
	// WorkerManager is optional.
	WorkerManager *worker.Manager
	// Dispatcher is optional.
	Dispatcher QueueStatsProvider
	StatusFile string
	Interval   time.Duration
}

// Status is one status report.
type Status struct {
	Time                time.Time                        `json:"time"`
	SessionID           string                           `json:"sessionId"`
	Source              string                           `json:"source"`
	Uptime              string                           `json:"uptime"`
	State               string                           `json:"state,omitempty"`
	LastNotified        *time.Time                       `json:"lastNotified,omitempty"`
	Pipeline            pipeline.Snapshot                `json:"pipeline"`
	DispatchQueues      map[string]dispatcher.QueueStats `json:"dispatchQueues,omitempty"`
	WriteQueues         map[string]int                   `json:"writeQueues,omitempty"`
	LastWriteDurationMs float64                          `json:"lastWriteDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects the current status.
func (s *Service) GetStatus(now time.Time) Status {
	sess := s.deps.SessionContext.Session()
	status := Status{
		Time:      now,
		SessionID: sess.ID.String(),
		Source:    sess.Source,
		Uptime:    now.Sub(sess.StartTime).Truncate(time.Second).String(),
	}

	if msg, at := s.deps.SessionContext.State(); msg != "" {
		status.State = string(msg)
		status.LastNotified = &at
	}
	if s.deps.Pipeline != nil {
		status.Pipeline = s.deps.Pipeline.Snapshot()
	}
	if s.deps.Dispatcher != nil {
		status.DispatchQueues = s.deps.Dispatcher.Stats()
	}
	if s.deps.WorkerManager != nil {
		status.WriteQueues = s.deps.WorkerManager.GetQueueLengths()
		status.LastWriteDurationMs = float64(s.deps.WorkerManager.GetLastDBWriteDuration().Microseconds()) / 1000
	}
	return status
}

// WriteStatus replaces the status file contents with the current status.
func (s *Service) WriteStatus(now time.Time) error {
	data, err := json.MarshalIndent(s.GetStatus(now), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := os.Rename(tmp, s.deps.StatusFile); err != nil {
		return fmt.Errorf("failed to replace status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if s.deps.SessionContext == nil {
		return fmt.Errorf("monitor requires a session context")
	}
	if s.deps.StatusFile == "" {
		return fmt.Errorf("monitor requires a status file path")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stopChan, s.done)
	return nil
}

func (s *Service) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	logger := s.deps.LogManager.Logger()
	logger.Debug("Starting status monitor goroutine", "file", s.deps.StatusFile, "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			if err := s.WriteStatus(time.Now()); err != nil {
				logger.Error("Error writing final status", "error", err)
			}
			return
		case now := <-ticker.C:
			if err := s.WriteStatus(now); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
		}
	}
}

// Stop stops the status monitor after a final write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}
