// Package gormstorage implements the storage.Backend interface on top of GORM
// with internal queues and a background DB writer goroutine. It serves both
// the postgres and sqlite backends.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OCAP2/gaze/internal/logging"
	"github.com/OCAP2/gaze/internal/model"
	"github.com/OCAP2/gaze/internal/model/convert"
	"github.com/OCAP2/gaze/internal/queue"
	"github.com/OCAP2/gaze/pkg/core"
)

const (
	defaultFlushInterval = time.Second
	defaultBatchSize     = 500
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
	BatchSize     int
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Transitions *queue.Queue[model.Transition]
	FrameStats  *queue.Queue[model.FrameStats]
}

func newQueues() *queues {
	return &queues{
		Transitions: queue.New[model.Transition](),
		FrameStats:  queue.New[model.FrameStats](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu        sync.RWMutex
	sessionID uuid.UUID
	lastWrite time.Duration

	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend. Queues exist from construction so
// records pushed before Init are kept.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine. Without a
// DB the backend only queues, which is what the unit tests use.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB != nil {
		if err := b.setupDB(); err != nil {
			return fmt.Errorf("failed to setup DB: %w", err)
		}
	}

	go b.writerLoop()
	return nil
}

func (b *Backend) setupDB() error {
	log := b.deps.LogManager

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close stops the writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return b.Flush()
}

// StartSession inserts the session row synchronously so later batches can
// reference it.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	b.sessionID = s.ID
	b.mu.Unlock()

	if b.deps.DB == nil {
		return nil
	}
	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// EndSession flushes the queues and stamps the end time.
func (b *Backend) EndSession(s *core.Session) error {
	if err := b.Flush(); err != nil {
		return err
	}
	if b.deps.DB == nil {
		return nil
	}

	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", s.ID).
		Update("end_time", end).Error
	if err != nil {
		return fmt.Errorf("failed to update session end time: %w", err)
	}
	return nil
}

// RecordTransition converts and queues a transition.
func (b *Backend) RecordTransition(t *core.Transition) error {
	row, err := convert.CoreToTransition(*t)
	if err != nil {
		return fmt.Errorf("failed to convert transition: %w", err)
	}
	if row.SessionID == uuid.Nil {
		row.SessionID = b.currentSession()
	}
	b.queues.Transitions.Push(row)
	return nil
}

// RecordFrameStats converts and queues a stats window.
func (b *Backend) RecordFrameStats(s *core.FrameStats) error {
	row := convert.CoreToFrameStats(*s)
	if row.SessionID == uuid.Nil {
		row.SessionID = b.currentSession()
	}
	b.queues.FrameStats.Push(row)
	return nil
}

func (b *Backend) currentSession() uuid.UUID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessionID
}

// QueueLengths reports how many rows are waiting per table.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"transitions": b.queues.Transitions.Len(),
		"frame_stats": b.queues.FrameStats.Len(),
	}
}

// LastWriteDuration is how long the most recent non-empty flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastWrite
}

// Flush drains every queue into the database. Failed batches are put back
// at the front of their queue and the errors are joined.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if b.queues.Transitions.Empty() && b.queues.FrameStats.Empty() {
		return nil
	}

	start := time.Now()
	err := errors.Join(
		writeQueue(b.deps.DB, b.queues.Transitions, "transitions", b.deps.BatchSize),
		writeQueue(b.deps.DB, b.queues.FrameStats, "frame stats", b.deps.BatchSize),
	)

	b.mu.Lock()
	b.lastWrite = time.Since(start)
	b.mu.Unlock()
	return err
}

// writeQueue writes all items from a queue to the database, one transaction
// per batch.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, batchSize int) error {
	for {
		items := q.PopN(batchSize)
		if len(items) == 0 {
			return nil
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.CreateInBatches(&items, batchSize).Error
		})
		if err != nil {
			q.Requeue(items)
			return fmt.Errorf("error creating %s: %w", name, err)
		}
	}
}

// writerLoop periodically drains queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.LogManager.WriteLog(":DB:WRITER:", err.Error(), "ERROR")
			}
		}
	}
}

// Sessions returns every stored session, newest first.
func (b *Backend) Sessions() ([]core.Session, error) {
	if b.deps.DB == nil {
		return nil, nil
	}
	var rows []model.Session
	if err := b.deps.DB.Order("start_time DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	out := make([]core.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.SessionToCore(r))
	}
	return out, nil
}

// Transitions returns the stored transitions of a session in time order.
func (b *Backend) Transitions(sessionID uuid.UUID) ([]core.Transition, error) {
	if b.deps.DB == nil {
		return nil, nil
	}
	var rows []model.Transition
	err := b.deps.DB.Where("session_id = ?", sessionID).Order("time, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transitions: %w", err)
	}
	out := make([]core.Transition, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.TransitionToCore(r))
	}
	return out, nil
}

// FrameStats returns the stored stats windows of a session in time order.
func (b *Backend) FrameStats(sessionID uuid.UUID) ([]core.FrameStats, error) {
	if b.deps.DB == nil {
		return nil, nil
	}
	var rows []model.FrameStats
	err := b.deps.DB.Where("session_id = ?", sessionID).Order("window_start, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load frame stats: %w", err)
	}
	out := make([]core.FrameStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.FrameStatsToCore(r))
	}
	return out, nil
}
