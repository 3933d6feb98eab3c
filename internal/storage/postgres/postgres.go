// Package postgres implements the storage.Backend interface on PostgreSQL.
// Writes go through the shared GORM backend; this package owns the
// connection.
package postgres

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/database"
	"github.com/OCAP2/gaze/internal/logging"
	gormstorage "github.com/OCAP2/gaze/internal/storage/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as-is when set; otherwise Init connects using Config.
	DB            *gorm.DB
	Config        config.DBConfig
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
}

// Backend implements storage.Backend using GORM/PostgreSQL with queue-based batch writes.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// Init connects if needed, runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
		b.deps.LogManager.WriteLog("postgres:Init", fmt.Sprintf("Connected to %s:%s/%s",
			b.deps.Config.Host, b.deps.Config.Port, b.deps.Config.Database), "INFO")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:            b.deps.DB,
		LogManager:    b.deps.LogManager,
		FlushInterval: b.deps.FlushInterval,
	})
	return b.Backend.Init()
}

// Close stops the writer, flushes and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
