package storage

import (
	"fmt"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/logging"
	"github.com/OCAP2/gaze/internal/storage/memory"
	"github.com/OCAP2/gaze/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/gaze/internal/storage/sqlite"
	"github.com/OCAP2/gaze/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration. The "none"
// type returns a nil Backend and no error. The caller runs Init.
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager) (Backend, error) {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}

	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, logManager)
	case "postgres":
		return postgres.New(postgres.Dependencies{
			Config:     cfg.DB,
			LogManager: logManager,
		}), nil
	case "websocket":
		return websocket.New(websocket.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
		}, logManager.Logger()), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
