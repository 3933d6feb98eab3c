package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/gaze/internal/api"
	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/storage"
	"github.com/OCAP2/gaze/pkg/core"
)

const uploadTimeout = 2 * time.Minute

func initStorage(sess *core.Session, logsDir string) (storage.Backend, error) {
	Logger.Debug("Received :INIT:STORAGE: call")

	storageCfg := resolveStorageConfig(config.GetStorageConfig(), logsDir, sess.StartTime)

	backend, err := storage.NewBackend(storageCfg, SlogManager)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if backend == nil {
		Logger.Info("Storage disabled")
		return nil, nil
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err, "type", storageCfg.Type)
		return nil, err
	}
	if err := backend.StartSession(sess); err != nil {
		Logger.Error("Failed to start session in storage", "error", err)
		backend.Close()
		return nil, err
	}
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend, nil
}

// resolveStorageConfig fills in paths and URLs derived from other settings.
func resolveStorageConfig(cfg config.StorageConfig, logsDir string, start time.Time) config.StorageConfig {
	if cfg.Type == "sqlite" && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = filepath.Join(logsDir, fmt.Sprintf("gaze_%s.db", start.Format("20060102_150405")))
	}
	if cfg.Type == "websocket" && cfg.WebSocket.URL == "" {
		cfg.WebSocket.URL = httpToWS(cfg.Upload.ServerURL) + "/api/gaze"
		if cfg.WebSocket.Secret == "" {
			cfg.WebSocket.Secret = cfg.Upload.APIKey
		}
	}
	return cfg
}

func closeStorage(backend storage.Backend) {
	if backend == nil {
		return
	}
	if err := backend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
}

// uploadExport sends the memory export to the session server.
func uploadExport(backend storage.Backend, cfg config.UploadConfig) {
	if !cfg.Enabled || backend == nil {
		return
	}
	u, ok := backend.(storage.Uploadable)
	if !ok {
		Logger.Debug("Storage backend has no export to upload")
		return
	}
	path := u.GetExportedFilePath()
	if path == "" {
		Logger.Warn("No exported file to upload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	meta := u.GetExportMetadata()
	if err := api.New(cfg.ServerURL, cfg.APIKey).Upload(ctx, path, meta); err != nil {
		Logger.Error("Failed to upload session export", "error", err, "path", path)
		return
	}
	Logger.Info("Session export uploaded", "path", path, "session", meta.SessionID, "transitions", meta.Transitions)
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
