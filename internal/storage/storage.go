package storage

import "github.com/OCAP2/gaze/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession(s *core.Session) error

	// Recording
	RecordTransition(t *core.Transition) error
	RecordFrameStats(s *core.FrameStats) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the session server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
