package core

import (
	"time"

	"github.com/google/uuid"
)

// Session is one run of the watcher.
type Session struct {
	ID             uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Source         string // camera or replay
	Host           string
	Version        string
	YawThreshold   float64
	PitchThreshold float64
	MinInterval    time.Duration
	Settings       map[string]string // source-specific details (device, replay file, ...)
}

// UploadMetadata describes an exported session file.
type UploadMetadata struct {
	SessionID   uuid.UUID
	Source      string
	Host        string
	StartTime   time.Time
	Duration    time.Duration
	Transitions int
}

// NewSession creates a session with a fresh random ID.
func NewSession(source string, start time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		StartTime: start,
		Source:    source,
	}
}

// Pose holds the two head-orientation proxies computed from a landmark set.
type Pose struct {
	Yaw          float64
	NoseRelative float64
}

// Transition is a notification that was actually emitted.
type Transition struct {
	SessionID    uuid.UUID
	Seq          uint64 // frame sequence that triggered it
	Time         time.Time
	Message      Message
	FaceDetected bool
	Pose         Pose
	NoseTip      Point
}

// FrameStats aggregates the frames of one stats window.
type FrameStats struct {
	SessionID     uuid.UUID
	WindowStart   time.Time
	WindowEnd     time.Time
	Frames        uint32
	FacelessCount uint32
	AwayCount     uint32
	Suppressed    uint32
	DetectErrors  uint32
}

// FPS returns frames per second over the window.
func (s FrameStats) FPS() float64 {
	d := s.WindowEnd.Sub(s.WindowStart).Seconds()
	if d <= 0 {
		return 0
	}
	return float64(s.Frames) / d
}

// AwayRatio returns the fraction of frames classified as looking away.
func (s FrameStats) AwayRatio() float64 {
	if s.Frames == 0 {
		return 0
	}
	return float64(s.AwayCount) / float64(s.Frames)
}

// Status is what the renderer needs to draw one frame.
type Status struct {
	Seq          uint64
	LookingAway  bool
	FaceDetected bool
	Pose         Pose
	Face         LandmarkSet
}
