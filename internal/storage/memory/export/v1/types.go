// Package v1 contains the v1 export format for gaze sessions.
package v1

// FormatVersion is written to every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int               `json:"formatVersion"`
	SessionID     string            `json:"sessionId"`
	Source        string            `json:"source"`
	Host          string            `json:"host,omitempty"`
	Version       string            `json:"version,omitempty"`
	StartTime     string            `json:"startTime"`
	EndTime       string            `json:"endTime,omitempty"`
	DurationMs    int64             `json:"durationMs"`
	Thresholds    Thresholds        `json:"thresholds"`
	MinIntervalMs int64             `json:"minIntervalMs"`
	Settings      map[string]string `json:"settings,omitempty"`
	Transitions   []Transition      `json:"transitions"`
	Windows       []Window          `json:"windows"`
	Summary       Summary           `json:"summary"`
}

// Thresholds are the classifier settings the session ran with.
type Thresholds struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Transition is one emitted notification. OffsetMs is relative to StartTime.
type Transition struct {
	OffsetMs     int64       `json:"offsetMs"`
	Seq          uint64      `json:"seq"`
	Message      string      `json:"message"`
	FaceDetected bool        `json:"faceDetected"`
	Yaw          float64     `json:"yaw"`
	NoseRelative float64     `json:"noseRelative"`
	Nose         *[2]float64 `json:"nose,omitempty"`
}

// Window is one stats window.
type Window struct {
	StartMs      int64   `json:"startMs"`
	EndMs        int64   `json:"endMs"`
	Frames       uint32  `json:"frames"`
	Faceless     uint32  `json:"faceless"`
	Away         uint32  `json:"away"`
	Suppressed   uint32  `json:"suppressed"`
	DetectErrors uint32  `json:"detectErrors"`
	FPS          float64 `json:"fps"`
}

// Summary aggregates the whole session.
type Summary struct {
	Frames        uint64  `json:"frames"`
	Faceless      uint64  `json:"faceless"`
	Notifications int     `json:"notifications"`
	AwayMs        int64   `json:"awayMs"`
	LookingMs     int64   `json:"lookingMs"`
	AwayRatio     float64 `json:"awayRatio"`
}
