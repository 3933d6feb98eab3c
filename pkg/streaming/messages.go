// Package streaming defines the messages exchanged with a session server over
// WebSocket.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/gaze/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeTransition   = "transition"
	TypeFrameStats   = "frame_stats"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// Session announces a new session.
type Session struct {
	ID             string            `json:"id"`
	Source         string            `json:"source"`
	Host           string            `json:"host,omitempty"`
	Version        string            `json:"version,omitempty"`
	StartTime      time.Time         `json:"startTime"`
	YawThreshold   float64           `json:"yawThreshold"`
	PitchThreshold float64           `json:"pitchThreshold"`
	MinIntervalMs  int64             `json:"minIntervalMs"`
	Settings       map[string]string `json:"settings,omitempty"`
}

// EndSession closes a session.
type EndSession struct {
	ID      string    `json:"id"`
	EndTime time.Time `json:"endTime"`
}

// Transition is one emitted notification.
type Transition struct {
	SessionID    string      `json:"sessionId"`
	Seq          uint64      `json:"seq"`
	Time         time.Time   `json:"time"`
	Message      string      `json:"message"`
	FaceDetected bool        `json:"faceDetected"`
	Yaw          float64     `json:"yaw"`
	NoseRelative float64     `json:"noseRelative"`
	Nose         *[2]float64 `json:"nose,omitempty"`
}

// FrameStats is one stats window.
type FrameStats struct {
	SessionID    string    `json:"sessionId"`
	WindowStart  time.Time `json:"windowStart"`
	WindowEnd    time.Time `json:"windowEnd"`
	Frames       uint32    `json:"frames"`
	Faceless     uint32    `json:"faceless"`
	Away         uint32    `json:"away"`
	Suppressed   uint32    `json:"suppressed"`
	DetectErrors uint32    `json:"detectErrors"`
	FPS          float64   `json:"fps"`
}

// NewSession builds the start_session payload.
func NewSession(s core.Session) Session {
	return Session{
		ID:             s.ID.String(),
		Source:         s.Source,
		Host:           s.Host,
		Version:        s.Version,
		StartTime:      s.StartTime,
		YawThreshold:   s.YawThreshold,
		PitchThreshold: s.PitchThreshold,
		MinIntervalMs:  s.MinInterval.Milliseconds(),
		Settings:       s.Settings,
	}
}

// NewTransition builds the transition payload. The nose point is only sent
// when a face was detected.
func NewTransition(t core.Transition) Transition {
	out := Transition{
		SessionID:    t.SessionID.String(),
		Seq:          t.Seq,
		Time:         t.Time,
		Message:      string(t.Message),
		FaceDetected: t.FaceDetected,
		Yaw:          t.Pose.Yaw,
		NoseRelative: t.Pose.NoseRelative,
	}
	if t.FaceDetected {
		out.Nose = &[2]float64{t.NoseTip.X, t.NoseTip.Y}
	}
	return out
}

// NewFrameStats builds the frame_stats payload.
func NewFrameStats(s core.FrameStats) FrameStats {
	return FrameStats{
		SessionID:    s.SessionID.String(),
		WindowStart:  s.WindowStart,
		WindowEnd:    s.WindowEnd,
		Frames:       s.Frames,
		Faceless:     s.FacelessCount,
		Away:         s.AwayCount,
		Suppressed:   s.Suppressed,
		DetectErrors: s.DetectErrors,
		FPS:          s.FPS(),
	}
}
