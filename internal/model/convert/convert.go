package convert

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/OCAP2/gaze/internal/model"
	"github.com/OCAP2/gaze/pkg/core"
)

// geomToPoint converts a geom.Point back to an image point
func geomToPoint(p geom.Point) core.Point {
	xy, ok := p.XY()
	if !ok {
		return core.Point{}
	}
	return core.Point{X: xy.X, Y: xy.Y}
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	out := core.Session{
		ID:             s.ID,
		StartTime:      s.StartTime,
		Source:         s.Source,
		Host:           s.Host,
		Version:        s.Version,
		YawThreshold:   s.YawThreshold,
		PitchThreshold: s.PitchThreshold,
		MinInterval:    time.Duration(s.MinIntervalMs) * time.Millisecond,
	}
	if s.EndTime.Valid {
		out.EndTime = s.EndTime.Time
	}
	if len(s.Settings) > 0 {
		_ = json.Unmarshal(s.Settings, &out.Settings)
	}
	return out
}

// TransitionToCore converts a GORM Transition to a core.Transition.
func TransitionToCore(t model.Transition) core.Transition {
	return core.Transition{
		SessionID:    t.SessionID,
		Seq:          t.FrameSeq,
		Time:         t.Time,
		Message:      core.Message(t.Message),
		FaceDetected: t.FaceDetected,
		Pose:         core.Pose{Yaw: t.Yaw, NoseRelative: t.NoseRelative},
		NoseTip:      geomToPoint(t.NoseTip),
	}
}

// FrameStatsToCore converts a GORM FrameStats to a core.FrameStats.
func FrameStatsToCore(s model.FrameStats) core.FrameStats {
	return core.FrameStats{
		SessionID:     s.SessionID,
		WindowStart:   s.WindowStart,
		WindowEnd:     s.WindowEnd,
		Frames:        s.Frames,
		FacelessCount: s.Faceless,
		AwayCount:     s.Away,
		Suppressed:    s.Suppressed,
		DetectErrors:  s.DetectErrors,
	}
}
