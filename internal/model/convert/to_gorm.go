// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/OCAP2/gaze/internal/model"
	"github.com/OCAP2/gaze/pkg/core"
)

// pointToGeom converts a normalized image point to a geom.Point
func pointToGeom(p core.Point) (geom.Point, error) {
	return geom.XY{X: p.X, Y: p.Y}.AsPoint()
}

// CoreToSession converts a core.Session to a GORM Session.
func CoreToSession(s core.Session) model.Session {
	var settings datatypes.JSON
	if len(s.Settings) > 0 {
		if data, err := json.Marshal(s.Settings); err == nil {
			settings = data
		}
	}
	return model.Session{
		ID:             s.ID,
		StartTime:      s.StartTime,
		EndTime:        sql.NullTime{Time: s.EndTime, Valid: !s.EndTime.IsZero()},
		Source:         s.Source,
		Host:           s.Host,
		Version:        s.Version,
		YawThreshold:   s.YawThreshold,
		PitchThreshold: s.PitchThreshold,
		MinIntervalMs:  s.MinInterval.Milliseconds(),
		Settings:       settings,
	}
}

// CoreToTransition converts a core.Transition to a GORM Transition.
// Faceless transitions carry an empty nose point.
func CoreToTransition(t core.Transition) (model.Transition, error) {
	nose := geom.Point{}
	if t.FaceDetected {
		var err error
		if nose, err = pointToGeom(t.NoseTip); err != nil {
			return model.Transition{}, fmt.Errorf("nose tip: %w", err)
		}
	}
	return model.Transition{
		SessionID:    t.SessionID,
		Time:         t.Time,
		FrameSeq:     t.Seq,
		Message:      string(t.Message),
		LookingAway:  t.Message.LookingAway(),
		FaceDetected: t.FaceDetected,
		Yaw:          t.Pose.Yaw,
		NoseRelative: t.Pose.NoseRelative,
		NoseTip:      nose,
	}, nil
}

// CoreToFrameStats converts a core.FrameStats to a GORM FrameStats.
func CoreToFrameStats(s core.FrameStats) model.FrameStats {
	return model.FrameStats{
		SessionID:    s.SessionID,
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
