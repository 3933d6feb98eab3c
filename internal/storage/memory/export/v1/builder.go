package v1

import (
	"time"

	"github.com/OCAP2/gaze/pkg/core"
)

// Build converts a recorded session to the v1 export format.
func Build(s core.Session, transitions []core.Transition, windows []core.FrameStats) Export {
	export := Export{
		FormatVersion: FormatVersion,
		SessionID:     s.ID.String(),
		Source:        s.Source,
		Host:          s.Host,
		Version:       s.Version,
		StartTime:     s.StartTime.UTC().Format(time.RFC3339Nano),
		Thresholds:    Thresholds{Yaw: s.YawThreshold, Pitch: s.PitchThreshold},
		MinIntervalMs: s.MinInterval.Milliseconds(),
		Settings:      s.Settings,
		Transitions:   make([]Transition, 0, len(transitions)),
		Windows:       make([]Window, 0, len(windows)),
	}

	end := s.EndTime
	if !end.IsZero() {
		export.EndTime = end.UTC().Format(time.RFC3339Nano)
		export.DurationMs = end.Sub(s.StartTime).Milliseconds()
	}

	for _, t := range transitions {
		tr := Transition{
			OffsetMs:     t.Time.Sub(s.StartTime).Milliseconds(),
			Seq:          t.Seq,
			Message:      string(t.Message),
			FaceDetected: t.FaceDetected,
			Yaw:          t.Pose.Yaw,
			NoseRelative: t.Pose.NoseRelative,
		}
		if t.FaceDetected {
			tr.Nose = &[2]float64{t.NoseTip.X, t.NoseTip.Y}
		}
		export.Transitions = append(export.Transitions, tr)
	}

	for _, w := range windows {
		export.Windows = append(export.Windows, Window{
			StartMs:      w.WindowStart.Sub(s.StartTime).Milliseconds(),
			EndMs:        w.WindowEnd.Sub(s.StartTime).Milliseconds(),
			Frames:       w.Frames,
			Faceless:     w.FacelessCount,
			Away:         w.AwayCount,
			Suppressed:   w.Suppressed,
			DetectErrors: w.DetectErrors,
			FPS:          w.FPS(),
		})
		export.Summary.Frames += uint64(w.Frames)
		export.Summary.Faceless += uint64(w.FacelessCount)
	}

	export.Summary.Notifications = len(transitions)
	export.Summary.AwayMs, export.Summary.LookingMs = stateDurations(transitions, end)
	if total := export.Summary.AwayMs + export.Summary.LookingMs; total > 0 {
		export.Summary.AwayRatio = float64(export.Summary.AwayMs) / float64(total)
	}

	return export
}

// stateDurations splits the time from the first transition to end by the
// notified state. Without an end time the last state is open and not
// counted.
func stateDurations(transitions []core.Transition, end time.Time) (awayMs, lookingMs int64) {
	for i, t := range transitions {
		until := end
		if i+1 < len(transitions) {
			until = transitions[i+1].Time
		}
		if until.IsZero() || until.Before(t.Time) {
			continue
		}
		d := until.Sub(t.Time).Milliseconds()
		if t.Message.LookingAway() {
			awayMs += d
		} else {
			lookingMs += d
		}
	}
	return awayMs, lookingMs
}
