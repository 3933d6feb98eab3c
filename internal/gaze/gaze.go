// Package gaze classifies a face as looking at or away from the camera using
// the relative positions of a handful of face mesh landmarks.
package gaze

import (
	"math"

	"github.com/OCAP2/gaze/pkg/core"
)

// Default thresholds.
const (
	DefaultYawThreshold   = 0.08
	DefaultPitchThreshold = 0.50
)

// neutralNoseRelative is used when the face height is degenerate.
const neutralNoseRelative = 0.5

// Thresholds configures the classifier.
type Thresholds struct {
	Yaw   float64
	Pitch float64
}

// DefaultThresholds returns the compiled-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Yaw:   DefaultYawThreshold,
		Pitch: DefaultPitchThreshold,
	}
}

// Measure computes the yaw and pitch proxies of a landmark set. The set must
// hold at least core.MinLandmarks points.
func Measure(lm core.LandmarkSet) core.Pose {
	nose := lm[core.NoseTip]

	// yaw: nose offset from the midpoint of the two cheek landmarks
	faceCenterX := (lm[core.LeftCheek].X + lm[core.RightCheek].X) / 2
	yaw := nose.X - faceCenterX

	// pitch: nose tip height as a fraction of forehead-to-chin height.
	// ~0.52 looking straight, 0.75-0.83 looking down.
	forehead := lm[core.ForeheadTop].Y
	faceHeight := lm[core.ChinBottom].Y - forehead
	noseRelative := neutralNoseRelative
	if faceHeight > 0 {
		noseRelative = (nose.Y - forehead) / faceHeight
	}

	return core.Pose{Yaw: yaw, NoseRelative: noseRelative}
}

// Away applies the thresholds to a pose. Turning sideways either way or
// looking down counts as away; looking up is never flagged.
func (t Thresholds) Away(p core.Pose) bool {
	lookingSideways := math.Abs(p.Yaw) > t.Yaw
	lookingDown := p.NoseRelative > t.Pitch
	return lookingSideways || lookingDown
}

// IsLookingAway classifies a single landmark set.
func IsLookingAway(lm core.LandmarkSet, yawThreshold, pitchThreshold float64) bool {
	return Thresholds{Yaw: yawThreshold, Pitch: pitchThreshold}.Away(Measure(lm))
}
