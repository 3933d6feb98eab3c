package gaze

import (
	"github.com/OCAP2/gaze/internal/landmarks"
	"github.com/OCAP2/gaze/pkg/core"
)

// Result is the per-frame classification outcome.
type Result struct {
	LookingAway  bool
	FaceDetected bool
	Pose         core.Pose
	Face         core.LandmarkSet
}

// Classifier turns the landmark source output for a frame into a verdict.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Thresholds returns the configured thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify consumes the first reported face. No face means looking away.
// A face that fails validation is also reported as looking away, together
// with the validation error so the caller can log it.
func (c *Classifier) Classify(sets []core.LandmarkSet) (Result, error) {
	face, ok := landmarks.First(sets)
	if !ok {
		return Result{LookingAway: true}, nil
	}
	if err := landmarks.Validate(face); err != nil {
		return Result{LookingAway: true}, err
	}

	pose := Measure(face)
	return Result{
		LookingAway:  c.thresholds.Away(pose),
		FaceDetected: true,
		Pose:         pose,
		Face:         face,
	}, nil
}
