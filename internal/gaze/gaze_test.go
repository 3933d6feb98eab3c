package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/gaze/pkg/core"
)

// face builds a 468-point landmark set with the classifier's key points set.
// Every other point sits at the frame center.
func face(noseX, noseY, foreheadY, chinY, leftX, rightX float64) core.LandmarkSet {
	lm := make(core.LandmarkSet, 468)
	for i := range lm {
		lm[i] = core.Point{X: 0.5, Y: 0.5}
	}
	lm[core.NoseTip] = core.Point{X: noseX, Y: noseY}
	lm[core.ForeheadTop] = core.Point{X: 0.5, Y: foreheadY}
	lm[core.ChinBottom] = core.Point{X: 0.5, Y: chinY}
	lm[core.LeftCheek] = core.Point{X: leftX, Y: 0.5}
	lm[core.RightCheek] = core.Point{X: rightX, Y: 0.5}
	return lm
}

func TestMeasure(t *testing.T) {
	pose := Measure(face(0.5, 0.5, 0.25, 0.75, 0.25, 0.75))
	assert.Equal(t, 0.0, pose.Yaw)
	assert.Equal(t, 0.5, pose.NoseRelative)

	pose = Measure(face(0.625, 0.625, 0.25, 0.75, 0.25, 0.75))
	assert.Equal(t, 0.125, pose.Yaw)
	assert.Equal(t, 0.75, pose.NoseRelative)
}

func TestIsLookingAway(t *testing.T) {
	tests := []struct {
		name string
		lm   core.LandmarkSet
		want bool
	}{
		{
			name: "centered nose at neutral height",
			lm:   face(0.5, 0.5, 0.25, 0.75, 0.25, 0.75),
			want: false,
		},
		{
			name: "centered nose slightly above neutral",
			lm:   face(0.5, 0.4875, 0.25, 0.75, 0.25, 0.75),
			want: false,
		},
		{
			name: "turned right",
			lm:   face(0.6, 0.5, 0.25, 0.75, 0.25, 0.75),
			want: true,
		},
		{
			name: "turned left",
			lm:   face(0.4, 0.5, 0.25, 0.75, 0.25, 0.75),
			want: true,
		},
		{
			name: "small turn within threshold",
			lm:   face(0.55, 0.5, 0.25, 0.75, 0.25, 0.75),
			want: false,
		},
		{
			name: "looking down",
			lm:   face(0.5, 0.65, 0.25, 0.75, 0.25, 0.75),
			want: true,
		},
		{
			name: "looking up is not flagged",
			lm:   face(0.5, 0.3, 0.25, 0.75, 0.25, 0.75),
			want: false,
		},
		{
			name: "turned and looking up",
			lm:   face(0.7, 0.3, 0.25, 0.75, 0.25, 0.75),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLookingAway(tt.lm, DefaultYawThreshold, DefaultPitchThreshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsLookingAway_YawWinsRegardlessOfPitch(t *testing.T) {
	for _, noseY := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		assert.True(t, IsLookingAway(face(0.75, noseY, 0.25, 0.75, 0.25, 0.75), DefaultYawThreshold, DefaultPitchThreshold),
			"noseY=%v", noseY)
		assert.True(t, IsLookingAway(face(0.25, noseY, 0.25, 0.75, 0.25, 0.75), DefaultYawThreshold, DefaultPitchThreshold),
			"noseY=%v", noseY)
	}
}

func TestIsLookingAway_DegenerateFaceHeight(t *testing.T) {
	tests := []struct {
		name     string
		lm       core.LandmarkSet
		wantAway bool
	}{
		{"zero height", face(0.5, 0.9, 0.5, 0.5, 0.25, 0.75), false},
		{"inverted", face(0.5, 0.9, 0.75, 0.25, 0.25, 0.75), false},
		{"zero height turned", face(0.75, 0.9, 0.5, 0.5, 0.25, 0.75), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pose := Measure(tt.lm)
				assert.Equal(t, 0.5, pose.NoseRelative)
			})
			assert.Equal(t, tt.wantAway, IsLookingAway(tt.lm, DefaultYawThreshold, DefaultPitchThreshold))
		})
	}
}

func TestThresholds_Custom(t *testing.T) {
	lm := face(0.55, 0.5, 0.25, 0.75, 0.25, 0.75)
	assert.False(t, IsLookingAway(lm, 0.08, 0.5))
	assert.True(t, IsLookingAway(lm, 0.02, 0.5))

	// nose_relative 0.5 trips a lower pitch threshold
	assert.True(t, IsLookingAway(face(0.5, 0.5, 0.25, 0.75, 0.25, 0.75), 0.08, 0.4))
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 0.08, th.Yaw)
	assert.Equal(t, 0.50, th.Pitch)
}
