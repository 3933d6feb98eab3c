package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/internal/landmarks"
	"github.com/OCAP2/gaze/pkg/core"
)

func TestClassifier_NoFaceIsAway(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	res, err := c.Classify(nil)
	require.NoError(t, err)
	assert.True(t, res.LookingAway)
	assert.False(t, res.FaceDetected)

	res, err = c.Classify([]core.LandmarkSet{})
	require.NoError(t, err)
	assert.True(t, res.LookingAway)
}

func TestClassifier_LookingAtCamera(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	res, err := c.Classify([]core.LandmarkSet{face(0.5, 0.5, 0.25, 0.75, 0.25, 0.75)})
	require.NoError(t, err)
	assert.False(t, res.LookingAway)
	assert.True(t, res.FaceDetected)
	assert.Equal(t, 0.5, res.Pose.NoseRelative)
	assert.Len(t, res.Face, 468)
}

func TestClassifier_UsesFirstFaceOnly(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	looking := face(0.5, 0.5, 0.25, 0.75, 0.25, 0.75)
	away := face(0.75, 0.5, 0.25, 0.75, 0.25, 0.75)

	res, err := c.Classify([]core.LandmarkSet{looking, away})
	require.NoError(t, err)
	assert.False(t, res.LookingAway)

	res, err = c.Classify([]core.LandmarkSet{away, looking})
	require.NoError(t, err)
	assert.True(t, res.LookingAway)
}

func TestClassifier_IncompleteSet(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	res, err := c.Classify([]core.LandmarkSet{make(core.LandmarkSet, 100)})
	require.ErrorIs(t, err, landmarks.ErrIncomplete)
	assert.True(t, res.LookingAway)
	assert.False(t, res.FaceDetected)
}
