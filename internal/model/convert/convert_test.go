package convert

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gaze/pkg/core"
)

var (
	sessionID = uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	t0        = time.Date(2026, 4, 2, 8, 15, 0, 0, time.UTC)
)

func TestCoreToSession(t *testing.T) {
	s := core.Session{
		ID:             sessionID,
		StartTime:      t0,
		Source:         "camera",
		Host:           "desk-01",
		Version:        "1.2.0",
		YawThreshold:   0.08,
		PitchThreshold: 0.5,
		MinInterval:    100 * time.Millisecond,
		Settings:       map[string]string{"device": "0"},
	}

	g := CoreToSession(s)
	assert.Equal(t, sessionID, g.ID)
	assert.False(t, g.EndTime.Valid)
	assert.Equal(t, int64(100), g.MinIntervalMs)
	assert.JSONEq(t, `{"device":"0"}`, string(g.Settings))

	back := SessionToCore(g)
	assert.Equal(t, s, back)
}

func TestCoreToSession_Ended(t *testing.T) {
	s := core.Session{ID: sessionID, StartTime: t0, EndTime: t0.Add(time.Hour)}
	g := CoreToSession(s)
	require.True(t, g.EndTime.Valid)
	assert.Equal(t, t0.Add(time.Hour), g.EndTime.Time)
	assert.Nil(t, g.Settings)
	assert.Equal(t, t0.Add(time.Hour), SessionToCore(g).EndTime)
}

func TestCoreToTransition(t *testing.T) {
	tr := core.Transition{
		SessionID:    sessionID,
		Seq:          42,
		Time:         t0,
		Message:      core.MessageLookingAway,
		FaceDetected: true,
		Pose:         core.Pose{Yaw: 0.125, NoseRelative: 0.75},
		NoseTip:      core.Point{X: 0.625, Y: 0.625},
	}

	g, err := CoreToTransition(tr)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), g.FrameSeq)
	assert.Equal(t, "LOOKING_AWAY", g.Message)
	assert.True(t, g.LookingAway)

	xy, ok := g.NoseTip.XY()
	require.True(t, ok)
	assert.Equal(t, geom.XY{X: 0.625, Y: 0.625}, xy)

	assert.Equal(t, tr, TransitionToCore(g))
}

func TestCoreToTransition_Faceless(t *testing.T) {
	tr := core.Transition{SessionID: sessionID, Time: t0, Message: core.MessageLookingAway}

	g, err := CoreToTransition(tr)
	require.NoError(t, err)
	assert.True(t, g.NoseTip.IsEmpty())
	assert.Equal(t, core.Point{}, TransitionToCore(g).NoseTip)
}

func TestCoreToTransition_NonFiniteNose(t *testing.T) {
	tr := core.Transition{
		SessionID:    sessionID,
		Time:         t0,
		Message:      core.MessageLooking,
		FaceDetected: true,
		NoseTip:      core.Point{X: math.NaN(), Y: 0.5},
	}

	_, err := CoreToTransition(tr)
	assert.ErrorContains(t, err, "nose tip")
}

func TestCoreToFrameStats(t *testing.T) {
	s := core.FrameStats{
		SessionID:     sessionID,
		WindowStart:   t0,
		WindowEnd:     t0.Add(500 * time.Millisecond),
		Frames:        15,
		FacelessCount: 3,
		AwayCount:     5,
		Suppressed:    1,
		DetectErrors:  2,
	}

	g := CoreToFrameStats(s)
	assert.Equal(t, uint32(3), g.Faceless)
	assert.Equal(t, uint32(5), g.Away)
	assert.Equal(t, 30.0, g.FPS)

	assert.Equal(t, s, FrameStatsToCore(g))
}
