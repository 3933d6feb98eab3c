package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageLiterals(t *testing.T) {
	assert.Equal(t, []byte("LOOKING_AWAY"), MessageLookingAway.Bytes())
	assert.Equal(t, []byte("LOOKING"), MessageLooking.Bytes())
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, MessageLookingAway, MessageFor(true))
	assert.Equal(t, MessageLooking, MessageFor(false))
	assert.True(t, MessageLookingAway.LookingAway())
	assert.False(t, MessageLooking.LookingAway())
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		in     string
		want   Message
		wantOK bool
	}{
		{"LOOKING_AWAY", MessageLookingAway, true},
		{"LOOKING", MessageLooking, true},
		{"LOOKING ", "", false},
		{"looking", "", false},
		{"LOOKING_AW", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMessage([]byte(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrameStats(t *testing.T) {
	s := FrameStats{Frames: 30, AwayCount: 15}
	assert.Equal(t, 0.0, s.FPS())
	assert.Equal(t, 0.5, s.AwayRatio())
	assert.Equal(t, 0.0, FrameStats{}.AwayRatio())
}
