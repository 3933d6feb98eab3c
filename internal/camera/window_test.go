package camera

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/gaze/pkg/core"
)

func TestLabel(t *testing.T) {
	text, c := Label(true)
	assert.Equal(t, "LOOKING_AWAY", text)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, c)

	text, c = Label(false)
	assert.Equal(t, "LOOKING", text)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, c)
}

func TestFaceBounds(t *testing.T) {
	face := core.LandmarkSet{
		{X: 0.25, Y: 0.5},
		{X: 0.75, Y: 0.25},
		{X: 0.5, Y: 0.75},
	}
	assert.Equal(t, image.Rect(160, 120, 480, 360), faceBounds(face, 640, 480))
	assert.Equal(t, image.Rectangle{}, faceBounds(nil, 640, 480))
}
