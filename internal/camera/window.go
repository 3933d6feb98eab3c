package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/OCAP2/gaze/pkg/core"
)

const (
	escKey = 27

	canvasWidth  = 640
	canvasHeight = 480
)

var (
	awayColor    = color.RGBA{R: 255, A: 255}
	lookingColor = color.RGBA{B: 255, A: 255}
	boundsColor  = color.RGBA{G: 200, A: 255}
	labelOrigin  = image.Point{X: 30, Y: 30}
)

// Label returns the overlay text and color for a verdict.
func Label(lookingAway bool) (string, color.RGBA) {
	text := string(core.MessageFor(lookingAway))
	if lookingAway {
		return text, awayColor
	}
	return text, lookingColor
}

// Window is a preview renderer. Pressing ESC calls cancel.
type Window struct {
	win    *gocv.Window
	cancel context.CancelFunc
	bounds bool
}

// NewWindow opens a preview window. When showBounds is set, the face
// bounding box is drawn too.
func NewWindow(title string, cancel context.CancelFunc, showBounds bool) *Window {
	return &Window{
		win:    gocv.NewWindow(title),
		cancel: cancel,
		bounds: showBounds,
	}
}

// Render draws the verdict on the frame and shows it. Frames without pixels
// (replays) are drawn on a blank canvas.
func (w *Window) Render(frame core.Frame, status core.Status) error {
	img, err := canvas(frame)
	if err != nil {
		return err
	}
	defer img.Close()

	text, c := Label(status.LookingAway)

	if w.bounds && status.FaceDetected {
		gocv.Rectangle(&img, faceBounds(status.Face, img.Cols(), img.Rows()), boundsColor, 1)
	}
	gocv.PutText(&img, text, labelOrigin, gocv.FontHersheySimplex, 1, c, 2)

	w.win.IMShow(img)
	if w.win.WaitKey(1) == escKey && w.cancel != nil {
		w.cancel()
	}
	return nil
}

// Close closes the window.
func (w *Window) Close() error {
	return w.win.Close()
}

func canvas(frame core.Frame) (gocv.Mat, error) {
	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Pixels) == 0 {
		return gocv.NewMatWithSize(canvasHeight, canvasWidth, gocv.MatTypeCV8UC3), nil
	}

	rgb, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pixels)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap frame pixels: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

// faceBounds returns the pixel rectangle around a normalized landmark set.
func faceBounds(face core.LandmarkSet, width, height int) image.Rectangle {
	if len(face) == 0 {
		return image.Rectangle{}
	}
	minX, minY := face[0].X, face[0].Y
	maxX, maxY := minX, minY
	for _, p := range face[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return image.Rect(
		int(minX*float64(width)), int(minY*float64(height)),
		int(maxX*float64(width)), int(maxY*float64(height)),
	)
}
