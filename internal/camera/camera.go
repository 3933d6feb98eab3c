// Package camera captures frames from a local video device and shows the
// verdict in a preview window. It needs OpenCV through gocv.
package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/OCAP2/gaze/internal/capture"
	"github.com/OCAP2/gaze/pkg/core"
)

// Camera is a capture.Source backed by an OpenCV video device.
type Camera struct {
	device int
	vc     *gocv.VideoCapture
	bgr    gocv.Mat
	rgb    gocv.Mat

	mu     sync.Mutex
	seq    uint64
	closed bool
}

// Open opens the video device with the given index.
func Open(device int) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video device %d: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video device %d is not available", device)
	}
	return &Camera{
		device: device,
		vc:     vc,
		bgr:    gocv.NewMat(),
		rgb:    gocv.NewMat(),
	}, nil
}

// Next reads one frame and converts it to RGB. A failed read ends the
// stream.
func (c *Camera) Next(ctx context.Context) (core.Frame, error) {
	if err := ctx.Err(); err != nil {
		return core.Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.Frame{}, capture.ErrStreamEnded
	}

	if !c.vc.Read(&c.bgr) || c.bgr.Empty() {
		return core.Frame{}, capture.ErrStreamEnded
	}
	capturedAt := time.Now()

	gocv.CvtColor(c.bgr, &c.rgb, gocv.ColorBGRToRGB)

	c.seq++
	return core.Frame{
		Seq:        c.seq,
		CapturedAt: capturedAt,
		Width:      c.rgb.Cols(),
		Height:     c.rgb.Rows(),
		Pixels:     c.rgb.ToBytes(),
	}, nil
}

// Device returns the device index.
func (c *Camera) Device() int {
	return c.device
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.vc.Close(), c.bgr.Close(), c.rgb.Close())
}
