// pkg/core/landmark.go
package core

import "time"

// Landmark indices consumed by the gaze classifier. Indexing follows the
// 468-point face mesh topology.
const (
	NoseTip     = 1
	ForeheadTop = 10
	ChinBottom  = 152
	LeftCheek   = 234
	RightCheek  = 454
)

// MinLandmarks is the smallest landmark set that contains every index the
// classifier reads.
const MinLandmarks = RightCheek + 1

// Point is a landmark position normalized to [0,1] of frame width and height.
type Point struct {
	X float64
	Y float64
}

// LandmarkSet is one detected face, indexed positionally.
type LandmarkSet []Point

// Frame is a single captured image handed from the capture source to the
// landmark source. Pixels holds tightly packed RGB24 rows and may be empty
// for sources that carry landmarks themselves (replay).
type Frame struct {
	Seq        uint64
	CapturedAt time.Time
	Width      int
	Height     int
	Pixels     []byte
}
