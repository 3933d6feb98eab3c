// Package landmarks defines the face landmark source contract and the wire
// format spoken by the external landmark sidecar.
package landmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/gaze/pkg/core"
)

var (
	// ErrIncomplete is returned for a set that lacks the classifier's indices.
	ErrIncomplete = errors.New("landmark set incomplete")
	// ErrNonFinite is returned for a set holding NaN or infinite coordinates.
	ErrNonFinite = errors.New("landmark set has non-finite coordinates")
)

// Source detects face landmarks in a frame. Implementations return zero or
// more sets; only the first is consumed.
type Source interface {
	Detect(ctx context.Context, frame core.Frame) ([]core.LandmarkSet, error)
}

// First returns the first reported face.
func First(sets []core.LandmarkSet) (core.LandmarkSet, bool) {
	if len(sets) == 0 {
		return nil, false
	}
	return sets[0], true
}

// Validate checks that a set can be classified.
func Validate(lm core.LandmarkSet) error {
	if len(lm) < core.MinLandmarks {
		return fmt.Errorf("%w: got %d points, need %d", ErrIncomplete, len(lm), core.MinLandmarks)
	}
	for _, i := range []int{core.NoseTip, core.ForeheadTop, core.ChinBottom, core.LeftCheek, core.RightCheek} {
		p := lm[i]
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}
	return nil
}

// Reply is one sidecar response. Faces holds [x,y] pairs per point.
type Reply struct {
	Seq   uint64         `json:"seq"`
	Faces [][][2]float64 `json:"faces"`
	Error string         `json:"error,omitempty"`
}

// Sets converts the reply faces to landmark sets.
func (r Reply) Sets() []core.LandmarkSet {
	return toSets(r.Faces)
}

// Parse decodes a sidecar reply.
func Parse(data []byte) (Reply, error) {
	var r Reply
	if err := json.Unmarshal(data, &r); err != nil {
		return Reply{}, fmt.Errorf("failed to parse landmark reply: %w", err)
	}
	return r, nil
}

func toSets(faces [][][2]float64) []core.LandmarkSet {
	if len(faces) == 0 {
		return nil
	}
	sets := make([]core.LandmarkSet, len(faces))
	for i, f := range faces {
		set := make(core.LandmarkSet, len(f))
		for j, xy := range f {
			set[j] = core.Point{X: xy[0], Y: xy[1]}
		}
		sets[i] = set
	}
	return sets
}

// FromSets converts landmark sets to the wire representation.
func FromSets(sets []core.LandmarkSet) [][][2]float64 {
	faces := make([][][2]float64, len(sets))
	for i, set := range sets {
		f := make([][2]float64, len(set))
		for j, p := range set {
			f[j] = [2]float64{p.X, p.Y}
		}
		faces[i] = f
	}
	return faces
}
