package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/gaze/internal/landmarks"
	"github.com/OCAP2/gaze/pkg/core"
)

const maxRecordSize = 4 << 20

// Record is one line of a replay file.
type Record struct {
	AtMs  int64          `json:"atMs"`
	Faces [][][2]float64 `json:"faces"`
}

// Replay plays back recorded landmark frames. It is both the frame source
// and the landmark source: Detect returns the faces recorded for the frame
// most recently returned by Next.
type Replay struct {
	scanner  *bufio.Scanner
	closer   io.Closer
	start    time.Time
	realtime bool
	sleep    func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	seq     uint64
	current []core.LandmarkSet
	wallT0  time.Time
}

// ReplayConfig configures playback.
type ReplayConfig struct {
	Start    time.Time // timestamp assigned to atMs=0
	Realtime bool      // pace frames by their recorded offsets
}

// OpenReplay opens a replay file.
func OpenReplay(path string, cfg ReplayConfig) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	return NewReplay(f, cfg), nil
}

// NewReplay plays back records read from r. If r is an io.Closer it is
// closed by Close.
func NewReplay(r io.Reader, cfg ReplayConfig) *Replay {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}

	rp := &Replay{
		scanner:  scanner,
		start:    start,
		realtime: cfg.Realtime,
		sleep:    sleepCtx,
	}
	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}
	return rp
}

// Next returns the next recorded frame.
func (r *Replay) Next(ctx context.Context) (core.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return core.Frame{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return core.Frame{}, fmt.Errorf("failed to read replay: %w", err)
			}
			return core.Frame{}, ErrStreamEnded
		}
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return core.Frame{}, fmt.Errorf("failed to parse replay record: %w", err)
		}

		offset := time.Duration(rec.AtMs) * time.Millisecond
		if r.realtime {
			if err := r.pace(ctx, offset); err != nil {
				return core.Frame{}, err
			}
		}

		r.mu.Lock()
		r.seq++
		r.current = landmarks.Reply{Faces: rec.Faces}.Sets()
		seq := r.seq
		r.mu.Unlock()

		return core.Frame{Seq: seq, CapturedAt: r.start.Add(offset)}, nil
	}
}

func (r *Replay) pace(ctx context.Context, offset time.Duration) error {
	if r.wallT0.IsZero() {
		r.wallT0 = time.Now()
	}
	wait := time.Until(r.wallT0.Add(offset))
	if wait <= 0 {
		return nil
	}
	return r.sleep(ctx, wait)
}

// Detect returns the recorded faces for frame.
func (r *Replay) Detect(_ context.Context, frame core.Frame) ([]core.LandmarkSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if frame.Seq != r.seq {
		return nil, fmt.Errorf("replay has no record for frame %d", frame.Seq)
	}
	return r.current, nil
}

// Close closes the underlying reader.
func (r *Replay) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
