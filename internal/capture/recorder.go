package capture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OCAP2/gaze/internal/landmarks"
	"github.com/OCAP2/gaze/pkg/core"
)

// Recorder writes detected landmarks in the replay format so a live session
// can be played back later.
type Recorder struct {
	file  *os.File
	w     *bufio.Writer
	start time.Time
}

// CreateRecorder creates (or truncates) a replay file.
func CreateRecorder(path string, start time.Time) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create replay directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create replay file: %w", err)
	}
	return &Recorder{file: f, w: bufio.NewWriter(f), start: start}, nil
}

// Write appends one frame.
func (r *Recorder) Write(frame core.Frame, sets []core.LandmarkSet) error {
	rec := Record{
		AtMs:  frame.CapturedAt.Sub(r.start).Milliseconds(),
		Faces: landmarks.FromSets(sets),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode replay record: %w", err)
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write replay record: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush replay file: %w", err)
	}
	return r.file.Close()
}
