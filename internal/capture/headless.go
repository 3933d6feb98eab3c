package capture

import (
	"log/slog"

	"github.com/OCAP2/gaze/pkg/core"
)

// Headless is a renderer for runs without a preview window. It logs the
// displayed verdict whenever it changes.
type Headless struct {
	logger *slog.Logger
	shown  bool
	away   bool
}

// NewHeadless creates a headless renderer.
func NewHeadless(logger *slog.Logger) *Headless {
	return &Headless{logger: logger}
}

// Render implements the frame loop's renderer.
func (h *Headless) Render(frame core.Frame, status core.Status) error {
	if h.shown && h.away == status.LookingAway {
		return nil
	}
	h.shown = true
	h.away = status.LookingAway
	h.logger.Debug("verdict", "seq", frame.Seq,
		"label", string(core.MessageFor(status.LookingAway)),
		"faceDetected", status.FaceDetected)
	return nil
}
