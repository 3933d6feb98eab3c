package pipeline

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/gaze/internal/pipeline"

type instruments struct {
	processed  metric.Int64Counter
	faceless   metric.Int64Counter
	sent       metric.Int64Counter
	suppressed metric.Int64Counter
	notifyErr  metric.Int64Counter
}

func newInstruments() (*instruments, error) {
	m := otel.Meter(instrumentationName)
	in := &instruments{}

	var err error
	if in.processed, err = m.Int64Counter("gaze.frames.processed",
		metric.WithDescription("Frames run through the classifier")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if in.faceless, err = m.Int64Counter("gaze.frames.faceless",
		metric.WithDescription("Frames with no usable face")); err != nil {
		return nil, fmt.Errorf("creating faceless counter: %w", err)
	}
	if in.sent, err = m.Int64Counter("gaze.notifications.sent",
		metric.WithDescription("State change notifications emitted")); err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}
	if in.suppressed, err = m.Int64Counter("gaze.notifications.suppressed",
		metric.WithDescription("Verdict changes held back by the debouncer")); err != nil {
		return nil, fmt.Errorf("creating suppressed counter: %w", err)
	}
	if in.notifyErr, err = m.Int64Counter("gaze.notify.errors",
		metric.WithDescription("Notification sends that failed")); err != nil {
		return nil, fmt.Errorf("creating notify error counter: %w", err)
	}
	return in, nil
}
