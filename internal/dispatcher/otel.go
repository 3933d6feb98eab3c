package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/gaze/internal/dispatcher"

type instruments struct {
	queueSize      metric.Int64ObservableGauge
	processedCount metric.Int64Counter
	droppedCount   metric.Int64Counter
	failedCount    metric.Int64Counter
}

// newInstruments creates the dispatcher metrics on the global meter. observe
// reports the queue lengths on every collection.
func newInstruments(observe func() map[string]int) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	in := &instruments{}

	var err error
	in.queueSize, err = m.Int64ObservableGauge(
		"gaze.dispatcher.queue.size",
		metric.WithDescription("Events waiting in a handler queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for cmd, n := range observe() {
			o.ObserveInt64(in.queueSize, int64(n), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, in.queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if in.processedCount, err = m.Int64Counter(
		"gaze.dispatcher.events.processed",
		metric.WithDescription("Buffered events handled"),
	); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if in.droppedCount, err = m.Int64Counter(
		"gaze.dispatcher.events.dropped",
		metric.WithDescription("Events dropped because the queue was full"),
	); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	if in.failedCount, err = m.Int64Counter(
		"gaze.dispatcher.events.failed",
		metric.WithDescription("Buffered events whose handler returned an error"),
	); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	return in, nil
}

func (in *instruments) processed(command string) {
	in.processedCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}

func (in *instruments) dropped(command string) {
	in.droppedCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}

func (in *instruments) failed(command string) {
	in.failedCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}
