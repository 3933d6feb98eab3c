// Package notifier delivers attention state changes to consumers. Delivery
// is best-effort: nothing is acknowledged or retried.
package notifier

import (
	"context"
	"errors"

	"github.com/OCAP2/gaze/pkg/core"
)

// Notifier sends one state-change message.
type Notifier interface {
	Notify(ctx context.Context, msg core.Message) error
	Close() error
}

// Multi fans a message out to several notifiers.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier, skipping nil entries.
func NewMulti(notifiers ...Notifier) *Multi {
	valid := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			valid = append(valid, n)
		}
	}
	return &Multi{notifiers: valid}
}

// Notify sends to every notifier. A failing notifier does not stop the rest.
func (m *Multi) Notify(ctx context.Context, msg core.Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every notifier.
func (m *Multi) Close() error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped notifiers.
func (m *Multi) Len() int {
	return len(m.notifiers)
}
