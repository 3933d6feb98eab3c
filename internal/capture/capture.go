// Package capture provides frame sources for the watcher loop.
package capture

import (
	"context"
	"errors"

	"github.com/OCAP2/gaze/pkg/core"
)

// ErrStreamEnded is returned by Next once the source has no more frames.
var ErrStreamEnded = errors.New("capture stream ended")

// Source produces frames one at a time.
type Source interface {
	Next(ctx context.Context) (core.Frame, error)
	Close() error
}
