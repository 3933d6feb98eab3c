// Package debounce decides when a gaze verdict change is worth a notification.
package debounce

import (
	"time"

	"github.com/OCAP2/gaze/pkg/core"
)

// DefaultMinInterval is the minimum spacing between two emitted messages.
const DefaultMinInterval = 100 * time.Millisecond

// Debouncer tracks the last notified verdict. It is owned by a single loop
// and is not safe for concurrent use.
type Debouncer struct {
	minInterval time.Duration

	notified     bool // false until the first emission
	lastVerdict  bool
	lastNotified time.Time
}

// New creates a debouncer. A non-positive interval falls back to
// DefaultMinInterval.
func New(minInterval time.Duration) *Debouncer {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Debouncer{minInterval: minInterval}
}

// MinInterval returns the configured interval.
func (d *Debouncer) MinInterval() time.Duration {
	return d.minInterval
}

// MaybeNotify returns the message to send for lookingAway at now, if any.
// A message is produced only when the verdict differs from the last one
// actually sent and at least MinInterval has passed since that send.
// Suppressed calls leave the state untouched.
func (d *Debouncer) MaybeNotify(lookingAway bool, now time.Time) (core.Message, bool) {
	if d.notified {
		if lookingAway == d.lastVerdict {
			return "", false
		}
		if now.Sub(d.lastNotified) < d.minInterval {
			return "", false
		}
	}

	d.notified = true
	d.lastVerdict = lookingAway
	d.lastNotified = now
	return core.MessageFor(lookingAway), true
}

// Pending reports whether lookingAway differs from the last sent verdict,
// which is what a suppressed call looks like to callers counting drops.
func (d *Debouncer) Pending(lookingAway bool) bool {
	return !d.notified || lookingAway != d.lastVerdict
}

// Last returns the last sent message and when it was sent. ok is false
// before the first emission.
func (d *Debouncer) Last() (msg core.Message, at time.Time, ok bool) {
	if !d.notified {
		return "", time.Time{}, false
	}
	return core.MessageFor(d.lastVerdict), d.lastNotified, true
}
