package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/gaze/pkg/core"
)

// Context holds the running session and the last notified state. It is
// shared by the frame loop, the monitor and the log context provider.
type Context struct {
	mu           sync.RWMutex
	session      *core.Session
	state        core.Message
	lastNotified time.Time
}

// NewContext creates a Context for s.
func NewContext(s *core.Session) *Context {
	return &Context{session: s}
}

// Session returns the current session.
func (c *Context) Session() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetState records a notification that was sent at t.
func (c *Context) SetState(msg core.Message, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = msg
	c.lastNotified = t
}

// State returns the last notified message and when it was sent. The
// message is empty before the first notification.
func (c *Context) State() (core.Message, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.lastNotified
}

// End stamps the session end time and returns a copy.
func (c *Context) End(t time.Time) core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.EndTime = t
	return *c.session
}

// LogAttrs is a logging.ContextProvider adding session and state to every
// record.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	attrs := make([]slog.Attr, 0, 2)
	if c.session != nil {
		attrs = append(attrs, slog.String("session", c.session.ID.String()))
	}
	if c.state != "" {
		attrs = append(attrs, slog.String("state", string(c.state)))
	}
	return attrs
}
