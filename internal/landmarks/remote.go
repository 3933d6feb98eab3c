package landmarks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/OCAP2/gaze/pkg/core"
)

const (
	replyChSize    = 16
	maxReconnect   = 10
	maxBackoff     = 30 * time.Second
	writeWait      = 5 * time.Second
	defaultTimeout = 2 * time.Second
)

// ErrDisconnected is returned by Detect while the sidecar link is down.
var ErrDisconnected = errors.New("landmark sidecar disconnected")

// RemoteConfig holds the sidecar connection settings.
type RemoteConfig struct {
	URL     string
	Timeout time.Duration // per-frame reply timeout
}

// Remote is a Source backed by a landmark sidecar reachable over WebSocket.
// Each frame goes out as one binary message and the sidecar answers with a
// JSON Reply carrying the same seq.
type Remote struct {
	cfg    RemoteConfig
	logger *slog.Logger

	mu      sync.Mutex
	conn    *ws.Conn
	replies chan Reply
	done    chan struct{}
	closed  bool
}

// NewRemote creates a remote source. Call Dial before Detect.
func NewRemote(cfg RemoteConfig, logger *slog.Logger) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		cfg:     cfg,
		logger:  logger,
		replies: make(chan Reply, replyChSize),
		done:    make(chan struct{}),
	}
}

// Dial connects to the sidecar and starts the read loop.
func (r *Remote) Dial() error {
	conn, err := r.dialOnce()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	go r.readLoop(conn)
	return nil
}

func (r *Remote) dialOnce() (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.Dial(r.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("landmark sidecar dial failed: %w", err)
	}
	return conn, nil
}

// Detect sends the frame and waits for the matching reply.
func (r *Remote) Detect(ctx context.Context, frame core.Frame) ([]core.LandmarkSet, error) {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()

	if conn == nil {
		return nil, ErrDisconnected
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		go r.reconnect(conn)
		return nil, fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(ws.BinaryMessage, EncodeFrame(frame)); err != nil {
		go r.reconnect(conn)
		return nil, fmt.Errorf("send frame %d: %w", frame.Seq, err)
	}

	timer := time.NewTimer(r.cfg.Timeout)
	defer timer.Stop()

	for {
		select {
		case reply := <-r.replies:
			if reply.Seq < frame.Seq {
				// late answer to a frame we already gave up on
				continue
			}
			if reply.Seq > frame.Seq {
				return nil, fmt.Errorf("reply for frame %d while waiting for %d", reply.Seq, frame.Seq)
			}
			if reply.Error != "" {
				return nil, fmt.Errorf("sidecar error for frame %d: %s", frame.Seq, reply.Error)
			}
			return reply.Sets(), nil
		case <-timer.C:
			return nil, fmt.Errorf("timeout waiting for landmarks of frame %d", frame.Seq)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.done:
			return nil, ErrDisconnected
		}
	}
}

func (r *Remote) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			r.logger.Warn("Landmark sidecar read error", "error", err)
			go r.reconnect(conn)
			return
		}

		reply, err := Parse(message)
		if err != nil {
			r.logger.Debug("Unparseable sidecar message", "error", err)
			continue
		}

		select {
		case r.replies <- reply:
		default:
			r.logger.Debug("Reply channel full, dropping", "seq", reply.Seq)
		}
	}
}

// reconnect replaces a broken connection using exponential backoff. It is a
// no-op if broken has already been replaced.
func (r *Remote) reconnect(broken *ws.Conn) {
	r.mu.Lock()
	if r.closed || r.conn != broken {
		r.mu.Unlock()
		return
	}
	_ = broken.Close()
	r.conn = nil
	r.mu.Unlock()

	backoff := time.Second
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-r.done:
			return
		case <-time.After(backoff):
		}

		r.logger.Info("Reconnecting to landmark sidecar", "attempt", attempt)
		conn, err := r.dialOnce()
		if err != nil {
			r.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			_ = conn.Close()
			return
		}
		r.conn = conn
		r.mu.Unlock()

		r.logger.Info("Landmark sidecar reconnected", "attempt", attempt)
		go r.readLoop(conn)
		return
	}

	r.logger.Error("Landmark sidecar reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// Connected reports whether a sidecar connection is currently up.
func (r *Remote) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Close sends a close frame and stops the read loop.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	return nil
}
