// Package pipeline runs the per-frame loop: capture, detect, classify,
// debounce, notify, render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/gaze/internal/capture"
	"github.com/OCAP2/gaze/internal/debounce"
	"github.com/OCAP2/gaze/internal/dispatcher"
	"github.com/OCAP2/gaze/internal/gaze"
	"github.com/OCAP2/gaze/internal/landmarks"
	"github.com/OCAP2/gaze/internal/notifier"
	"github.com/OCAP2/gaze/internal/session"
	"github.com/OCAP2/gaze/pkg/core"
)

// DefaultStatsWindow is the length of a FrameStats window.
const DefaultStatsWindow = time.Second

// Renderer draws the verdict for a frame.
type Renderer interface {
	Render(frame core.Frame, status core.Status) error
}

// Publisher receives loop events for asynchronous side effects.
type Publisher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Recorder persists raw landmark output for later replay.
type Recorder interface {
	Write(frame core.Frame, sets []core.LandmarkSet) error
}

// Dependencies holds everything the loop talks to. Renderer, Publisher and
// Recorder are optional.
type Dependencies struct {
	Capture     capture.Source
	Landmarks   landmarks.Source
	Classifier  *gaze.Classifier
	Debouncer   *debounce.Debouncer
	Notifier    notifier.Notifier
	Renderer    Renderer
	Publisher   Publisher
	Recorder    Recorder
	Session     *session.Context
	Logger      *slog.Logger
	StatsWindow time.Duration
}

// Snapshot is a point-in-time view of loop counters.
type Snapshot struct {
	Frames        uint64    `json:"frames"`
	Faceless      uint64    `json:"faceless"`
	Notifications uint64    `json:"notifications"`
	Suppressed    uint64    `json:"suppressed"`
	NotifyErrors  uint64    `json:"notifyErrors"`
	DetectErrors  uint64    `json:"detectErrors"`
	LookingAway   bool      `json:"lookingAway"`
	LastFrameAt   time.Time `json:"lastFrameAt"`
}

// Loop is the frame loop. Run must not be called concurrently.
type Loop struct {
	deps    Dependencies
	logger  *slog.Logger
	metrics *instruments

	window core.FrameStats

	mu   sync.RWMutex
	snap Snapshot
}

// New validates deps and creates a Loop.
func New(deps Dependencies) (*Loop, error) {
	switch {
	case deps.Capture == nil:
		return nil, errors.New("pipeline: capture source is required")
	case deps.Landmarks == nil:
		return nil, errors.New("pipeline: landmark source is required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Debouncer == nil:
		return nil, errors.New("pipeline: debouncer is required")
	case deps.Notifier == nil:
		return nil, errors.New("pipeline: notifier is required")
	case deps.Session == nil:
		return nil, errors.New("pipeline: session is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.StatsWindow <= 0 {
		deps.StatsWindow = DefaultStatsWindow
	}

	in, err := newInstruments()
	if err != nil {
		return nil, err
	}

	return &Loop{
		deps:    deps,
		logger:  deps.Logger.With("component", "pipeline"),
		metrics: in,
	}, nil
}

// Run processes frames until ctx is canceled or the capture source ends,
// both of which return nil. Any other capture failure is returned.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("frame loop started",
		"yawThreshold", l.deps.Classifier.Thresholds().Yaw,
		"pitchThreshold", l.deps.Classifier.Thresholds().Pitch,
		"minInterval", l.deps.Debouncer.MinInterval())

	for {
		frame, err := l.deps.Capture.Next(ctx)
		if err == nil {
			err = l.process(ctx, frame)
		}
		if err != nil {
			l.flushWindow()
			if errors.Is(err, capture.ErrStreamEnded) || ctx.Err() != nil {
				l.logger.Info("frame loop stopped", "frames", l.Snapshot().Frames)
				return nil
			}
			return fmt.Errorf("capture failed: %w", err)
		}
	}
}

// process handles one frame. It only returns an error when ctx is done.
func (l *Loop) process(ctx context.Context, frame core.Frame) error {
	now := frame.CapturedAt
	if now.IsZero() {
		now = time.Now()
		frame.CapturedAt = now
	}

	sets, err := l.deps.Landmarks.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("landmark detection failed", "seq", frame.Seq, "error", err)
		l.window.DetectErrors++
		l.bump(func(s *Snapshot) { s.DetectErrors++ })
		sets = nil
	}

	if l.deps.Recorder != nil {
		if err := l.deps.Recorder.Write(frame, sets); err != nil {
			l.logger.Warn("failed to record frame", "seq", frame.Seq, "error", err)
		}
	}

	result, err := l.deps.Classifier.Classify(sets)
	if err != nil {
		l.logger.Debug("landmark set rejected", "seq", frame.Seq, "error", err)
	}

	l.metrics.processed.Add(ctx, 1)
	if !result.FaceDetected {
		l.metrics.faceless.Add(ctx, 1)
	}
	l.account(frame, result)

	pending := l.deps.Debouncer.Pending(result.LookingAway)
	if msg, ok := l.deps.Debouncer.MaybeNotify(result.LookingAway, now); ok {
		l.notify(ctx, frame, result, msg)
	} else if pending {
		l.window.Suppressed++
		l.bump(func(s *Snapshot) { s.Suppressed++ })
		l.metrics.suppressed.Add(ctx, 1)
	}

	if l.deps.Renderer != nil {
		status := core.Status{
			Seq:          frame.Seq,
			LookingAway:  result.LookingAway,
			FaceDetected: result.FaceDetected,
			Pose:         result.Pose,
			Face:         result.Face,
		}
		if err := l.deps.Renderer.Render(frame, status); err != nil {
			l.logger.Warn("render failed", "seq", frame.Seq, "error", err)
		}
	}

	return nil
}

func (l *Loop) notify(ctx context.Context, frame core.Frame, result gaze.Result, msg core.Message) {
	attrs := metric.WithAttributes(attribute.String("message", string(msg)))

	if err := l.deps.Notifier.Notify(ctx, msg); err != nil {
		l.logger.Debug("notification not delivered", "message", msg, "error", err)
		l.metrics.notifyErr.Add(ctx, 1, attrs)
		l.bump(func(s *Snapshot) { s.NotifyErrors++ })
	}
	l.metrics.sent.Add(ctx, 1, attrs)
	l.bump(func(s *Snapshot) { s.Notifications++ })

	l.deps.Session.SetState(msg, frame.CapturedAt)
	l.logger.Info("state changed", "message", msg, "seq", frame.Seq,
		"yaw", result.Pose.Yaw, "noseRelative", result.Pose.NoseRelative)

	t := core.Transition{
		SessionID:    l.deps.Session.Session().ID,
		Seq:          frame.Seq,
		Time:         frame.CapturedAt,
		Message:      msg,
		FaceDetected: result.FaceDetected,
		Pose:         result.Pose,
	}
	if result.FaceDetected {
		t.NoseTip = result.Face[core.NoseTip]
	}
	l.publish(core.CommandStateChanged, t, frame.CapturedAt)
}

func (l *Loop) account(frame core.Frame, result gaze.Result) {
	if l.window.Frames > 0 && frame.CapturedAt.Sub(l.window.WindowStart) >= l.deps.StatsWindow {
		l.flushWindow()
	}
	if l.window.Frames == 0 {
		l.window.SessionID = l.deps.Session.Session().ID
		l.window.WindowStart = frame.CapturedAt
	}

	l.window.Frames++
	l.window.WindowEnd = frame.CapturedAt
	if !result.FaceDetected {
		l.window.FacelessCount++
	}
	if result.LookingAway {
		l.window.AwayCount++
	}

	l.bump(func(s *Snapshot) {
		s.Frames++
		if !result.FaceDetected {
			s.Faceless++
		}
		s.LookingAway = result.LookingAway
		s.LastFrameAt = frame.CapturedAt
	})
}

// flushWindow publishes the current stats window, if it has any frames.
func (l *Loop) flushWindow() {
	if l.window.Frames == 0 {
		return
	}
	stats := l.window
	l.window = core.FrameStats{}
	l.publish(core.CommandFrameStats, stats, stats.WindowEnd)
}

func (l *Loop) publish(command string, payload any, at time.Time) {
	if l.deps.Publisher == nil {
		return
	}
	_, err := l.deps.Publisher.Dispatch(dispatcher.Event{
		Command:   command,
		Payload:   payload,
		Timestamp: at,
	})
	if err != nil {
		l.logger.Warn("failed to publish event", "command", command, "error", err)
	}
}

func (l *Loop) bump(f func(*Snapshot)) {
	l.mu.Lock()
	f(&l.snap)
	l.mu.Unlock()
}

// Snapshot returns the current counters. Safe for concurrent use.
func (l *Loop) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}
