package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/OCAP2/gaze/internal/api"
	"github.com/OCAP2/gaze/internal/camera"
	"github.com/OCAP2/gaze/internal/capture"
	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/landmarks"
	"github.com/OCAP2/gaze/internal/pipeline"
)

const sidecarWaitTimeout = 30 * time.Second

// inputs bundles the frame side of the loop.
type inputs struct {
	frames    capture.Source
	landmarks landmarks.Source
	renderer  pipeline.Renderer
	recorder  pipeline.Recorder
	closers   []io.Closer
}

// Close releases everything in reverse order of opening.
func (in *inputs) Close() error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openInputs(ctx context.Context, cfg config.CaptureConfig, lmCfg config.LandmarksConfig, cancel context.CancelFunc) (*inputs, error) {
	in := &inputs{}

	switch strings.ToLower(cfg.Source) {
	case "replay":
		if cfg.ReplayFile == "" {
			return nil, errors.New("capture.replayFile is required for replay")
		}
		replay, err := capture.OpenReplay(cfg.ReplayFile, capture.ReplayConfig{
			Start:    SessionStartTime,
			Realtime: cfg.Realtime,
		})
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, replay)
		in.frames = replay
		in.landmarks = replay
		Logger.Info("Replaying landmark recording", "file", cfg.ReplayFile, "realtime", cfg.Realtime)

	case "", "camera":
		cam, err := camera.Open(cfg.Device)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, cam)
		in.frames = cam

		remote, err := dialSidecar(ctx, lmCfg)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.closers = append(in.closers, remote)
		in.landmarks = remote
		Logger.Info("Camera opened", "device", cam.Device(), "sidecar", lmCfg.URL)

	default:
		return nil, fmt.Errorf("unknown capture source: %s", cfg.Source)
	}

	if cfg.RecordFile != "" {
		rec, err := capture.CreateRecorder(cfg.RecordFile, SessionStartTime)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.closers = append(in.closers, rec)
		in.recorder = rec
		Logger.Info("Recording landmarks", "file", cfg.RecordFile)
	}

	if cfg.Preview {
		win := camera.NewWindow("Gaze Watcher", cancel, true)
		in.closers = append(in.closers, win)
		in.renderer = win
	} else {
		in.renderer = capture.NewHeadless(Logger)
	}
	return in, nil
}

// dialSidecar waits for the landmark sidecar to report healthy and connects.
func dialSidecar(ctx context.Context, cfg config.LandmarksConfig) (*landmarks.Remote, error) {
	if cfg.HealthURL != "" {
		waitCtx, cancel := context.WithTimeout(ctx, sidecarWaitTimeout)
		defer cancel()
		Logger.Info("Waiting for landmark sidecar", "url", cfg.HealthURL)
		if err := api.New(cfg.HealthURL, "").WaitHealthy(waitCtx, time.Second); err != nil {
			return nil, fmt.Errorf("landmark sidecar not healthy: %w", err)
		}
	}

	remote := landmarks.NewRemote(landmarks.RemoteConfig{
		URL:     cfg.URL,
		Timeout: cfg.Timeout,
	}, Logger.With("component", "landmarks"))
	if err := remote.Dial(); err != nil {
		return nil, err
	}
	return remote, nil
}
