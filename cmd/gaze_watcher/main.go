package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/OCAP2/gaze/internal/config"
	"github.com/OCAP2/gaze/internal/debounce"
	"github.com/OCAP2/gaze/internal/dispatcher"
	"github.com/OCAP2/gaze/internal/gaze"
	"github.com/OCAP2/gaze/internal/influx"
	"github.com/OCAP2/gaze/internal/logging"
	"github.com/OCAP2/gaze/internal/monitor"
	"github.com/OCAP2/gaze/internal/notifier"
	intOtel "github.com/OCAP2/gaze/internal/otel"
	"github.com/OCAP2/gaze/internal/pipeline"
	"github.com/OCAP2/gaze/internal/session"
	"github.com/OCAP2/gaze/internal/worker"
	"github.com/OCAP2/gaze/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "gaze_watcher"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && strings.ToLower(args[0]) == "export" {
		if err := runExport(args[1:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(args); err != nil {
		if Logger != nil {
			Logger.Error("Gaze watcher stopped with error", "error", err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (string, error) {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory holding "+config.FileName+" and .env")
	fs.String("source", "", "frame source: camera or replay")
	fs.Int("device", 0, "camera device index")
	fs.String("replay", "", "landmark recording to replay")
	fs.Bool("preview", true, "show the preview window")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	bind := map[string]string{
		"capture.source":     "source",
		"capture.device":     "device",
		"capture.replayFile": "replay",
		"capture.preview":    "preview",
	}
	for key, name := range bind {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return "", err
		}
	}
	return *configDir, nil
}

func run(args []string) error {
	configDir, err := parseFlags(args)
	if err != nil {
		return err
	}

	// initial logger until the log file is ready
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(os.Stderr, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return err
		}
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	gazeCfg := config.GetGazeConfig()
	captureCfg := config.GetCaptureConfig()
	logCfg := config.GetLoggingConfig()

	sess := newSession(gazeCfg, captureCfg, SessionStartTime)
	sessCtx := session.NewContext(sess)

	if err := os.MkdirAll(logCfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logFilePath := logging.LogFilePath(logCfg.Dir, AppName, SessionStartTime)
	logFile := logging.RotatingFile(logFilePath, logCfg.MaxSizeMB, logCfg.MaxBackups)
	defer logFile.Close()

	closeLogging, err := setupLogging(logCfg, logFile, sessCtx)
	if err != nil {
		return err
	}
	defer closeLogging()

	Logger.Info("Gaze watcher starting",
		"version", CurrentVersion,
		"buildDate", BuildDate,
		"source", sess.Source,
		"logFile", logFilePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// influx writes are best effort
	influxManager := setupInflux(ctx, logFile, logCfg.Dir)
	if influxManager != nil {
		defer func() {
			if err := influxManager.Close(); err != nil {
				Logger.Warn("Failed to close influx", "error", err)
			}
		}()
	}

	backend, err := initStorage(sess, logCfg.Dir)
	if err != nil {
		return err
	}

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	workerDeps := worker.Dependencies{LogManager: SlogManager}
	if influxManager != nil {
		workerDeps.Influx = influxManager
	}
	workerManager := worker.NewManager(workerDeps, backend)
	workerManager.RegisterHandlers(eventDispatcher)
	Logger.Info("Worker handlers registered with dispatcher")

	notify, err := setupNotifier(ctx, config.GetNotifierConfig())
	if err != nil {
		eventDispatcher.Close()
		closeStorage(backend)
		return err
	}
	defer notify.Close()

	inputs, err := openInputs(ctx, captureCfg, config.GetLandmarksConfig(), cancel)
	if err != nil {
		eventDispatcher.Close()
		closeStorage(backend)
		return err
	}
	defer inputs.Close()

	monitorCfg := config.GetMonitorConfig()
	loop, err := pipeline.New(pipeline.Dependencies{
		Capture:     inputs.frames,
		Landmarks:   inputs.landmarks,
		Classifier:  gaze.NewClassifier(gaze.Thresholds{Yaw: gazeCfg.YawThreshold, Pitch: gazeCfg.PitchThreshold}),
		Debouncer:   debounce.New(gazeCfg.MinSendInterval),
		Notifier:    notify,
		Renderer:    inputs.renderer,
		Publisher:   eventDispatcher,
		Recorder:    inputs.recorder,
		Session:     sessCtx,
		Logger:      Logger,
		StatsWindow: monitorCfg.StatsWindow,
	})
	if err != nil {
		eventDispatcher.Close()
		closeStorage(backend)
		return err
	}

	var monitorService *monitor.Service
	if monitorCfg.Enabled {
		monitorService = monitor.NewService(monitor.Dependencies{
			LogManager:     SlogManager,
			SessionContext: sessCtx,
			Pipeline:       loop,
			WorkerManager:  workerManager,
			Dispatcher:     eventDispatcher,
			StatusFile:     monitorCfg.StatusFile,
			Interval:       monitorCfg.Interval,
		})
		if err := monitorService.Start(); err != nil {
			Logger.Warn("Failed to start status monitor", "error", err)
			monitorService = nil
		}
	}

	runErr := loop.Run(ctx)

	if monitorService != nil {
		monitorService.Stop()
	}

	// drain buffered handlers before the session end reaches storage
	eventDispatcher.Close()
	if _, err := eventDispatcher.Dispatch(dispatcher.Event{
		Command:   core.CommandSessionEnd,
		Payload:   sessCtx.End(time.Now()),
		Timestamp: time.Now(),
	}); err != nil {
		Logger.Error("Failed to end session", "error", err)
	}
	closeStorage(backend)
	uploadExport(backend, config.GetStorageConfig().Upload)

	snap := loop.Snapshot()
	Logger.Info("Gaze watcher stopped",
		"frames", snap.Frames,
		"notifications", snap.Notifications,
		"duration", time.Since(SessionStartTime).Round(time.Millisecond))
	return runErr
}

// newSession builds the session record from config.
func newSession(gazeCfg config.GazeConfig, captureCfg config.CaptureConfig, start time.Time) *core.Session {
	source := strings.ToLower(captureCfg.Source)
	if source == "" {
		source = "camera"
	}
	s := core.NewSession(source, start)
	if host, err := os.Hostname(); err == nil {
		s.Host = host
	}
	s.Version = CurrentVersion
	s.YawThreshold = gazeCfg.YawThreshold
	s.PitchThreshold = gazeCfg.PitchThreshold
	s.MinInterval = gazeCfg.MinSendInterval
	s.Settings = sessionSettings(captureCfg)
	return s
}

func sessionSettings(cfg config.CaptureConfig) map[string]string {
	settings := map[string]string{
		"preview": fmt.Sprint(cfg.Preview),
	}
	switch strings.ToLower(cfg.Source) {
	case "replay":
		settings["replayFile"] = filepath.Base(cfg.ReplayFile)
		settings["realtime"] = fmt.Sprint(cfg.Realtime)
	default:
		settings["device"] = fmt.Sprint(cfg.Device)
	}
	if cfg.RecordFile != "" {
		settings["recordFile"] = filepath.Base(cfg.RecordFile)
	}
	return settings
}

// setupLogging points slog at the log file, the otel bridge and graylog.
// The returned func flushes and closes those sinks.
func setupLogging(cfg config.LoggingConfig, logFile io.Writer, sessCtx *session.Context) (func(), error) {
	otelCfg := config.GetOTelConfig()
	var err error
	OTelProvider, err = intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentVersion,
		SessionID:      sessCtx.Session().ID.String(),
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      logFile,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
		MetricInterval: otelCfg.MetricInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTel: %w", err)
	}

	var graylogCloser io.Closer
	manager := logging.NewSlogManager().WithContext(sessCtx)
	if cfg.GraylogEnabled {
		handler, closer, err := logging.NewGraylogHandler(cfg.GraylogAddress, AppName, cfg.Level)
		if err != nil {
			Logger.Warn("Failed to connect to graylog", "error", err, "address", cfg.GraylogAddress)
		} else {
			manager = manager.WithHandlers(handler)
			graylogCloser = closer
		}
	}
	manager.Setup(logFile, cfg.Level, OTelProvider.LoggerProvider())
	SlogManager = manager
	Logger = manager.Logger()
	Logger.Debug("Logging initialized", "otel", OTelProvider.Enabled(), "graylog", graylogCloser != nil)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to shut down OTel:", err)
		}
		if graylogCloser != nil {
			graylogCloser.Close()
		}
	}, nil
}

// setupInflux connects to InfluxDB, returning nil when it is disabled.
func setupInflux(ctx context.Context, logFile io.Writer, logsDir string) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	zlog := zerolog.New(logFile).With().Timestamp().Str("component", "influx").Logger()
	backupPath := filepath.Join(logsDir, fmt.Sprintf("influx_backup.%s.lp.gz", SessionStartTime.Format("20060102_150405")))
	m := influx.NewManager(cfg, zlog, backupPath)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.Connect(connectCtx); err != nil {
		Logger.Warn("Failed to connect to InfluxDB", "error", err, "url", m.ServerURL())
		return nil
	}
	Logger.Info("InfluxDB ready", "url", m.ServerURL())
	return m
}

func setupNotifier(ctx context.Context, cfg config.NotifierConfig) (*notifier.Multi, error) {
	udp, err := notifier.NewUDP(cfg.Host, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to create UDP notifier: %w", err)
	}
	Logger.Info("UDP notifier ready", "addr", udp.Addr())
	notifiers := []notifier.Notifier{udp}

	if cfg.Redis.Enabled {
		r := notifier.NewRedis(notifier.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
			Logger:   Logger,
		})
		if err := r.Ping(ctx); err != nil {
			Logger.Warn("Redis not reachable, publishing anyway", "error", err, "address", cfg.Redis.Address)
		}
		notifiers = append(notifiers, r)
	}
	return notifier.NewMulti(notifiers...), nil
}
