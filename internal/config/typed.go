package config

import (
	"time"

	"github.com/spf13/viper"
)

// GazeConfig holds classifier and debounce settings.
type GazeConfig struct {
	YawThreshold    float64
	PitchThreshold  float64
	MinSendInterval time.Duration
}

// RedisConfig holds the optional Redis publisher settings.
type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	Channel  string
}

// NotifierConfig holds notification transport settings.
type NotifierConfig struct {
	Host  string
	Port  int
	Redis RedisConfig
}

// CaptureConfig holds frame source settings.
type CaptureConfig struct {
	Source     string // "camera" or "replay"
	Device     int
	Preview    bool
	ReplayFile string
	Realtime   bool
	RecordFile string
}

// LandmarksConfig holds landmark sidecar settings.
type LandmarksConfig struct {
	URL       string
	HealthURL string
	Timeout   time.Duration
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string
	DumpInterval time.Duration
}

// WebSocketConfig holds websocket storage backend settings
type WebSocketConfig struct {
	URL    string
	Secret string
}

// UploadConfig holds settings for uploading the memory export.
type UploadConfig struct {
	Enabled   bool
	ServerURL string
	APIKey    string
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type      string
	Memory    MemoryConfig
	SQLite    SQLiteConfig
	WebSocket WebSocketConfig
	Upload    UploadConfig
	DB        DBConfig
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	Endpoint       string
	Insecure       bool
	MetricInterval time.Duration
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level          string
	Dir            string
	MaxSizeMB      int
	MaxBackups     int
	GraylogEnabled bool
	GraylogAddress string
}

// MonitorConfig holds status file and stats window settings.
type MonitorConfig struct {
	Enabled     bool
	StatusFile  string
	Interval    time.Duration
	StatsWindow time.Duration
}

// GetGazeConfig returns classifier and debounce settings.
func GetGazeConfig() GazeConfig {
	return GazeConfig{
		YawThreshold:    viper.GetFloat64("gaze.yawThreshold"),
		PitchThreshold:  viper.GetFloat64("gaze.pitchThreshold"),
		MinSendInterval: viper.GetDuration("gaze.minSendInterval"),
	}
}

// GetNotifierConfig returns notification transport settings.
func GetNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Host: viper.GetString("notifier.host"),
		Port: viper.GetInt("notifier.port"),
		Redis: RedisConfig{
			Enabled:  viper.GetBool("notifier.redis.enabled"),
			Address:  viper.GetString("notifier.redis.address"),
			Password: viper.GetString("notifier.redis.password"),
			DB:       viper.GetInt("notifier.redis.db"),
			Channel:  viper.GetString("notifier.redis.channel"),
		},
	}
}

// GetCaptureConfig returns frame source settings.
func GetCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Source:     viper.GetString("capture.source"),
		Device:     viper.GetInt("capture.device"),
		Preview:    viper.GetBool("capture.preview"),
		ReplayFile: viper.GetString("capture.replayFile"),
		Realtime:   viper.GetBool("capture.realtime"),
		RecordFile: viper.GetString("capture.recordFile"),
	}
}

// GetLandmarksConfig returns landmark sidecar settings.
func GetLandmarksConfig() LandmarksConfig {
	return LandmarksConfig{
		URL:       viper.GetString("landmarks.url"),
		HealthURL: viper.GetString("landmarks.healthUrl"),
		Timeout:   viper.GetDuration("landmarks.timeout"),
	}
}

// GetStorageConfig returns the storage configuration from viper
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		Upload: UploadConfig{
			Enabled:   viper.GetBool("storage.upload.enabled"),
			ServerURL: viper.GetString("storage.upload.serverUrl"),
			APIKey:    viper.GetString("storage.upload.apiKey"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetInfluxConfig returns InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OTel configuration from viper
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetLoggingConfig returns log output settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		MaxSizeMB:      viper.GetInt("logging.maxSizeMB"),
		MaxBackups:     viper.GetInt("logging.maxBackups"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns status file settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:     viper.GetBool("monitor.enabled"),
		StatusFile:  viper.GetString("monitor.statusFile"),
		Interval:    viper.GetDuration("monitor.interval"),
		StatsWindow: viper.GetDuration("stats.window"),
	}
}
