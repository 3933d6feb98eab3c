package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file searched for in the config directory.
const FileName = "gaze_watcher.cfg.json"

// ErrConfigNotFound is returned by Load when the directory has no config
// file. Defaults and environment overrides are still in effect.
var ErrConfigNotFound = errors.New("config file not found")

// Load reads the optional .env file and the JSON config file from configDir
// and sets default values. Environment variables prefixed GAZE_ override
// file values (GAZE_NOTIFIER_PORT for notifier.port).
func Load(configDir string) error {
	setDefaults()

	envFile := filepath.Join(configDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("error reading env file: %w", err)
		}
	}

	viper.SetEnvPrefix("GAZE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w in %s", ErrConfigNotFound, configDir)
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logging.maxSizeMB", 50)
	viper.SetDefault("logging.maxBackups", 5)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("gaze.yawThreshold", 0.08)
	viper.SetDefault("gaze.pitchThreshold", 0.50)
	viper.SetDefault("gaze.minSendInterval", "100ms")

	viper.SetDefault("notifier.host", "127.0.0.1")
	viper.SetDefault("notifier.port", 5005)
	viper.SetDefault("notifier.redis.enabled", false)
	viper.SetDefault("notifier.redis.address", "localhost:6379")
	viper.SetDefault("notifier.redis.password", "")
	viper.SetDefault("notifier.redis.db", 0)
	viper.SetDefault("notifier.redis.channel", "gaze:state")

	viper.SetDefault("capture.source", "camera")
	viper.SetDefault("capture.device", 0)
	viper.SetDefault("capture.preview", true)
	viper.SetDefault("capture.replayFile", "")
	viper.SetDefault("capture.realtime", true)
	viper.SetDefault("capture.recordFile", "")

	viper.SetDefault("landmarks.url", "ws://127.0.0.1:8765/landmarks")
	viper.SetDefault("landmarks.healthUrl", "http://127.0.0.1:8765")
	viper.SetDefault("landmarks.timeout", "2s")

	viper.SetDefault("storage.type", "none")
	viper.SetDefault("storage.memory.outputDir", "./sessions")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/gaze")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.upload.enabled", false)
	viper.SetDefault("storage.upload.serverUrl", "http://localhost:5000")
	viper.SetDefault("storage.upload.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "gaze")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "gaze-metrics")
	viper.SetDefault("influx.bucket", "gaze")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "gaze-watcher")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metricInterval", "30s")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.statusFile", "./status.json")
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("stats.window", "1s")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
