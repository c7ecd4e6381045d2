package config

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "quinttest.db"
	defaultEnginesDir = "engines"

	envListenAddr     = "QUINTTEST_LISTEN_ADDR"
	envDBPath         = "QUINTTEST_DB_PATH"
	envLogLevel       = "QUINTTEST_LOG_LEVEL"
	envLogFormat      = "QUINTTEST_LOG_FORMAT"
	envEnginesDir     = "QUINTTEST_ENGINES_DIR"
	envMaxConcurrency = "QUINTTEST_MAX_CONCURRENCY"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// Config holds quinttestd settings. Every field can be set from a
// QUINTTEST_* environment variable.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level
	LogFormat  LogFormat
	// EnginesDir is scanned for engine executables at startup.
	EnginesDir string
	// MaxConcurrency caps the workers a single match may use.
	MaxConcurrency int
}

// Load reads configuration from the environment. Unset or unparsable
// values keep their defaults.
func Load() Config {
	return Config{
		ListenAddr:     envString(envListenAddr, defaultListenAddr),
		DBPath:         envString(envDBPath, defaultDBPath),
		LogLevel:       ParseLogLevel(os.Getenv(envLogLevel)),
		LogFormat:      ParseLogFormat(os.Getenv(envLogFormat)),
		EnginesDir:     envString(envEnginesDir, defaultEnginesDir),
		MaxConcurrency: envPositiveInt(envMaxConcurrency, defaultMaxConcurrency()),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func defaultMaxConcurrency() int {
	return max(1, runtime.NumCPU()/2)
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogFormat accepts "text"; anything else is JSON.
func ParseLogFormat(s string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(LogFormatText)) {
		return LogFormatText
	}
	return LogFormatJSON
}

// NewLogger creates a structured logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
