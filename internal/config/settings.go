package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by ApplyEnv.
const EnvPrefix = "DLM"

// Duration is a time.Duration written as a string ("30s") in config files
// and environment variables.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	Output                 string `json:"output" yaml:"output" envconfig:"OUTPUT" validate:"required"`
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads" envconfig:"MAX_CONCURRENT_DOWNLOADS" validate:"min=1,max=256"`
	Overwrite              bool   `json:"overwrite" yaml:"overwrite" envconfig:"OVERWRITE"`

	// Transport settings
	UserAgent      string   `json:"user_agent" yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	ConnectTimeout Duration `json:"connect_timeout" yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT" validate:"gte=0"`
	HeaderTimeout  Duration `json:"header_timeout" yaml:"header_timeout" envconfig:"HEADER_TIMEOUT" validate:"gte=0"`
	RateLimit      int64    `json:"rate_limit" yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"` // bytes per second, 0 = unlimited

	// DrainTimeout bounds the final wait for every lane to be returned.
	DrainTimeout Duration `json:"drain_timeout" yaml:"drain_timeout" envconfig:"DRAIN_TIMEOUT" validate:"gte=0"`

	// Logging settings
	LogLevel  string `json:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `json:"log_format" yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=text json"`
	LogFile   string `json:"log_file,omitempty" yaml:"log_file,omitempty" envconfig:"LOG_FILE"`

	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9090".
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Output:                 ".",
		MaxConcurrentDownloads: 2,
		Overwrite:              false,

		UserAgent:      "dlm",
		ConnectTimeout: Duration(10 * time.Second),
		HeaderTimeout:  Duration(30 * time.Second),
		RateLimit:      0,

		DrainTimeout: Duration(30 * time.Second),

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads settings from a JSON or YAML file, chosen by extension. A
// missing file, or an empty path, yields the defaults.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, err
	}

	if isYAML(path) {
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	return settings, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// into the process environment. Missing files are ignored and variables
// that are already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from DLM_* environment variables. Variables
// that are not set leave the current value alone.
func (s *Settings) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, s); err != nil {
		return fmt.Errorf("failed to process environment variables: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings for invalid or missing values.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetupLogger builds the process logger from the log settings, writing to w,
// and installs it as the slog default.
func (s *Settings) SetupLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch s.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
