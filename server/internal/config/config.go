package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultGRPCPort        = 50051
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPolicy          = PolicyStrict
	DefaultRounding        = egfr.HalfAway
)

// Validation policy names.
const (
	PolicyStrict  = "strict"
	PolicyLenient = "lenient"
)

// Config holds the calculator service configuration parsed from config.yaml
// and overridden by MDRD_* environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Validation ValidationConfig `yaml:"validation"`
	Result     ResultConfig     `yaml:"result"`
}

// ServerConfig holds listener and process settings.
type ServerConfig struct {
	// HTTPPort is the port the calculator API, WebSocket endpoint and
	// /metrics listen on (default 8080).
	HTTPPort int `yaml:"http_port" env:"MDRD_HTTP_PORT"`

	// GRPCPort is the port of the gRPC health service (default 50051).
	// Zero disables the gRPC listener.
	GRPCPort int `yaml:"grpc_port" env:"MDRD_GRPC_PORT"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level" env:"MDRD_LOG_LEVEL"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MDRD_SHUTDOWN_TIMEOUT"`
}

// ValidationConfig selects the input bounds. Non-zero overrides replace the
// corresponding value of the named policy.
type ValidationConfig struct {
	// Policy is one of: strict | lenient.
	Policy string `yaml:"policy" env:"MDRD_POLICY"`

	CreatinineMin float64 `yaml:"creatinine_min" env:"MDRD_CREATININE_MIN"`
	CreatinineMax float64 `yaml:"creatinine_max" env:"MDRD_CREATININE_MAX"`
	AgeMin        int     `yaml:"age_min" env:"MDRD_AGE_MIN"`
	AgeMax        int     `yaml:"age_max" env:"MDRD_AGE_MAX"`
}

// Bounds resolves the policy and overrides into concrete egfr.Bounds.
func (v ValidationConfig) Bounds() egfr.Bounds {
	b := egfr.StrictBounds
	if v.Policy == PolicyLenient {
		b = egfr.LenientBounds
	}
	if v.CreatinineMin != 0 {
		b.CreatinineMin = v.CreatinineMin
	}
	if v.CreatinineMax != 0 {
		b.CreatinineMax = v.CreatinineMax
	}
	if v.AgeMin != 0 {
		b.AgeMin = v.AgeMin
	}
	if v.AgeMax != 0 {
		b.AgeMax = v.AgeMax
	}
	return b
}

// ResultConfig controls how results are produced.
type ResultConfig struct {
	// Rounding is one of: half_away | half_even.
	Rounding egfr.Rounding `yaml:"rounding" env:"MDRD_ROUNDING"`
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values yield Info.
func (s ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			GRPCPort:        DefaultGRPCPort,
			LogLevel:        DefaultLogLevel,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Validation: ValidationConfig{
			Policy: DefaultPolicy,
		},
		Result: ResultConfig{
			Rounding: DefaultRounding,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	if cfg.Server.GRPCPort != 0 && cfg.Server.GRPCPort == cfg.Server.HTTPPort {
		return fmt.Errorf("server.grpc_port and server.http_port must differ (both %d)", cfg.Server.HTTPPort)
	}
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", cfg.Server.LogLevel)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	switch cfg.Validation.Policy {
	case PolicyStrict, PolicyLenient:
	default:
		return fmt.Errorf("validation.policy %q unknown: want strict|lenient", cfg.Validation.Policy)
	}
	if err := cfg.Validation.Bounds().Validate(); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	switch cfg.Result.Rounding {
	case egfr.HalfAway, egfr.HalfEven:
	default:
		return fmt.Errorf("result.rounding %q unknown: want half_away|half_even", cfg.Result.Rounding)
	}
	return nil
}
