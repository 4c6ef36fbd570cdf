package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/scribed/internal/common"
)

// Config is the root configuration loaded from YAML.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
}

// ServerConfig holds HTTP server and runtime settings.
type ServerConfig struct {
	Addr          string        `yaml:"address"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	MaxUploadSize ByteSize      `yaml:"maxUploadSize"`
	APIKey        string        `yaml:"apiKey"`        // optional static API key header (X-API-Key)
	ShutdownGrace time.Duration `yaml:"shutdownGrace"` // time to wait for in-flight requests on stop
	LogLevel      string        `yaml:"logLevel"`      // debug|info|warn|error
}

// EngineConfig holds external transcription engine settings.
type EngineConfig struct {
	WorkerScript      string        `yaml:"workerScript"`      // path to the engine entry script
	RuntimeCandidates []string      `yaml:"runtimeCandidates"` // optional override of platform defaults
	JobTimeout        time.Duration `yaml:"jobTimeout"`        // wall-clock bound per job
	MaxCapture        ByteSize      `yaml:"maxCapture"`        // cap on combined captured stdout+stderr
	WorkspaceDir      string        `yaml:"workspaceDir"`      // overrides <tmp>/scribed
	HFTokenEnvVar     string        `yaml:"hfTokenEnvVar"`     // env var read per request for diarization auth
}

// ByteSize represents a size in bytes that unmarshals from strings like "10Mi", "20MB", "512KiB", "1024".
type ByteSize uint64

// UnmarshalYAML implements yaml unmarshalling for ByteSize.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		str := strings.TrimSpace(value.Value)
		parsed, err := ParseByteSize(str)
		if err != nil {
			return err
		}
		*b = ByteSize(parsed)
		return nil
	}
	return fmt.Errorf("invalid bytesize node kind: %v", value.Kind)
}

var reNumeric = regexp.MustCompile(`^\d+$`)

// ParseByteSize parses a string like "10Mi", "20MB", "512KiB", "1024" into bytes.
// Supports Kubernetes-style quantities for binary units: Ki, Mi, Gi (case-insensitive).
// Also accepts KiB/MiB/GiB and decimal KB/MB/GB, and bare bytes.
func ParseByteSize(s string) (uint64, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}
	// Numeric only
	if reNumeric.MatchString(s) {
		val, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size number: %w", err)
		}
		return val, nil
	}

	// Normalize to upper for suffix matching but keep numeric part as-is
	up := strings.ToUpper(s)

	type unit struct {
		suffix string
		value  uint64
	}
	units := []unit{
		// Kubernetes binary-style without 'B'
		{"KI", 1024},
		{"MI", 1024 * 1024},
		{"GI", 1024 * 1024 * 1024},
		// Binary with B
		{"KIB", 1024},
		{"MIB", 1024 * 1024},
		{"GIB", 1024 * 1024 * 1024},
		// Decimal
		{"KB", 1000},
		{"MB", 1000 * 1000},
		{"GB", 1000 * 1000 * 1000},
		{"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(up, u.suffix) {
			num := strings.TrimSpace(s[:len(s)-len(u.suffix)])
			val, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid size number in %q: %w", orig, err)
			}
			return uint64(val * float64(u.value)), nil
		}
	}
	return 0, fmt.Errorf("unknown size suffix in %q", orig)
}

// Load reads YAML config from path, expands environment variables, and validates it.
// If path is empty, it will attempt to read from env var SCRIBED_CONFIG, then default to "config.yaml".
func Load(path string) (*Config, error) {
	if path == "" {
		if env := os.Getenv("SCRIBED_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - reading sanitized config file path is expected
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// Expand environment variables in file content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		// Uploads can be large; allow slow clients.
		cfg.Server.ReadTimeout = 5 * time.Minute
	}
	if cfg.Server.WriteTimeout == 0 {
		// The response is not written until the engine finishes, so the
		// write timeout must cover the whole job bound plus slack.
		cfg.Server.WriteTimeout = 12 * time.Minute
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadSize == 0 {
		cfg.Server.MaxUploadSize = ByteSize(common.DefaultMaxUploadBytes)
	}
	if cfg.Server.ShutdownGrace == 0 {
		cfg.Server.ShutdownGrace = 15 * time.Second
	}
	if strings.TrimSpace(cfg.Server.LogLevel) == "" {
		cfg.Server.LogLevel = "info"
	}

	// Engine defaults
	if strings.TrimSpace(cfg.Engine.WorkerScript) == "" {
		cfg.Engine.WorkerScript = common.DefaultWorkerScript
	}
	if cfg.Engine.JobTimeout == 0 {
		cfg.Engine.JobTimeout = 10 * time.Minute
	}
	if cfg.Engine.MaxCapture == 0 {
		cfg.Engine.MaxCapture = ByteSize(common.DefaultMaxCaptureBytes)
	}
	if cfg.Engine.WorkspaceDir == "" {
		cfg.Engine.WorkspaceDir = filepath.Join(os.TempDir(), common.WorkspaceDirName)
	}
	if strings.TrimSpace(cfg.Engine.HFTokenEnvVar) == "" {
		cfg.Engine.HFTokenEnvVar = common.DefaultHFTokenEnvVar
	}
}

func validate(cfg *Config) error {
	if cfg.Engine.JobTimeout < 0 {
		return fmt.Errorf("engine.jobTimeout must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Server.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.logLevel %q not one of debug|info|warn|error", cfg.Server.LogLevel)
	}
	for _, c := range cfg.Engine.RuntimeCandidates {
		if strings.TrimSpace(c) == "" {
			return errors.New("engine.runtimeCandidates must not contain empty entries")
		}
	}
	return nil
}
