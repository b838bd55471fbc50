package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CANVAS_"

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// Loader layers configuration sources. From lowest to highest priority:
//  1. defaults
//  2. base.{yaml,json,toml}
//  3. <environment>.{yaml,json,toml}
//  4. local.{yaml,json,toml}, development only
//  5. CANVAS_* environment variables
type Loader struct {
	basePath    string
	environment Environment
	lookupEnv   func(string) (string, bool)
	sources     []string
	fileLoaders []FileLoader
}

// NewLoader creates a loader reading from basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	if env == "" {
		env = Development
	}
	return &Loader{
		basePath:    basePath,
		environment: env,
		lookupEnv:   os.LookupEnv,
		fileLoaders: []FileLoader{&YAMLLoader{}, &JSONLoader{}, &TOMLLoader{}},
	}
}

// WithLookup replaces the environment lookup. Tests use it to avoid the
// process environment.
func (l *Loader) WithLookup(fn func(string) (string, bool)) *Loader {
	l.lookupEnv = fn
	return l
}

// BasePath returns the directory the loader reads.
func (l *Loader) BasePath() string {
	return l.basePath
}

// Load resolves, validates and returns the configuration.
func (l *Loader) Load() (*Config, error) {
	l.sources = []string{"defaults"}
	cfg := Default(l.environment)

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")

	cfg.Environment = l.environment
	cfg.LoadedFrom = append([]string(nil), l.sources...)
	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads the first existing <name>.<ext>.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		err = loader.Load(file, cfg)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

type envBinding struct {
	key   string
	apply func(cfg *Config, val string) error
}

func floatVar(dst func(*Config) *float64) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*dst(cfg) = f
		return nil
	}
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst(cfg) = n
		return nil
	}
}

func boolVar(dst func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst(cfg) = b
		return nil
	}
}

func durationVar(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*dst(cfg) = d
		return nil
	}
}

func stringVar(dst func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, val string) error {
		*dst(cfg) = val
		return nil
	}
}

var envBindings = []envBinding{
	{"STAND_OFF", floatVar(func(c *Config) *float64 { return &c.Canvas.StandOff })},
	{"PASTE_OFFSET", floatVar(func(c *Config) *float64 { return &c.Canvas.PasteOffset })},
	{"VIEWPORT_WIDTH", floatVar(func(c *Config) *float64 { return &c.Viewport.Width })},
	{"VIEWPORT_HEIGHT", floatVar(func(c *Config) *float64 { return &c.Viewport.Height })},
	{"MIN_SCALE", floatVar(func(c *Config) *float64 { return &c.Viewport.MinScale })},
	{"MAX_SCALE", floatVar(func(c *Config) *float64 { return &c.Viewport.MaxScale })},
	{"CULL_MARGIN", floatVar(func(c *Config) *float64 { return &c.Viewport.CullMargin })},
	{"VIEWPORT_DEBOUNCE", durationVar(func(c *Config) *time.Duration { return &c.Viewport.Debounce })},
	{"HISTORY_LIMIT", intVar(func(c *Config) *int { return &c.History.Limit })},
	{"EVENT_SINK", stringVar(func(c *Config) *string { return &c.Events.Sink })},
	{"EVENT_BUFFER", intVar(func(c *Config) *int { return &c.Events.BufferSize })},
	{"SERVER_ADDRESS", stringVar(func(c *Config) *string { return &c.Server.Address })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Logging.Format })},
	{"LOG_FILE", stringVar(func(c *Config) *string { return &c.Logging.File })},
	{"METRICS_ENABLED", boolVar(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"TRACING_ENABLED", boolVar(func(c *Config) *bool { return &c.Tracing.Enabled })},
	{"TRACING_ENDPOINT", stringVar(func(c *Config) *string { return &c.Tracing.Endpoint })},
	{"TRACING_SAMPLE_RATE", floatVar(func(c *Config) *float64 { return &c.Tracing.SampleRate })},
}

// loadEnvironmentVariables overlays CANVAS_* variables. A malformed value
// is an error rather than silently ignored.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	for _, b := range envBindings {
		val, ok := l.lookupEnv(EnvPrefix + b.key)
		if !ok || val == "" {
			continue
		}
		if err := b.apply(cfg, val); err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, b.key, val, err)
		}
	}
	return nil
}

// EnvironmentFromEnv reads CANVAS_ENV, defaulting to development.
func EnvironmentFromEnv() Environment {
	switch Environment(strings.ToLower(os.Getenv(EnvPrefix + "ENV"))) {
	case Production:
		return Production
	case Staging:
		return Staging
	default:
		return Development
	}
}

// ============================================================================
// FILE LOADERS
// ============================================================================

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct{}

func (t *TOMLLoader) Load(reader io.Reader, target interface{}) error {
	_, err := toml.NewDecoder(reader).Decode(target)
	return err
}

func (t *TOMLLoader) Extension() string {
	return "toml"
}
