// Package config loads the canvas configuration from layered files and
// CANVAS_* environment variables, validates it, and hot-reloads it in
// development.
package config

import (
	"time"

	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
	"brain2-canvas/internal/validation"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the complete configuration.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment" toml:"environment" validate:"oneof=development staging production"`

	Canvas   Canvas   `yaml:"canvas" json:"canvas" toml:"canvas"`
	Viewport Viewport `yaml:"viewport" json:"viewport" toml:"viewport"`
	History  History  `yaml:"history" json:"history" toml:"history"`
	Events   Events   `yaml:"events" json:"events" toml:"events"`
	Server   Server   `yaml:"server" json:"server" toml:"server"`
	Logging  Logging  `yaml:"logging" json:"logging" toml:"logging"`
	Metrics  Metrics  `yaml:"metrics" json:"metrics" toml:"metrics"`
	Tracing  Tracing  `yaml:"tracing" json:"tracing" toml:"tracing"`

	LoadedFrom []string `yaml:"-" json:"-" toml:"-"`
}

// Canvas holds board geometry settings.
type Canvas struct {
	StandOff    float64 `yaml:"stand_off" json:"stand_off" toml:"stand_off" validate:"gt=0"`
	PasteOffset float64 `yaml:"paste_offset" json:"paste_offset" toml:"paste_offset" validate:"gte=0"`
}

// Viewport holds camera settings.
type Viewport struct {
	Width       float64       `yaml:"width" json:"width" toml:"width" validate:"gt=0"`
	Height      float64       `yaml:"height" json:"height" toml:"height" validate:"gt=0"`
	MinScale    float64       `yaml:"min_scale" json:"min_scale" toml:"min_scale" validate:"gt=0"`
	MaxScale    float64       `yaml:"max_scale" json:"max_scale" toml:"max_scale" validate:"gtfield=MinScale"`
	CullMargin  float64       `yaml:"cull_margin" json:"cull_margin" toml:"cull_margin" validate:"gte=0"`
	WheelFactor float64       `yaml:"wheel_factor" json:"wheel_factor" toml:"wheel_factor" validate:"gt=1"`
	FineWheel   float64       `yaml:"fine_wheel_factor" json:"fine_wheel_factor" toml:"fine_wheel_factor" validate:"gt=1"`
	ZoomStep    float64       `yaml:"zoom_step" json:"zoom_step" toml:"zoom_step" validate:"gt=1"`
	Debounce    time.Duration `yaml:"debounce" json:"debounce" toml:"debounce" validate:"gte=0"`
}

// History holds undo settings.
type History struct {
	Limit int `yaml:"limit" json:"limit" toml:"limit" validate:"gte=1,lte=10000"`
}

// Events holds outbound event delivery settings.
type Events struct {
	Sink             string        `yaml:"sink" json:"sink" toml:"sink" validate:"oneof=log stdout none"`
	BufferSize       int           `yaml:"buffer_size" json:"buffer_size" toml:"buffer_size" validate:"gte=1"`
	DeliveryTimeout  time.Duration `yaml:"delivery_timeout" json:"delivery_timeout" toml:"delivery_timeout" validate:"gte=0"`
	FailureThreshold float64       `yaml:"failure_threshold" json:"failure_threshold" toml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests" json:"min_requests" toml:"min_requests"`
	OpenTimeout      time.Duration `yaml:"open_timeout" json:"open_timeout" toml:"open_timeout" validate:"gte=0"`
}

// Server holds the debug HTTP surface settings.
type Server struct {
	Address         string        `yaml:"address" json:"address" toml:"address" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Logging holds logger settings.
type Logging struct {
	Level      string `yaml:"level" json:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" json:"format" toml:"format" validate:"oneof=json console"`
	File       string `yaml:"file" json:"file" toml:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size" toml:"max_size" validate:"gte=0"`
	MaxAge     int    `yaml:"max_age" json:"max_age" toml:"max_age" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" toml:"max_backups" validate:"gte=0"`
	Compress   bool   `yaml:"compress" json:"compress" toml:"compress"`
}

// Metrics holds Prometheus settings.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace" toml:"namespace" validate:"required"`
}

// Tracing holds OpenTelemetry settings.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled" toml:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name" toml:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint" toml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate" toml:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns the configuration used when nothing else is set.
func Default(env Environment) *Config {
	if env == "" {
		env = Development
	}
	return &Config{
		Environment: env,
		Canvas: Canvas{
			StandOff:    shared.RouteStandOff,
			PasteOffset: shared.PasteOffset,
		},
		Viewport: Viewport{
			Width:       1280,
			Height:      800,
			MinScale:    shared.MinScale,
			MaxScale:    shared.MaxScale,
			CullMargin:  shared.CullMargin,
			WheelFactor: shared.WheelFactor,
			FineWheel:   shared.FineWheel,
			ZoomStep:    shared.ZoomStep,
			Debounce:    shared.ViewportDelay,
		},
		History: History{Limit: shared.DefaultHistoryLimit},
		Events: Events{
			Sink:             "log",
			BufferSize:       256,
			DeliveryTimeout:  5 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
			OpenTimeout:      10 * time.Second,
		},
		Server: Server{
			Address:         ":8088",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "json",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
			Compress:   true,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "canvas",
		},
		Tracing: Tracing{
			ServiceName: "brain2-canvas",
			SampleRate:  1,
		},
	}
}

// applyEnvironmentDefaults adjusts settings the operator did not pin.
func (c *Config) applyEnvironmentDefaults() {
	if c.Environment == Development && c.Logging.Format == "json" && c.Logging.File == "" {
		c.Logging.Format = "console"
	}
	if c.Environment == Production && c.Logging.Level == "debug" {
		c.Logging.Level = "info"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.NewValidator().ValidateStruct(c); err != nil {
		return errors.Wrap(err, "config.validate", "invalid configuration")
	}
	return nil
}
