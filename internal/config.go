package internal

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/spacedupes/internal/hub"
)

// LogLevel is a slog.Level that unmarshals from the textual names debug,
// info, warn and error. It implements slog.Leveler, so it can be handed to
// handler options directly.
type LogLevel slog.Level

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	return (*slog.Level)(l).UnmarshalText([]byte(value.Value))
}

// Level implements slog.Leveler.
func (l LogLevel) Level() slog.Level {
	return slog.Level(l)
}

func (l LogLevel) String() string {
	return slog.Level(l).String()
}

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Hub       HubConfig         `yaml:"hub"`
	Detection DetectionConfig   `yaml:"detection"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Hub.Validate(); err != nil {
		return err
	}
	return c.Detection.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel LogLevel `yaml:"log_level"`
}

// HubConfig holds the hub backend connection settings.
type HubConfig struct {
	Endpoint           string `yaml:"endpoint"`
	Token              string `yaml:"token"`
	PageSize           int    `yaml:"page_size"`
	ListTimeoutSeconds int    `yaml:"list_timeout_seconds"`
}

// ListTimeout returns the per-page listing request timeout.
func (c *HubConfig) ListTimeout() time.Duration {
	return time.Duration(c.ListTimeoutSeconds) * time.Second
}

// Validate validates the hub configuration.
func (c *HubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.ListTimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// DetectionConfig holds the duplicate detection settings.
//
// Deep controls the README frontmatter fallback: when a Space's card
// metadata carries no claim, its raw README is fetched and scanned. Turning
// it off keeps detection to card metadata only.
type DetectionConfig struct {
	Days           int  `yaml:"days"`
	Deep           bool `yaml:"deep"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	Workers        int  `yaml:"workers"`
}

// FetchTimeout returns the per-README fetch timeout.
func (c *DetectionConfig) FetchTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the detection configuration.
func (c *DetectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Days, validation.Required, validation.Min(1), validation.Max(36500)),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: LogLevel(slog.LevelWarn),
		},
		Hub: HubConfig{
			Endpoint:           hub.DefaultEndpoint,
			PageSize:           500,
			ListTimeoutSeconds: 30,
		},
		Detection: DetectionConfig{
			Days:           14,
			Deep:           true,
			TimeoutSeconds: 10,
			Workers:        1,
		},
	}
}
