// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the terminal color names for each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the driven browser instance.
type BrowserConfig struct {
	// Backend selects the driver adapter: "cdp" or "playwright".
	Backend           string        `mapstructure:"backend" yaml:"backend"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// ResolverConfig tunes element resolution and the readiness gate.
type ResolverConfig struct {
	// DefaultTimeout is the overall budget for LocateWithWait when the
	// caller does not supply one.
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	// PollInterval is the spacing between bounding-box stability polls.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// StablePolls is the number of consecutive stable box comparisons
	// required before an element counts as geometrically settled.
	StablePolls int `mapstructure:"stable_polls" yaml:"stable_polls"`
	// StabilityEpsilonPx is the per-axis movement (exclusive) still counted
	// as stable between two polls.
	StabilityEpsilonPx float64 `mapstructure:"stability_epsilon_px" yaml:"stability_epsilon_px"`
	// SettleDelay is the fixed pause after animations report completion,
	// absorbing trailing CSS transitions.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// RetryPause separates readiness retry iterations to avoid busy-polling.
	RetryPause time.Duration `mapstructure:"retry_pause" yaml:"retry_pause"`
	// AnimationCeiling bounds the animation-completion sub-wait.
	AnimationCeiling time.Duration `mapstructure:"animation_ceiling" yaml:"animation_ceiling"`
	// LoadState is the page lifecycle signal WaitForDynamicContent waits for
	// first ("load", "domcontentloaded", "networkidle").
	LoadState string `mapstructure:"load_state" yaml:"load_state"`
	// NetworkIdleQuiet bounds the best-effort network-idle window.
	NetworkIdleQuiet time.Duration `mapstructure:"network_idle_quiet" yaml:"network_idle_quiet"`
	// MutationQuiet is the mutation-free period treated as DOM quiescence.
	MutationQuiet time.Duration `mapstructure:"mutation_quiet" yaml:"mutation_quiet"`
	// MutationCeiling caps the whole quiescence wait; exhausting it is
	// logged, not reported as an error.
	MutationCeiling time.Duration `mapstructure:"mutation_ceiling" yaml:"mutation_ceiling"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "descry")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.backend", "cdp")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.navigation_timeout", "90s")

	// -- Resolver --
	v.SetDefault("resolver.default_timeout", "30s")
	v.SetDefault("resolver.poll_interval", "100ms")
	v.SetDefault("resolver.stable_polls", 3)
	v.SetDefault("resolver.stability_epsilon_px", 1.0)
	v.SetDefault("resolver.settle_delay", "100ms")
	v.SetDefault("resolver.retry_pause", "250ms")
	v.SetDefault("resolver.animation_ceiling", "5s")
	v.SetDefault("resolver.load_state", "load")
	v.SetDefault("resolver.network_idle_quiet", "500ms")
	v.SetDefault("resolver.mutation_quiet", "500ms")
	v.SetDefault("resolver.mutation_ceiling", "5s")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Browser.Backend {
	case "cdp", "playwright":
	default:
		return fmt.Errorf("browser.backend must be \"cdp\" or \"playwright\", got %q", c.Browser.Backend)
	}
	if c.Resolver.DefaultTimeout <= 0 {
		return fmt.Errorf("resolver.default_timeout must be a positive duration")
	}
	if c.Resolver.PollInterval <= 0 {
		return fmt.Errorf("resolver.poll_interval must be a positive duration")
	}
	if c.Resolver.StablePolls <= 0 {
		return fmt.Errorf("resolver.stable_polls must be a positive integer")
	}
	if c.Resolver.StabilityEpsilonPx <= 0 {
		return fmt.Errorf("resolver.stability_epsilon_px must be positive")
	}
	switch c.Resolver.LoadState {
	case "load", "domcontentloaded", "networkidle":
	default:
		return fmt.Errorf("resolver.load_state must be one of load, domcontentloaded, networkidle")
	}
	return nil
}
