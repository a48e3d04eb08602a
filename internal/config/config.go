// Package config holds seogen's runtime configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/FranksOps/seogen/internal/export"
	"github.com/FranksOps/seogen/internal/fingerprint"
	"github.com/FranksOps/seogen/internal/serp"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SEOGEN_OPENAI_MODEL.
const EnvPrefix = "SEOGEN"

// MaxAttempts bounds generation.max_attempts.
const MaxAttempts = 10

// Secret is a string that never prints its value.
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Value returns the underlying secret.
func (s Secret) Value() string { return string(s) }

// Config aggregates runtime configuration.
type Config struct {
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	SERP       SERPConfig       `mapstructure:"serp"`
	Generation GenerationConfig `mapstructure:"generation"`
	Output     OutputConfig     `mapstructure:"output"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// OpenAIConfig configures the chat-completion client.
type OpenAIConfig struct {
	APIKey      Secret        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SERPConfig configures result-page fetching.
type SERPConfig struct {
	Engine        string        `mapstructure:"engine"`
	BaseURL       string        `mapstructure:"base_url"`
	Results       int           `mapstructure:"results"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Fingerprint   string        `mapstructure:"fingerprint"`
	UserAgents    []string      `mapstructure:"user_agents"`
	ProxyFile     string        `mapstructure:"proxy_file"`
	RPS           float64       `mapstructure:"rps"`
	Jitter        float64       `mapstructure:"jitter"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	MaxRedirects  int           `mapstructure:"max_redirects"`
}

// GenerationConfig configures retries around the completion call.
type GenerationConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffUnit time.Duration `mapstructure:"backoff_unit"`
}

// OutputConfig selects the export file.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// SinkConfig selects an optional result sink, e.g. sqlite:results.db.
type SinkConfig struct {
	DSN Secret `mapstructure:"dsn"`
}

// MetricsConfig enables the Prometheus endpoint when Port is non-zero.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.temperature", 0)
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("serp.engine", "google")
	v.SetDefault("serp.base_url", "")
	v.SetDefault("serp.results", serp.DefaultLimit)
	v.SetDefault("serp.timeout", 15*time.Second)
	v.SetDefault("serp.fingerprint", string(fingerprint.ProfileChrome))
	v.SetDefault("serp.user_agents", []string{})
	v.SetDefault("serp.proxy_file", "")
	v.SetDefault("serp.rps", 0)
	v.SetDefault("serp.jitter", 0)
	v.SetDefault("serp.respect_robots", false)
	v.SetDefault("serp.max_redirects", 5)

	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.backoff_unit", time.Second)

	v.SetDefault("output.format", string(export.FormatCSV))
	v.SetDefault("output.path", "")

	v.SetDefault("sink.dsn", "")
	v.SetDefault("metrics.port", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// BindEnv makes v read SEOGEN_* variables for every key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config. OPENAI_API_KEY is used when no key was
// configured under openai.api_key.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations. It does not require an API
// key; see RequireAPIKey.
func (c *Config) Validate() error {
	var errs []error

	if _, err := serp.New(c.SERP.Engine, nil, "", nil); err != nil {
		errs = append(errs, fmt.Errorf("serp.engine: %w", err))
	}
	if _, err := fingerprint.ParseProfile(c.SERP.Fingerprint); err != nil {
		errs = append(errs, fmt.Errorf("serp.fingerprint: %w", err))
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if c.SERP.Results < 1 {
		errs = append(errs, errors.New("serp.results must be at least 1"))
	}
	if c.SERP.Timeout <= 0 {
		errs = append(errs, errors.New("serp.timeout must be positive"))
	}
	if c.SERP.RPS < 0 || c.SERP.Jitter < 0 || c.SERP.Jitter > 1 {
		errs = append(errs, errors.New("serp.rps must be >= 0 and serp.jitter within [0,1]"))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, errors.New("openai.timeout must be positive"))
	}
	if c.Generation.MaxAttempts < 1 || c.Generation.MaxAttempts > MaxAttempts {
		errs = append(errs, fmt.Errorf("generation.max_attempts must be between 1 and %d", MaxAttempts))
	}
	if c.Generation.BackoffUnit < 0 {
		errs = append(errs, errors.New("generation.backoff_unit must not be negative"))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		errs = append(errs, errors.New("metrics.port out of range"))
	}

	return errors.Join(errs...)
}

// RequireAPIKey reports an error when no OpenAI key is configured.
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("an OpenAI API key is required: set openai.api_key, SEOGEN_OPENAI_API_KEY or OPENAI_API_KEY")
	}
	return nil
}

// OutputPath returns Output.Path, or the default file name for the format.
func (c *Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	f, err := export.ParseFormat(c.Output.Format)
	if err != nil {
		f = export.FormatCSV
	}
	return export.DefaultFilename(f)
}
