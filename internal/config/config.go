// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Agent    AgentConfig     `mapstructure:"agent" yaml:"agent"`
	LLM      LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	Locator  LocatorConfig   `mapstructure:"locator" yaml:"locator"`
	Executor ExecutorConfig  `mapstructure:"executor" yaml:"executor"`
	Screen   ScreenConfig    `mapstructure:"screen" yaml:"screen"`
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

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig tunes the control loop: retry ceilings, backoff between attempts
// and the global budgets that guarantee termination.
type AgentConfig struct {
	// MaxStepAttempts is the per-step failure ceiling before a replan is requested.
	MaxStepAttempts int `mapstructure:"max_step_attempts" yaml:"max_step_attempts"`
	// RetryBackoff is the constant wait before retrying a failed step. UI settle
	// time is roughly constant, so this does not grow exponentially.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	// MaxTotalAttempts caps step attempts across the whole task.
	MaxTotalAttempts int `mapstructure:"max_total_attempts" yaml:"max_total_attempts"`
	// WallClockBudget caps the total task duration.
	WallClockBudget time.Duration `mapstructure:"wall_clock_budget" yaml:"wall_clock_budget"`
	// MaxMemoryRecords bounds Execution Memory before compaction kicks in.
	MaxMemoryRecords int `mapstructure:"max_memory_records" yaml:"max_memory_records"`
}

// LocatorConfig tunes the Click Locator's candidate selection.
type LocatorConfig struct {
	// ConfidenceThreshold is the minimum confidence below which a candidate is
	// discarded. An empty surviving set yields NotFound, never a guess.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	// TieTolerance: candidates whose confidence is within this delta of the best
	// are tie-broken by proximity to the last successful interaction point.
	TieTolerance float64 `mapstructure:"tie_tolerance" yaml:"tie_tolerance"`
	// MaxImageDimension is the longest side the screenshot is scaled to before
	// submission to the vision service.
	MaxImageDimension int `mapstructure:"max_image_dimension" yaml:"max_image_dimension"`
	// JPEGQuality for the encoded screenshot.
	JPEGQuality int `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// ExecutorConfig tunes the Action Executor.
type ExecutorConfig struct {
	// SettleDelay is applied after every action so the UI reaches a stable state
	// before the next observation is captured.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// CommandTimeout bounds RUN_COMMAND and OPEN_APPLICATION spawns.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	Humanoid       HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
}

// HumanoidConfig contains the tunable parameters for human-like input
// simulation: pointer movement physics and typing cadence.
type HumanoidConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// FittsA and FittsB parameterize Fitts's law (movement time in ms).
	FittsA float64 `mapstructure:"fitts_a" yaml:"fitts_a"`
	FittsB float64 `mapstructure:"fitts_b" yaml:"fitts_b"`
	// JitterAmplitude is the pixel magnitude of positional noise along a path.
	JitterAmplitude float64 `mapstructure:"jitter_amplitude" yaml:"jitter_amplitude"`
	// KeyDelayMeanMs and KeyDelayStdDevMs model the inter-key interval.
	KeyDelayMeanMs   float64 `mapstructure:"key_delay_mean_ms" yaml:"key_delay_mean_ms"`
	KeyDelayStdDevMs float64 `mapstructure:"key_delay_stddev_ms" yaml:"key_delay_stddev_ms"`
}

// ScreenConfig selects the display to capture.
type ScreenConfig struct {
	DisplayIndex int `mapstructure:"display_index" yaml:"display_index"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
	// RequestsPerMinute throttles outbound reasoning calls across all tiers.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deskpilot")
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

	// -- Agent --
	v.SetDefault("agent.max_step_attempts", 3)
	v.SetDefault("agent.retry_backoff", "2s")
	v.SetDefault("agent.max_total_attempts", 25)
	v.SetDefault("agent.wall_clock_budget", "10m")
	v.SetDefault("agent.max_memory_records", 60)

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "fast")
	v.SetDefault("llm.default_powerful_model", "powerful")
	v.SetDefault("llm.requests_per_minute", 15)
	v.SetDefault("llm.models.fast.provider", "gemini")
	v.SetDefault("llm.models.fast.model", "gemini-2.0-flash")
	v.SetDefault("llm.models.fast.api_timeout", "30s")
	v.SetDefault("llm.models.fast.temperature", 0.2)
	v.SetDefault("llm.models.fast.max_tokens", 4096)
	v.SetDefault("llm.models.powerful.provider", "gemini")
	v.SetDefault("llm.models.powerful.model", "gemini-2.0-flash-thinking-exp")
	v.SetDefault("llm.models.powerful.api_timeout", "60s")
	v.SetDefault("llm.models.powerful.temperature", 0.2)
	v.SetDefault("llm.models.powerful.max_tokens", 8192)

	// -- Locator --
	v.SetDefault("locator.confidence_threshold", 0.5)
	v.SetDefault("locator.tie_tolerance", 0.05)
	v.SetDefault("locator.max_image_dimension", 1280)
	v.SetDefault("locator.jpeg_quality", 75)

	// -- Executor --
	v.SetDefault("executor.settle_delay", "2s")
	v.SetDefault("executor.command_timeout", "30s")
	v.SetDefault("executor.humanoid.enabled", true)
	v.SetDefault("executor.humanoid.fitts_a", 120.0)
	v.SetDefault("executor.humanoid.fitts_b", 110.0)
	v.SetDefault("executor.humanoid.jitter_amplitude", 1.5)
	v.SetDefault("executor.humanoid.key_delay_mean_ms", 90.0)
	v.SetDefault("executor.humanoid.key_delay_stddev_ms", 35.0)

	// -- Screen --
	v.SetDefault("screen.display_index", 0)
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with hard-coded defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the invariants the control loop depends on.
func (c *Config) Validate() error {
	if c.Agent.MaxStepAttempts < 1 {
		return fmt.Errorf("agent.max_step_attempts must be at least 1, got %d", c.Agent.MaxStepAttempts)
	}
	if c.Agent.MaxTotalAttempts < c.Agent.MaxStepAttempts {
		return fmt.Errorf("agent.max_total_attempts (%d) must not be below agent.max_step_attempts (%d)",
			c.Agent.MaxTotalAttempts, c.Agent.MaxStepAttempts)
	}
	if c.Agent.WallClockBudget <= 0 {
		return fmt.Errorf("agent.wall_clock_budget must be positive")
	}
	if c.Locator.ConfidenceThreshold < 0 || c.Locator.ConfidenceThreshold > 1 {
		return fmt.Errorf("locator.confidence_threshold must be in [0,1], got %f", c.Locator.ConfidenceThreshold)
	}
	if c.Locator.MaxImageDimension < 64 {
		return fmt.Errorf("locator.max_image_dimension too small: %d", c.Locator.MaxImageDimension)
	}
	if c.Locator.JPEGQuality < 1 || c.Locator.JPEGQuality > 100 {
		return fmt.Errorf("locator.jpeg_quality must be in [1,100], got %d", c.Locator.JPEGQuality)
	}
	if c.LLM.RequestsPerMinute < 1 {
		return fmt.Errorf("llm.requests_per_minute must be at least 1")
	}
	return nil
}
