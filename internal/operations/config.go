package operations

import (
	"time"

	"charmcli/internal/config"
)

// Config represents the run execution configuration
type Config struct {
	// Step-specific timeouts
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// Timeout for steps without an explicit entry
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue on step failures
	ContinueOnError bool `json:"continue_on_error"`

	// Participants processed concurrently inside a step
	Workers int `json:"workers"`
}

// NewConfig returns the default run configuration
func NewConfig() *Config {
	return &Config{
		StepTimeouts: map[string]time.Duration{
			StepIDActivity: DefaultActivityTimeout,
		},
		DefaultTimeout: DefaultStepTimeout,
		RetryConfig:    NewRetryConfig(),
		Workers:        1,
	}
}

// ConfigFromPipeline derives the run configuration from the loaded settings
func ConfigFromPipeline(p config.PipelineConfig) *Config {
	cfg := NewConfig()
	if p.StepTimeout > 0 {
		cfg.DefaultTimeout = p.StepTimeout
		if p.StepTimeout > cfg.StepTimeouts[StepIDActivity] {
			cfg.StepTimeouts[StepIDActivity] = p.StepTimeout
		}
	}
	if p.RetryAttempts > 0 {
		cfg.RetryConfig.MaxAttempts = p.RetryAttempts + 1
	}
	if p.Workers > 0 {
		cfg.Workers = p.Workers
	}
	cfg.ContinueOnError = p.ContinueOnFail
	return cfg
}

// GetStepTimeout returns the timeout for a specific step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}

// ConfigBuilder provides a fluent interface for building run configurations
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: NewConfig(),
	}
}

// WithStepTimeout sets the timeout for a step
func (b *ConfigBuilder) WithStepTimeout(stepID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStepTimeout(stepID, timeout)
	return b
}

// WithRetryConfig sets the retry configuration
func (b *ConfigBuilder) WithRetryConfig(config RetryConfig) *ConfigBuilder {
	b.config.RetryConfig = config
	return b
}

// WithContinueOnError sets whether to continue on errors
func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

// WithWorkers sets the participant concurrency
func (b *ConfigBuilder) WithWorkers(workers int) *ConfigBuilder {
	b.config.Workers = workers
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *Config {
	return b.config
}
