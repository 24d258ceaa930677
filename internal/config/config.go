// Package config provides the configuration structure for the
// translation-pipeline service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied to unset fields after loading.
const (
	DefaultUploadPrefix     = "uploads/"
	DefaultOutputPrefix     = "translations/"
	DefaultSourceLanguage   = "auto"
	DefaultTargetLanguage   = "en"
	DefaultVoice            = "Joanna"
	DefaultOutputFormat     = "mp3"
	DefaultRunTimeoutSec    = 1200
	DefaultEngineTimeoutSec = 30
	DefaultPollTimeoutSec   = 900
	DefaultPollInitialMS    = 2000
	DefaultPollMaxMS        = 30000
	DefaultPollMultiplier   = 1.5
	DefaultPollJitter       = 0.2
	DefaultPollMaxFailures  = 5
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                      string `toml:"url"`
	ObjectCreatedSubject     string `toml:"object_created_subject"`
	PipelineCompletedSubject string `toml:"pipeline_completed_subject"`
}

// PipelineConfig holds the run policy: key namespaces and translation and
// synthesis parameters. The output prefix doubles as the filter's reserved
// namespace.
type PipelineConfig struct {
	UploadPrefix      string `toml:"upload_prefix"`
	OutputPrefix      string `toml:"output_prefix"`
	SourceLanguage    string `toml:"source_language"`
	TargetLanguage    string `toml:"target_language"`
	Voice             string `toml:"voice"`
	OutputFormat      string `toml:"output_format"`
	RunTimeoutSeconds int    `toml:"run_timeout_seconds"`
}

// PollerConfig holds the transcription polling budget.
type PollerConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	InitialIntervalMS int     `toml:"initial_interval_ms"`
	MaxIntervalMS     int     `toml:"max_interval_ms"`
	Multiplier        float64 `toml:"multiplier"`
	JitterFraction    float64 `toml:"jitter_fraction"`
	MaxQueryFailures  int     `toml:"max_query_failures"`
}

// EnginesConfig holds the endpoints of the remote capabilities.
type EnginesConfig struct {
	TranscribeURL  string `toml:"transcribe_url"`
	TranslateURL   string `toml:"translate_url"`
	SynthesizeURL  string `toml:"synthesize_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Poller   PollerConfig   `toml:"poller"`
	Engines  EnginesConfig  `toml:"engines"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the translation-pipeline service and
// applies defaults to unset fields.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills unset fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Pipeline.UploadPrefix == "" {
		c.Pipeline.UploadPrefix = DefaultUploadPrefix
	}

	if c.Pipeline.OutputPrefix == "" {
		c.Pipeline.OutputPrefix = DefaultOutputPrefix
	}

	if c.Pipeline.SourceLanguage == "" {
		c.Pipeline.SourceLanguage = DefaultSourceLanguage
	}

	if c.Pipeline.TargetLanguage == "" {
		c.Pipeline.TargetLanguage = DefaultTargetLanguage
	}

	if c.Pipeline.Voice == "" {
		c.Pipeline.Voice = DefaultVoice
	}

	if c.Pipeline.OutputFormat == "" {
		c.Pipeline.OutputFormat = DefaultOutputFormat
	}

	if c.Pipeline.RunTimeoutSeconds <= 0 {
		c.Pipeline.RunTimeoutSeconds = DefaultRunTimeoutSec
	}

	if c.Poller.TimeoutSeconds <= 0 {
		c.Poller.TimeoutSeconds = DefaultPollTimeoutSec
	}

	if c.Poller.InitialIntervalMS <= 0 {
		c.Poller.InitialIntervalMS = DefaultPollInitialMS
	}

	if c.Poller.MaxIntervalMS <= 0 {
		c.Poller.MaxIntervalMS = DefaultPollMaxMS
	}

	if c.Poller.Multiplier < 1.0 {
		c.Poller.Multiplier = DefaultPollMultiplier
	}

	if c.Poller.JitterFraction <= 0 {
		c.Poller.JitterFraction = DefaultPollJitter
	}

	if c.Poller.MaxQueryFailures <= 0 {
		c.Poller.MaxQueryFailures = DefaultPollMaxFailures
	}

	if c.Engines.TimeoutSeconds <= 0 {
		c.Engines.TimeoutSeconds = DefaultEngineTimeoutSec
	}
}
