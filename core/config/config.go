// Package config loads auditpipe settings from config.yaml and the
// environment, and configures the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gaurav-prasanna/auditpipe/core/segment"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Metadata  MetadataConfig  `yaml:"metadata" mapstructure:"metadata"`
	Sections  SectionsConfig  `yaml:"sections" mapstructure:"sections"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ArtifactsConfig configures where raw HTML, text and JSON snapshots go.
type ArtifactsConfig struct {
	// Driver is "fs" (files under Dir) or "sqlite" (rows in SQLitePath).
	Driver           string `yaml:"driver" mapstructure:"driver"`
	Dir              string `yaml:"dir" mapstructure:"dir"`
	SQLitePath       string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MarkdownSnapshot bool   `yaml:"markdown_snapshot" mapstructure:"markdown_snapshot"`
}

// FetchConfig configures retrieval of reports given as URLs.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// MetadataConfig selects the metadata extraction strategy.
type MetadataConfig struct {
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
}

// SectionsConfig holds the ordered section header list.
type SectionsConfig struct {
	Headers []string `yaml:"headers" mapstructure:"headers"`
}

// PipelineConfig configures batch conversion.
type PipelineConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AUDITPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("artifacts.driver", "fs")
	v.SetDefault("artifacts.dir", "scraped_data")
	v.SetDefault("artifacts.sqlite_path", "auditpipe.db")
	v.SetDefault("artifacts.markdown_snapshot", false)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.user_agent", "auditpipe/1.0")
	v.SetDefault("metadata.strategy", "text")
	v.SetDefault("sections.headers", segment.DefaultHeaders)
	v.SetDefault("pipeline.max_concurrent", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot constrain.
func (c *Config) Validate() error {
	switch c.Artifacts.Driver {
	case "fs", "sqlite":
	default:
		return eris.Errorf("config: unknown artifacts driver %q", c.Artifacts.Driver)
	}
	if c.Pipeline.MaxConcurrent < 1 {
		return eris.Errorf("config: pipeline.max_concurrent must be positive, got %d", c.Pipeline.MaxConcurrent)
	}
	if len(c.Sections.Headers) == 0 {
		return eris.New("config: sections.headers must not be empty")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
