package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ConfigFileEnv names the variable pointing at an optional YAML file. Values
// in the file override environment variables and defaults.
const ConfigFileEnv = "CONFIG_FILE"

type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Logger    LoggerConfig    `yaml:"logger" envconfig:"LOG"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"localhost" validate:"required"`
	Port            int           `yaml:"port" default:"8084" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" default:"30s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" default:"30s"`
}

type DatasetConfig struct {
	Path     string `yaml:"path" default:"data/online_retail.csv" validate:"required"`
	Kind     string `yaml:"kind" validate:"omitempty,oneof=csv xlsx sqlite"`
	Encoding string `yaml:"encoding" default:"auto" validate:"oneof=auto utf8 latin1"`
	Sheet    string `yaml:"sheet"`
	Table    string `yaml:"table"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"rate_limit_enabled" split_words:"true" default:"true"`
	RateLimitRPS    int      `yaml:"rate_limit_rps" split_words:"true" default:"100" validate:"gt=0"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" split_words:"true" default:"20" validate:"gt=0"`
	AllowedOrigins  []string `yaml:"allowed_origins" split_words:"true" default:"http://localhost:8084"`
	TrustedProxies  []string `yaml:"trusted_proxies" split_words:"true" default:"127.0.0.1"`
}

type AnalysisConfig struct {
	TopCountries   int           `yaml:"top_countries" split_words:"true" default:"10" validate:"gt=0"`
	Clusters       int           `yaml:"clusters" default:"3" validate:"min=1,max=20"`
	Seed           uint64        `yaml:"seed" default:"42"`
	Attempts       int           `yaml:"attempts" default:"10" validate:"min=1,max=100"`
	MaxIterations  int           `yaml:"max_iterations" split_words:"true" default:"300" validate:"min=1"`
	ClusterTimeout time.Duration `yaml:"cluster_timeout" split_words:"true" default:"30s"`
}

type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" split_words:"true" default:"retail-insights" validate:"required"`
	// Traces selects the span exporter.
	Traces  string `yaml:"traces" default:"none" validate:"oneof=none stdout"`
	Metrics bool   `yaml:"metrics" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overlayFile decodes the YAML file on top of cfg; keys absent from the file
// keep their current values.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, c)
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) validate() error {
	if err := structValidator.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Server.WriteTimeout < c.Server.ReadTimeout {
		return fmt.Errorf("server write timeout %s must not be shorter than read timeout %s",
			c.Server.WriteTimeout, c.Server.ReadTimeout)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
