// Package config loads watcher configuration from the environment, with
// an optional config file for overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Every field is environment-sourced;
// the names mirror the variables the deployment already exports.
type Config struct {
	LogPath    string `mapstructure:"log_path"`
	ListenHost string `mapstructure:"listen_host"`
	ListenPort int    `mapstructure:"listen_port"`

	Concurrency  int           `mapstructure:"concurrency"`
	QueueSize    int           `mapstructure:"queue_maxsize"`
	PollInterval time.Duration `mapstructure:"poll_interval"`

	UseLocalModel  bool          `mapstructure:"use_local_model"`
	ModelAPIURL    string        `mapstructure:"model_api_url"`
	ModelAPIKey    string        `mapstructure:"model_api_key"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`

	LogLevel string `mapstructure:"log_level"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		LogPath:        "app.log",
		ListenHost:     "0.0.0.0",
		ListenPort:     9001,
		Concurrency:    4,
		QueueSize:      1000,
		PollInterval:   200 * time.Millisecond,
		UseLocalModel:  true,
		ModelAPIURL:    "http://localhost:8000",
		MaxRetries:     5,
		InitialBackoff: 500 * time.Millisecond,
		LogLevel:       "info",
	}
}

// envBindings maps config keys to the environment variable names the
// original deployment uses.
var envBindings = map[string]string{
	"log_path":        "LOG_PATH",
	"listen_host":     "WEBSOCKET_HOST",
	"listen_port":     "WEBSOCKET_PORT",
	"concurrency":     "CONCURRENCY",
	"queue_maxsize":   "QUEUE_MAXSIZE",
	"poll_interval":   "POLL_INTERVAL",
	"use_local_model": "USE_LOCAL_MODEL",
	"model_api_url":   "MODEL_API_URL",
	"model_api_key":   "MODEL_API_KEY",
	"max_retries":     "MAX_RETRIES",
	"initial_backoff": "INITIAL_BACKOFF",
	"log_level":       "LOG_LEVEL",
}

// Load reads configuration from the environment and, when configFile is
// non-empty, from a config file whose values sit below the environment.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("log_path", def.LogPath)
	v.SetDefault("listen_host", def.ListenHost)
	v.SetDefault("listen_port", def.ListenPort)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("queue_maxsize", def.QueueSize)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("use_local_model", def.UseLocalModel)
	v.SetDefault("model_api_url", def.ModelAPIURL)
	v.SetDefault("model_api_key", def.ModelAPIKey)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("initial_backoff", def.InitialBackoff)
	v.SetDefault("log_level", def.LogLevel)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("log_path must not be empty")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port %d out of range", c.ListenPort)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_maxsize must be positive, got %d", c.QueueSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if !c.UseLocalModel && c.ModelAPIURL == "" {
		return fmt.Errorf("model_api_url required when use_local_model is false")
	}
	return nil
}

// ListenAddr returns host:port for the websocket/HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}
