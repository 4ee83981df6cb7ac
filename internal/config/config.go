package config

import (
	"time"

	"github.com/vovakirdan/wirepush/internal/core"
)

// AppConfig registers one application namespace.
type AppConfig struct {
	Key    string `mapstructure:"key" yaml:"key"`
	Secret string `mapstructure:"secret" yaml:"secret"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendBuffer        int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval" yaml:"metrics_interval"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	Apps              []AppConfig   `mapstructure:"apps" yaml:"apps"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":2120",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxMessageBytes:   64 << 10,
		SendBuffer:        32,
		MetricsInterval:   time.Minute,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.MetricsInterval != 0 {
		c.MetricsInterval = other.MetricsInterval
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if len(other.Apps) > 0 {
		c.Apps = other.Apps
	}
}

// CoreApps converts configured applications for the namespace registry.
func (c *Config) CoreApps() []core.App {
	apps := make([]core.App, 0, len(c.Apps))
	for _, a := range c.Apps {
		apps = append(apps, core.App{Key: a.Key, Secret: a.Secret})
	}
	return apps
}
