package config

import "time"

// Config is the full service configuration.
type Config struct {
	Service      ServiceConfig      `yaml:"service" mapstructure:"service"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Payment      PaymentConfig      `yaml:"payment" mapstructure:"payment"`
	Notification NotificationConfig `yaml:"notification" mapstructure:"notification"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
	Tracing      TracingConfig      `yaml:"tracing" mapstructure:"tracing"`
}

type ServiceConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	Env  string `yaml:"env" mapstructure:"env"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File receives a copy of every log line when set.
	File string `yaml:"file" mapstructure:"file"`
}

// StorageConfig selects the backend: "memory" or "sqlite".
type StorageConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

type PaymentConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// EnabledMethods limits the accepted methods; empty enables all.
	EnabledMethods []string `yaml:"enabled_methods" mapstructure:"enabled_methods"`
}

type NotificationConfig struct {
	DefaultRecipient string `yaml:"default_recipient" mapstructure:"default_recipient"`
	// Async routes confirmations through the event bus instead of sending inline.
	Async bool `yaml:"async" mapstructure:"async"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

type TracingConfig struct {
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}
