package config

import "time"

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "minishop",
			Env:  "local",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Driver:     DriverMemory,
			SQLitePath: "data/minishop.db",
		},
		Payment: PaymentConfig{
			Timeout:        5 * time.Second,
			EnabledMethods: []string{"credit_card", "pix", "boleto"},
		},
		Notification: NotificationConfig{
			DefaultRecipient: "cliente@example.com",
			Async:            true,
		},
		Metrics: MetricsConfig{
			Namespace: "minishop",
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}
