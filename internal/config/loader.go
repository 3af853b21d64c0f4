package config

import (
	"errors"
	"fmt"
	"strings"

	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"

	"github.com/spf13/viper"
)

const envPrefix = "MINISHOP"

// legacyEnv keeps the variable names older deployments already set.
var legacyEnv = map[string]string{
	"service.name": "SERVICE_NAME",
	"service.env":  "ENV",
	"log.file":     "LOG_FILE",
}

// Load merges defaults, the optional YAML file at path and the environment,
// in that order of increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, sqlite", c.Storage.Driver))
	}
	if c.Payment.Timeout <= 0 {
		errs = append(errs, errors.New("payment.timeout must be positive"))
	}
	if _, err := c.PaymentMethods(); err != nil {
		errs = append(errs, err)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("tracing.sample_ratio must be within [0, 1]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// PaymentMethods parses payment.enabled_methods.
func (c *Config) PaymentMethods() ([]dompay.Method, error) {
	out := make([]dompay.Method, 0, len(c.Payment.EnabledMethods))
	for _, name := range c.Payment.EnabledMethods {
		m, err := dompay.ParseMethod(name)
		if err != nil {
			return nil, fmt.Errorf("payment.enabled_methods: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("service.name", d.Service.Name)
	v.SetDefault("service.env", d.Service.Env)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("payment.timeout", d.Payment.Timeout)
	v.SetDefault("payment.enabled_methods", d.Payment.EnabledMethods)
	v.SetDefault("notification.default_recipient", d.Notification.DefaultRecipient)
	v.SetDefault("notification.async", d.Notification.Async)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)
}
