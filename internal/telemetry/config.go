// Package telemetry wires OpenTelemetry tracing and metrics for the activity
// registry. Spans go out over OTLP/HTTP; metrics can be pushed over OTLP,
// scraped from /metrics through the Prometheus exporter, or both.
package telemetry

import (
	"errors"
	"fmt"
)

// Defaults applied when the corresponding field is left empty
const (
	DefaultServiceName = "activity-registry-api"
	DefaultEndpoint    = "localhost:4318"
	DefaultSampling    = 0.05
)

// Config is the telemetry section of the server configuration.
// Nothing is exported unless Enabled is set.
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`
	// host:port of an OTLP/HTTP collector; /v1/traces and /v1/metrics are appended
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig enables span export. Sampling is a ratio in [0, 1].
type TracingConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig selects the metric exporters
type MetricsConfig struct {
	Enabled     bool `yaml:"enabled"`
	Prometheus  bool `yaml:"prometheus,omitempty"`
	DisableOTLP bool `yaml:"disableOTLP,omitempty"`
}

func (c *Config) GetServiceName() string {
	return orDefault(c.ServiceName, DefaultServiceName)
}

func (c *Config) GetServiceVersion() string {
	return orDefault(c.ServiceVersion, unknownVersion)
}

func (c *Config) GetEndpoint() string {
	return orDefault(c.Endpoint, DefaultEndpoint)
}

func (c *Config) GetInsecure() bool {
	return c.Insecure
}

// PrometheusEnabled reports whether /metrics should be served
func (c *Config) PrometheusEnabled() bool {
	if c == nil || !c.Enabled || c.Metrics == nil {
		return false
	}
	return c.Metrics.Enabled && c.Metrics.Prometheus
}

// GetSampling returns the sampling ratio. YAML cannot tell an explicit 0
// from an absent key, so 0 means DefaultSampling.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

// Validate checks the enabled sub-sections. A nil or disabled config is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	return errors.Join(errs...)
}

func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.Sampling < 0 || c.Sampling > 1 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}
	return nil
}

func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.DisableOTLP && !c.Prometheus {
		return errors.New("at least one exporter must be enabled: set prometheus or re-enable OTLP")
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
