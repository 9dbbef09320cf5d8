// Package config provides configuration loading and management for the activity registry server.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mergington/activity-registry/internal/service"
	"github.com/mergington/activity-registry/internal/telemetry"
)

const (
	// EnvPrefix is the prefix for environment variables read by the server
	EnvPrefix = "ACTIVITY_REGISTRY"

	// DefaultRegistryName is used when the config does not name the registry
	DefaultRegistryName = "mergington-high"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		realPath, err := resolvePath(path)
		if err != nil {
			return err
		}
		cfg.path = realPath
		return nil
	}
}

// resolvePath resolves symlinks and rejects relative paths that escape the
// working directory.
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	// Note that this calls filepath.Clean internally.
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
		return "", fmt.Errorf("path is not local or contains invalid traversal: %s", path)
	}
	return realPath, nil
}

// Config represents the root configuration structure
type Config struct {
	// RegistryName is the name/identifier for this registry instance
	// Defaults to "mergington-high" if not specified
	RegistryName string `yaml:"registryName,omitempty"`

	// EnforceCapacity rejects signups for full activities. Defaults to true.
	EnforceCapacity *bool `yaml:"enforceCapacity,omitempty"`

	// Activities is the seed catalog keyed by activity name.
	// When neither Activities nor SeedFile is set the built-in catalog is used.
	Activities map[string]ActivityConfig `yaml:"activities,omitempty"`

	// SeedFile points to a YAML or JSON file with the same shape as Activities.
	// Relative paths are resolved against the config file's directory.
	SeedFile string `yaml:"seedFile,omitempty"`

	// Telemetry configures OpenTelemetry tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ActivityConfig is the seed definition of a single activity
type ActivityConfig struct {
	Description     string   `yaml:"description" json:"description"`
	Schedule        string   `yaml:"schedule" json:"schedule"`
	MaxParticipants int      `yaml:"maxParticipants" json:"maxParticipants"`
	Participants    []string `yaml:"participants,omitempty" json:"participants,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := decode(data, configSchema, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if config.SeedFile != "" {
		if len(config.Activities) > 0 {
			return nil, fmt.Errorf("invalid configuration: activities and seedFile are mutually exclusive")
		}

		seedPath := config.SeedFile
		if !filepath.IsAbs(seedPath) {
			seedPath = filepath.Join(filepath.Dir(loaderCfg.path), seedPath)
		}
		activities, err := loadSeedFile(seedPath)
		if err != nil {
			return nil, err
		}
		config.Activities = activities
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadSeedFile reads an activity catalog. yaml.v3 accepts JSON documents too.
func loadSeedFile(path string) (map[string]ActivityConfig, error) {
	realPath, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("seed file: %w", err)
	}

	data, err := os.ReadFile(realPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var activities map[string]ActivityConfig
	if err := decode(data, activitiesSchema, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if len(activities) == 0 {
		return nil, fmt.Errorf("seed file %s contains no activities", path)
	}
	return activities, nil
}

// decode parses data, checks it against schema and then decodes it into out
func decode(data []byte, schema gojsonschema.JSONLoader, out any) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if err := validateDocument(schema, stringKeys(doc)); err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// stringKeys rewrites mappings with non-string keys, such as an unquoted
// activity named 2024, into map[string]any so the schema loader can
// marshal them. yaml.v3 decodes those keys into string fields the same way.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}

// Default returns the configuration used when no config file is given
func Default() *Config {
	return &Config{}
}

// GetRegistryName returns the registry name, using DefaultRegistryName if not specified
func (c *Config) GetRegistryName() string {
	if c.RegistryName == "" {
		return DefaultRegistryName
	}
	return c.RegistryName
}

// CapacityEnforced reports whether signups beyond maxParticipants are rejected
func (c *Config) CapacityEnforced() bool {
	if c.EnforceCapacity == nil {
		return true
	}
	return *c.EnforceCapacity
}

// Catalog returns the seed catalog, falling back to DefaultActivities
func (c *Config) Catalog() service.Catalog {
	if len(c.Activities) == 0 {
		return DefaultActivities()
	}

	catalog := make(service.Catalog, len(c.Activities))
	for name, a := range c.Activities {
		catalog[name] = service.Activity{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    append([]string(nil), a.Participants...),
		}
	}
	return catalog
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := service.ValidateCatalog(c.Catalog(), c.CapacityEnforced()); err != nil {
		return err
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}
