package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/podprobe/pkg/health"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/spf13/viper"
	"k8s.io/utils/ptr"
)

// EnvPrefix prefixes environment overrides, e.g. PODPROBE_LOG_LEVEL.
const EnvPrefix = "PODPROBE"

type Log struct {
	Level   string `yaml:"level" mapstructure:"level"`
	Format  string `yaml:"format" mapstructure:"format"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
}

type Enricher struct {
	Name           string `yaml:"name" mapstructure:"name"`
	PropertyPrefix string `yaml:"property_prefix" mapstructure:"property_prefix"`
	// Applicable is true unless set otherwise
	Applicable *bool `yaml:"applicable" mapstructure:"applicable"`
}

// IsApplicable reports whether the workload is treated as applicable.
func (e Enricher) IsApplicable() bool {
	return ptr.Deref(e.Applicable, true)
}

type Config struct {
	Log      Log      `yaml:"log" mapstructure:"log"`
	Enricher Enricher `yaml:"enricher" mapstructure:"enricher"`
}

func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text"},
		Enricher: Enricher{
			Name:           "healthcheck",
			PropertyPrefix: health.DefaultPropertyPrefix,
			Applicable:     ptr.To(true),
		},
	}
}

// LogConfig returns the logger configuration.
func (c *Config) LogConfig() *log.Config {
	return &log.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Output:  "console",
		NoColor: c.Log.NoColor,
	}
}

// Load reads the configuration file at path. With an empty path podprobe.yaml
// is looked up in the working directory and in $HOME/.podprobe, and defaults
// apply when none exists. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("podprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.podprobe")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.no_color", d.Log.NoColor)
	v.SetDefault("enricher.name", d.Enricher.Name)
	v.SetDefault("enricher.property_prefix", d.Enricher.PropertyPrefix)
	v.SetDefault("enricher.applicable", d.Enricher.IsApplicable())
}
