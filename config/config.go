// Package config loads serializer settings from YAML or JSON files.
package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment variables overriding file settings, e.g.
// XMLB_LOG_LEVEL or XMLB_XINCLUDE_MAX_DEPTH.
const EnvPrefix = "XMLB"

// Config holds the serializer settings.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Serializer SerializerConfig `mapstructure:"serializer"`
	XInclude   XIncludeConfig   `mapstructure:"xinclude"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is a zap level name such as "debug" or "warn". Empty disables
	// logging.
	Level string `mapstructure:"level"`
}

// SerializerConfig configures the serializer facade.
type SerializerConfig struct {
	// XInclude enables inclusion processing of loaded documents.
	XInclude bool `mapstructure:"xinclude"`
}

// XIncludeConfig configures the inclusion resolver.
type XIncludeConfig struct {
	MaxDepth int `mapstructure:"max-depth"`
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	// Enabled registers the binding cache collectors with the default
	// Prometheus registerer.
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the settings used when no file is loaded.
func Default() *Config {
	return &Config{
		Serializer: SerializerConfig{XInclude: true},
		XInclude:   XIncludeConfig{MaxDepth: 16},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("serializer.xinclude", d.Serializer.XInclude)
	v.SetDefault("xinclude.max-depth", d.XInclude.MaxDepth)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML or JSON file at path. The file type is inferred from
// the extension (.yaml, .yml or .json). Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	case ".json":
		v.SetConfigType("json")
	default:
		return nil, errors.Newf("unsupported config file type %q", ext)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if cfg.Log.Level != "" {
		if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
			return nil, errors.Wrapf(err, "log.level")
		}
	}
	if cfg.XInclude.MaxDepth <= 0 {
		return nil, errors.Newf("xinclude.max-depth must be positive, got %d", cfg.XInclude.MaxDepth)
	}
	return &cfg, nil
}
