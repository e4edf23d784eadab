package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvSettings is the environment variable the native tooling conventionally
// reads the settings document from.
const EnvSettings = "SENZING_ENGINE_CONFIGURATION_JSON"

// Config is the resolved CLI configuration. Precedence is flags, then
// SZSAFE_* environment variables, then the config file, then defaults.
type Config struct {
	InstanceName string        `mapstructure:"instance_name" validate:"required"`
	Settings     string        `mapstructure:"settings" validate:"required,json"`
	Verbose      bool          `mapstructure:"verbose"`
	ConfigID     int64         `mapstructure:"config_id" validate:"gte=0"`
	Library      string        `mapstructure:"library"`
	Fake         bool          `mapstructure:"fake"`
	LogLevel     string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"instance-name": "instance_name",
	"settings":      "settings",
	"verbose":       "verbose",
	"config-id":     "config_id",
	"library":       "library",
	"fake":          "fake",
	"log-level":     "log_level",
	"timeout":       "timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("instance_name", "szsafe")
	v.SetDefault("settings", "{}")
	v.SetDefault("verbose", false)
	v.SetDefault("config_id", 0)
	v.SetDefault("library", "")
	v.SetDefault("fake", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("timeout", 5*time.Minute)
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SZSAFE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("settings", "SZSAFE_SETTINGS", EnvSettings); err != nil {
		return nil, err
	}
	setDefaults(v)

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}
	return v, nil
}

// loadConfig resolves and validates the configuration. path names an
// optional yaml or toml file.
func loadConfig(flags *pflag.FlagSet, path string) (*Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
