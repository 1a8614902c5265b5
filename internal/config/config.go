// Package config loads csv-server settings from flags, environment variables
// and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	OptionNameConfig          = "config"
	OptionNameAddr            = "addr"
	OptionNameDataDir         = "data-dir"
	OptionNameLogLevel        = "log-level"
	OptionNameLogFormat       = "log-format"
	OptionNameShutdownTimeout = "shutdown-timeout"
	OptionNameRateLimit       = "rate-limit"
	OptionNameRateWindow      = "rate-window"
	OptionNameMetrics         = "metrics"
)

// EnvPrefix prefixes every environment override, e.g. CSV_SERVER_ADDR.
const EnvPrefix = "CSV_SERVER"

const (
	DefaultAddr            = "127.0.0.1:5000"
	DefaultDataDir         = "."
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultRateWindow      = time.Minute
)

// Config is the validated process configuration.
type Config struct {
	Addr            string
	DataDir         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RateLimit       int
	RateWindow      time.Duration
	Metrics         bool

	// ConfigFile is the file the settings were read from, empty if none.
	ConfigFile string
}

// SetDefaults registers the default value of every option on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(OptionNameAddr, DefaultAddr)
	v.SetDefault(OptionNameDataDir, DefaultDataDir)
	v.SetDefault(OptionNameLogLevel, DefaultLogLevel)
	v.SetDefault(OptionNameLogFormat, DefaultLogFormat)
	v.SetDefault(OptionNameShutdownTimeout, DefaultShutdownTimeout)
	v.SetDefault(OptionNameRateLimit, 0)
	v.SetDefault(OptionNameRateWindow, DefaultRateWindow)
	v.SetDefault(OptionNameMetrics, true)
}

// Load reads the configuration from v. An explicit configFile must exist;
// otherwise config.yaml in the working directory is read when present.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Addr:            strings.TrimSpace(v.GetString(OptionNameAddr)),
		DataDir:         v.GetString(OptionNameDataDir),
		LogLevel:        strings.ToLower(v.GetString(OptionNameLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(OptionNameLogFormat)),
		ShutdownTimeout: v.GetDuration(OptionNameShutdownTimeout),
		RateLimit:       v.GetInt(OptionNameRateLimit),
		RateWindow:      v.GetDuration(OptionNameRateWindow),
		Metrics:         v.GetBool(OptionNameMetrics),
		ConfigFile:      v.ConfigFileUsed(),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
