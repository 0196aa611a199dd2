package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"devsyslog/internal/emit"
)

const (
	defaultConfigPath        = "~/.config/devsyslog/config.toml"
	defaultReconnectInterval = time.Second
	envColors                = "DEVSYSLOG_COLORS"
	envReconnectInterval     = "DEVSYSLOG_RECONNECT_INTERVAL"
)

// Config holds the persistent defaults for the command line.
type Config struct {
	Endpoint          string
	Colors            emit.ColorMode
	ShowDeviceName    bool
	SyslogRelay       bool
	ExitOnDisconnect  bool
	ReconnectInterval time.Duration
	QuietProcesses    []string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Colors:            emit.ColorAuto,
		ReconnectInterval: defaultReconnectInterval,
	}
}

// Load builds a Config from an optional TOML file plus environment overrides.
// An empty path means the default location; a missing default file is not an error.
func Load(path string, logger *zap.SugaredLogger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	resolved := path
	if !explicit {
		resolved = defaultConfigPath
	}
	resolved, err := expandPath(resolved)
	if err != nil {
		return cfg, err
	}

	if err := loadFromFile(resolved, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(&cfg, logger)
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", resolved, err)
	}

	applyEnvOverrides(&cfg, logger)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, logger *zap.SugaredLogger) {
	if v := os.Getenv(envColors); v != "" {
		if mode, err := emit.ParseColorMode(v); err == nil {
			cfg.Colors = mode
		} else {
			logger.Warnf("invalid %s value %q: %v", envColors, v, err)
		}
	}

	if v := os.Getenv(envReconnectInterval); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.ReconnectInterval = dur
		} else if err != nil {
			logger.Warnf("invalid %s value %q: %v", envReconnectInterval, v, err)
		}
	}
}

type fileConfig struct {
	Endpoint          string   `toml:"endpoint"`
	Colors            string   `toml:"colors"`
	ShowDeviceName    bool     `toml:"show_device_name"`
	SyslogRelay       bool     `toml:"syslog_relay"`
	ExitOnDisconnect  bool     `toml:"exit_on_disconnect"`
	ReconnectInterval string   `toml:"reconnect_interval"`
	QuietProcesses    []string `toml:"quiet_processes"`
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	if raw.Colors != "" {
		mode, err := emit.ParseColorMode(raw.Colors)
		if err != nil {
			return fmt.Errorf("parse colors: %w", err)
		}
		cfg.Colors = mode
	}
	cfg.ShowDeviceName = raw.ShowDeviceName
	cfg.SyslogRelay = raw.SyslogRelay
	cfg.ExitOnDisconnect = raw.ExitOnDisconnect
	if raw.ReconnectInterval != "" {
		dur, err := time.ParseDuration(raw.ReconnectInterval)
		if err != nil {
			return fmt.Errorf("parse reconnect_interval: %w", err)
		}
		if dur <= 0 {
			return errors.New("reconnect_interval must be > 0")
		}
		cfg.ReconnectInterval = dur
	}
	for _, name := range raw.QuietProcesses {
		if name = strings.TrimSpace(name); name != "" {
			cfg.QuietProcesses = append(cfg.QuietProcesses, name)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
