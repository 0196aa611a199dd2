package app

import (
	"go.uber.org/zap"

	"devsyslog/internal/config"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional TOML config file.
	ConfigPath string
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
	log     *zap.SugaredLogger
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		cfgPath: opts.ConfigPath,
		log:     logger,
	}
}

// Config loads the configuration file plus environment overrides.
func (a *App) Config() (config.Config, error) {
	return config.Load(a.cfgPath, a.log)
}
