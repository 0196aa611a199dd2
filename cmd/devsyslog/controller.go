package main

import (
	"context"
	"time"

	"devsyslog/internal/app"
	"devsyslog/internal/config"
	"devsyslog/internal/piddir"
)

// controllerAPI is the part of app.App the commands use.
type controllerAPI interface {
	Config() (config.Config, error)
	Stream(ctx context.Context, params app.StreamParams) error
	PidList(ctx context.Context, params app.PidListParams) (*piddir.Directory, error)
	Archive(ctx context.Context, params app.ArchiveParams) (int64, error)
	Ping(ctx context.Context, endpoint string, timeout time.Duration) (int, error)
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{ConfigPath: configPath, Logger: diag})
}

func controller() controllerAPI {
	return controllerFactory()
}
