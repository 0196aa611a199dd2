package app

import (
	"context"
	"io"
	"time"

	"devsyslog/internal/piddir"
	"devsyslog/internal/relay"
)

// PidListParams selects the relay and timeout for a process list query.
type PidListParams struct {
	Endpoint string
	Timeout  time.Duration
}

// PidList fetches the running processes of the device.
func (a *App) PidList(ctx context.Context, params PidListParams) (*piddir.Directory, error) {
	var dir *piddir.Directory
	err := a.withConn(ctx, params.Endpoint, params.Timeout, func(ctx context.Context, conn io.ReadWriter) error {
		var err error
		dir, err = piddir.Fetch(ctx, relay.NewClient(conn, a.log))
		return err
	})
	return dir, err
}
