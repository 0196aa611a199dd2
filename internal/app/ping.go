package app

import (
	"context"
	"errors"
	"io"
	"time"

	"devsyslog/internal/relay"
)

// Ping checks that the relay at endpoint answers a process list request and
// returns the number of processes it reported.
func (a *App) Ping(ctx context.Context, endpoint string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return 0, errors.New("timeout must be greater than 0")
	}
	var count int
	err := a.withConn(ctx, endpoint, timeout, func(ctx context.Context, conn io.ReadWriter) error {
		list, err := relay.NewClient(conn, a.log).LookupAll(ctx)
		count = len(list)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
