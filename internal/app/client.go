package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"

	"devsyslog/internal/relay"
)

var (
	dialRelay = func(ctx context.Context, endpoint string) (io.ReadWriteCloser, error) {
		return relay.Dial(ctx, endpoint)
	}
	openInput = func(path string) (io.ReadCloser, error) {
		return openFile(path)
	}
)

func resetRelayDeps() {
	dialRelay = func(ctx context.Context, endpoint string) (io.ReadWriteCloser, error) {
		return relay.Dial(ctx, endpoint)
	}
	openInput = func(path string) (io.ReadCloser, error) {
		return openFile(path)
	}
}

// withConn dials endpoint and runs fn. The connection is closed when fn
// returns or when ctx ends, which unblocks any pending read.
func (a *App) withConn(ctx context.Context, endpoint string, timeout time.Duration, fn func(context.Context, io.ReadWriter) error) (err error) {
	if endpoint == "" {
		return errors.New("relay endpoint must not be empty")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := dialRelay(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("connect to relay: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		if !stop() {
			return
		}
		if cerr := conn.Close(); cerr != nil {
			err = multierror.Append(err, fmt.Errorf("close relay connection: %w", cerr)).ErrorOrNil()
		}
	}()

	return fn(ctx, conn)
}
