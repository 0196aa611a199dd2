package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"devsyslog/internal/emit"
	"devsyslog/internal/filter"
	"devsyslog/internal/piddir"
	"devsyslog/internal/relay"
	"devsyslog/internal/session"
)

const maxReconnectInterval = 30 * time.Second

var errDisconnected = errors.New("relay disconnected")

// StreamParams configures a live or replayed log stream.
type StreamParams struct {
	Endpoint string
	// Input replays a capture file instead of dialing the relay.
	Input string
	// Legacy selects the NUL-terminated syslog relay format.
	Legacy bool

	Filters        *filter.Registry
	Triggers       []string
	Untriggers     []string
	ShowDeviceName bool
	Colors         emit.ColorMode
	Output         io.Writer

	ExitOnDisconnect  bool
	ReconnectInterval time.Duration
}

func (p StreamParams) sessionOptions(a *App) session.Options {
	return session.Options{
		Filters:        p.Filters,
		Triggers:       p.Triggers,
		Untriggers:     p.Untriggers,
		ShowDeviceName: p.ShowDeviceName,
		Output:         p.Output,
		Colors:         p.Colors,
		Logger:         a.log,
	}
}

// Stream relays records until the context ends, the trigger machine asks to
// quit, or the relay goes away with ExitOnDisconnect set. Without it the
// relay is redialled with exponential backoff.
func (a *App) Stream(ctx context.Context, params StreamParams) error {
	if params.Filters == nil {
		params.Filters = filter.New()
	}
	sess := session.New(params.sessionOptions(a))

	if params.Input != "" {
		return a.replay(ctx, sess, params)
	}

	interval := params.ReconnectInterval
	if interval <= 0 {
		interval = time.Second
	}
	bo := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(interval),
		backoff.WithMaxInterval(maxReconnectInterval),
		backoff.WithMaxElapsedTime(0),
	)

	op := func() error {
		err := a.streamOnce(ctx, sess, params, bo.Reset)
		switch {
		case ctx.Err() != nil || sess.ShouldQuit():
			return nil
		case params.ExitOnDisconnect:
			return backoff.Permanent(err)
		case err == nil:
			return errDisconnected
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		a.log.Infow("reconnecting to relay", "endpoint", params.Endpoint, "in", wait, "reason", err)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// streamOnce runs a single connection. connected is called once the relay
// accepted the stream.
func (a *App) streamOnce(ctx context.Context, sess *session.Session, params StreamParams, connected func()) error {
	return a.withConn(ctx, params.Endpoint, 0, func(ctx context.Context, conn io.ReadWriter) error {
		sess.DropPartial()
		if !params.Legacy {
			client := relay.NewClient(conn, a.log)
			opts, err := a.activityOptions(ctx, params)
			if err != nil {
				return err
			}
			if err := client.StartActivity(opts); err != nil {
				return fmt.Errorf("start activity: %w", err)
			}
			connected()
			if err := sess.Notice("[connected:%s]", params.Endpoint); err != nil {
				return err
			}
			err = sess.RunTrace(ctx, client)
			return a.disconnected(ctx, sess, params.Endpoint, err)
		}

		connected()
		if err := sess.Notice("[connected:%s]", params.Endpoint); err != nil {
			return err
		}
		err := sess.RunLegacy(ctx, conn)
		return a.disconnected(ctx, sess, params.Endpoint, err)
	})
}

func (a *App) disconnected(ctx context.Context, sess *session.Session, endpoint string, err error) error {
	if sess.ShouldQuit() || ctx.Err() != nil {
		return err
	}
	if nerr := sess.Notice("[disconnected:%s]", endpoint); nerr != nil && err == nil {
		err = nerr
	}
	return err
}

// activityOptions narrows the trace stream to one pid when the filters name
// exactly one process. The pid list is fetched over a separate connection.
func (a *App) activityOptions(ctx context.Context, params StreamParams) (map[string]any, error) {
	opts := map[string]any{}
	pid, ok, err := piddir.StartPID(ctx, relayProvider{app: a, endpoint: params.Endpoint}, params.Filters, a.log)
	if err != nil {
		return nil, err
	}
	if ok {
		opts["Pid"] = pid
	}
	return opts, nil
}

func (a *App) replay(ctx context.Context, sess *session.Session, params StreamParams) (err error) {
	in, err := openInput(params.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if params.Legacy {
		err = sess.RunLegacy(ctx, in)
	} else {
		err = sess.RunTrace(ctx, relay.NewFrameReader(in))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// relayProvider answers pid list queries over a fresh relay connection.
type relayProvider struct {
	app      *App
	endpoint string
}

func (p relayProvider) LookupAll(ctx context.Context) (map[string]piddir.Info, error) {
	var list map[string]piddir.Info
	err := p.app.withConn(ctx, p.endpoint, 0, func(ctx context.Context, conn io.ReadWriter) error {
		var err error
		list, err = relay.NewClient(conn, p.app.log).LookupAll(ctx)
		return err
	})
	return list, err
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
