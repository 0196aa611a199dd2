package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"devsyslog/internal/archive"
	"devsyslog/internal/relay"
)

const progressInterval = 100 * time.Millisecond

// ArchiveParams configures a log archive transfer.
type ArchiveParams struct {
	Endpoint string
	Options  relay.ArchiveOptions
	Output   io.Writer
	// Progress, if set, is called periodically with the bytes written so far.
	Progress func(written int64)
}

// Archive streams a log archive into params.Output and returns the number of
// bytes written. Cancelling ctx aborts the transfer; bytes already written
// are kept.
func (a *App) Archive(ctx context.Context, params ArchiveParams) (int64, error) {
	if params.Output == nil {
		return 0, errors.New("archive output must not be nil")
	}
	sink := archive.NewSink(params.Output, func() bool { return ctx.Err() != nil })

	stop := a.reportProgress(sink, params.Progress)
	err := a.withConn(ctx, params.Endpoint, 0, func(ctx context.Context, conn io.ReadWriter) error {
		return relay.NewClient(conn, a.log).CreateArchive(params.Options, sink)
	})
	stop()

	if err != nil && ctx.Err() != nil && !errors.Is(err, archive.ErrAborted) {
		err = fmt.Errorf("%w: %v", archive.ErrAborted, ctx.Err())
	}
	return sink.Written(), err
}

func (a *App) reportProgress(sink *archive.Sink, progress func(int64)) func() {
	if progress == nil {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				progress(sink.Written())
				return
			case <-ticker.C:
				progress(sink.Written())
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
