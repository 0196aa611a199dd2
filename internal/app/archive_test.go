package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"devsyslog/internal/archive"
	"devsyslog/internal/relay"
)

func TestArchiveCopiesChunks(t *testing.T) {
	var req map[string]any
	stubRelay(t, func(context.Context, string) (io.ReadWriteCloser, error) {
		return fakeRelay(t, func(r map[string]any) [][]byte {
			req = r
			return [][]byte{
				replyFrame(t, "RequestSuccessful", nil),
				frame(3, []byte("chunk-1|")),
				frame(3, []byte("chunk-2")),
			}
		}), nil
	})

	var (
		out  bytes.Buffer
		mu   sync.Mutex
		last int64
	)
	n, err := New(Options{}).Archive(context.Background(), ArchiveParams{
		Endpoint: "relay:1",
		Options:  relay.ArchiveOptions{SizeLimit: 4096},
		Output:   &out,
		Progress: func(written int64) {
			mu.Lock()
			last = written
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(len("chunk-1|chunk-2")) || out.String() != "chunk-1|chunk-2" {
		t.Fatalf("unexpected archive %d %q", n, out.String())
	}
	if last != n {
		t.Fatalf("expected final progress %d, got %d", n, last)
	}
	if req["Request"] != "CreateArchive" {
		t.Fatalf("unexpected request %v", req)
	}
	if size, ok := req["SizeLimit"].(uint64); !ok || size != 4096 {
		t.Fatalf("expected SizeLimit 4096, got %#v", req["SizeLimit"])
	}
	if _, ok := req["StartTime"]; ok {
		t.Fatalf("unset StartTime must be omitted")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestArchiveDestinationFailure(t *testing.T) {
	stubRelay(t, func(context.Context, string) (io.ReadWriteCloser, error) {
		return fakeRelay(t, func(map[string]any) [][]byte {
			return [][]byte{
				replyFrame(t, "RequestSuccessful", nil),
				frame(3, []byte("data")),
			}
		}), nil
	})
	n, err := New(Options{}).Archive(context.Background(), ArchiveParams{Endpoint: "relay:1", Output: failingWriter{}})
	if !errors.Is(err, archive.ErrAborted) {
		t.Fatalf("expected aborted error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing written, got %d", n)
	}
}

func TestArchiveRequiresOutput(t *testing.T) {
	stubRelay(t, nil)
	_, err := New(Options{}).Archive(context.Background(), ArchiveParams{Endpoint: "relay:1"})
	if err == nil || err.Error() != "archive output must not be nil" {
		t.Fatalf("expected output error, got %v", err)
	}
}
