package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"devsyslog/internal/emit"
	"devsyslog/internal/filter"
)

const legacyRecords = "Jan  1 00:00:00 iPhone kernel[0] <Notice>: boot ok\n\x00" +
	"Jan  1 00:00:01 iPhone Mail[11] <Error>: sync failed\n\x00"

func TestStreamRejectsEmptyEndpoint(t *testing.T) {
	stubRelay(t, nil)
	err := New(Options{}).Stream(context.Background(), StreamParams{ExitOnDisconnect: true, Output: io.Discard})
	if err == nil || err.Error() != "relay endpoint must not be empty" {
		t.Fatalf("expected endpoint error, got %v", err)
	}
}

func TestStreamDialErrorWithExit(t *testing.T) {
	stubRelay(t, func(context.Context, string) (io.ReadWriteCloser, error) {
		return nil, errors.New("dial failed")
	})
	err := New(Options{}).Stream(context.Background(), StreamParams{
		Endpoint:         "127.0.0.1:1",
		ExitOnDisconnect: true,
		Output:           io.Discard,
	})
	if err == nil || err.Error() != "connect to relay: dial failed" {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestStreamLegacyExitOnDisconnect(t *testing.T) {
	stubRelay(t, func(ctx context.Context, endpoint string) (io.ReadWriteCloser, error) {
		if endpoint != "relay:1" {
			t.Fatalf("unexpected endpoint %q", endpoint)
		}
		return rawRelay(legacyRecords), nil
	})
	var out bytes.Buffer
	reg := filter.New()
	reg.AddProcessOrPIDFilter("Mail")

	err := New(Options{}).Stream(context.Background(), StreamParams{
		Endpoint:         "relay:1",
		Legacy:           true,
		Filters:          reg,
		Output:           &out,
		Colors:           emit.ColorNever,
		ExitOnDisconnect: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[connected:relay:1]\nJan  1 00:00:01 Mail[11] <Error>: sync failed\n[disconnected:relay:1]\n"
	if got := out.String(); got != want {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestStreamReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	stubRelay(t, func(context.Context, string) (io.ReadWriteCloser, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		switch calls {
		case 1:
			return nil, errors.New("not yet")
		case 2:
			return rawRelay(legacyRecords), nil
		default:
			cancel()
			return nil, errors.New("gone")
		}
	})

	var out bytes.Buffer
	err := New(Options{}).Stream(ctx, StreamParams{
		Endpoint:          "relay:1",
		Legacy:            true,
		Output:            &out,
		Colors:            emit.ColorNever,
		ReconnectInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 dials, got %d", calls)
	}
	got := out.String()
	if !strings.HasPrefix(got, "[connected:relay:1]\n") || !strings.HasSuffix(got, "[disconnected:relay:1]\n") {
		t.Fatalf("missing connection notices: %q", got)
	}
	if strings.Count(got, "\n") != 4 {
		t.Fatalf("expected two records plus notices, got %q", got)
	}
}

func TestStreamTraceNarrowsToProcess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	started := make(chan map[string]any, 1)
	stubRelay(t, func(context.Context, string) (io.ReadWriteCloser, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return fakeRelay(t, func(req map[string]any) [][]byte {
				started <- req
				return [][]byte{
					replyFrame(t, "RequestSuccessful", nil),
					frame(2, tracePacket(t, 80, "/Applications/Mail.app/Mail", "fetched")),
				}
			}), nil
		}
		return fakeRelay(t, func(req map[string]any) [][]byte {
			if req["Request"] != "PidList" {
				t.Errorf("expected PidList, got %v", req["Request"])
			}
			return [][]byte{replyFrame(t, "RequestSuccessful", map[string]any{
				"1":  map[string]any{"ProcessName": "launchd"},
				"80": map[string]any{"ProcessName": "Mail"},
			})}
		}), nil
	})

	reg := filter.New()
	reg.AddProcessOrPIDFilter("Mail")
	var out bytes.Buffer
	err := New(Options{}).Stream(context.Background(), StreamParams{
		Endpoint:         "relay:1",
		Filters:          reg,
		Output:           &out,
		Colors:           emit.ColorNever,
		ExitOnDisconnect: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := <-started
	if req["Request"] != "StartActivity" {
		t.Fatalf("unexpected request %v", req)
	}
	if pid, ok := req["Pid"].(uint64); !ok || pid != 80 {
		t.Fatalf("expected Pid 80, got %#v", req["Pid"])
	}
	if !strings.Contains(out.String(), "Mail[80] <Notice>: fetched\n") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestStreamTraceRequestFailure(t *testing.T) {
	stubRelay(t, func(context.Context, string) (io.ReadWriteCloser, error) {
		return fakeRelay(t, func(map[string]any) [][]byte {
			return [][]byte{replyFrame(t, "Denied", nil)}
		}), nil
	})
	err := New(Options{}).Stream(context.Background(), StreamParams{
		Endpoint:         "relay:1",
		Output:           io.Discard,
		ExitOnDisconnect: true,
	})
	if err == nil || !strings.Contains(err.Error(), "start activity") {
		t.Fatalf("expected start activity error, got %v", err)
	}
}

func TestStreamReplayLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")
	if err := os.WriteFile(path, []byte(legacyRecords), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := New(Options{}).Stream(context.Background(), StreamParams{
		Input:      path,
		Legacy:     true,
		Output:     &out,
		Colors:     emit.ColorNever,
		Untriggers: []string{"never"},
		Triggers:   []string{"boot"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); strings.Count(got, "\n") != 2 || strings.Contains(got, "connected") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestStreamReplayTraceFile(t *testing.T) {
	var capture bytes.Buffer
	capture.Write(frame(2, tracePacket(t, 5, "/usr/sbin/wifid", "scan")))
	capture.Write(frame(1, tracePacket(t, 6, "/usr/sbin/bluetoothd", "pair")))

	stubRelay(t, nil)
	openInput = func(path string) (io.ReadCloser, error) {
		if path != "trace.cap" {
			t.Fatalf("unexpected path %q", path)
		}
		return io.NopCloser(&capture), nil
	}

	var out bytes.Buffer
	err := New(Options{}).Stream(context.Background(), StreamParams{
		Input:  "trace.cap",
		Output: &out,
		Colors: emit.ColorNever,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "wifid[5] <Notice>: scan\n") || !strings.Contains(got, "bluetoothd[6] <Notice>: pair\n") {
		t.Fatalf("unexpected output %q", got)
	}
}
