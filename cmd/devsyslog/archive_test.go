package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devsyslog/internal/app"
	"devsyslog/internal/relay"
)

func TestArchiveWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.tar")
	withController(t, &stubController{
		archiveFunc: func(ctx context.Context, params app.ArchiveParams) (int64, error) {
			if params.Endpoint != "relay:1" || params.Options.SizeLimit != 1024 {
				t.Fatalf("unexpected params %+v", params)
			}
			n, err := params.Output.Write([]byte("archive-bytes"))
			if params.Progress != nil {
				params.Progress(int64(n))
			}
			return int64(n), err
		},
	})
	_, errOut := withOutput(t, cmdArchive)
	withEndpoint(t, "relay:1")
	old := archiveOpts
	archiveOpts = relay.ArchiveOptions{SizeLimit: 1024}
	t.Cleanup(func() { archiveOpts = old })

	if err := cmdArchive.RunE(cmdArchive, []string{path}); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "archive-bytes" {
		t.Fatalf("unexpected archive content %q", data)
	}
	if !strings.Contains(errOut.String(), "Received 13 bytes") {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestArchiveRequiresPath(t *testing.T) {
	err := cmdArchive.Args(cmdArchive, nil)
	if err == nil || exitCode(err) != 2 {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestArchiveError(t *testing.T) {
	expected := errors.New("relay down")
	withController(t, &stubController{
		archiveFunc: func(context.Context, app.ArchiveParams) (int64, error) {
			return 0, expected
		},
	})
	withOutput(t, cmdArchive)
	withEndpoint(t, "relay:1")

	err := cmdArchive.RunE(cmdArchive, []string{filepath.Join(t.TempDir(), "out.tar")})
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}
