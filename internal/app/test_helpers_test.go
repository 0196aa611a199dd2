package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"howett.net/plist"

	"devsyslog/internal/ostrace"
)

func stubRelay(t *testing.T, dial func(context.Context, string) (io.ReadWriteCloser, error)) {
	t.Helper()
	resetRelayDeps()
	if dial == nil {
		dial = func(context.Context, string) (io.ReadWriteCloser, error) {
			return nil, errors.New("dial not stubbed")
		}
	}
	dialRelay = dial
	t.Cleanup(resetRelayDeps)
}

// fakeRelay serves one connection. handle receives the decoded request and
// returns the frames to send back; the connection is closed afterwards.
func fakeRelay(t *testing.T, handle func(req map[string]any) [][]byte) io.ReadWriteCloser {
	t.Helper()
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		var size [4]byte
		if _, err := io.ReadFull(server, size[:]); err != nil {
			return
		}
		body := make([]byte, binary.BigEndian.Uint32(size[:]))
		if _, err := io.ReadFull(server, body); err != nil {
			return
		}
		var req map[string]any
		if _, err := plist.Unmarshal(body, &req); err != nil {
			return
		}
		for _, f := range handle(req) {
			if _, err := server.Write(f); err != nil {
				return
			}
		}
	}()
	return client
}

// rawRelay streams data and closes the connection.
func rawRelay(data string) io.ReadWriteCloser {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		server.Write([]byte(data))
	}()
	return client
}

func frame(t byte, payload []byte) []byte {
	out := []byte{t, 0, 0, 0, 0}
	if t == 1 {
		binary.BigEndian.PutUint32(out[1:], uint32(len(payload)))
	} else {
		binary.LittleEndian.PutUint32(out[1:], uint32(len(payload)))
	}
	return append(out, payload...)
}

func replyFrame(t *testing.T, status string, payload any) []byte {
	t.Helper()
	rep := map[string]any{"Status": status}
	if payload != nil {
		rep["Payload"] = payload
	}
	data, err := plist.Marshal(rep, plist.BinaryFormat)
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return frame(1, data)
}

func tracePacket(t *testing.T, pid uint32, procPath, message string) []byte {
	t.Helper()
	proc := procPath + "\x00"
	msg := message + "\x00"
	h := ostrace.Header{
		Marker:      2,
		Type:        8,
		HeaderSize:  ostrace.HeaderSize,
		PID:         pid,
		TimeSec:     uint64(time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Local).Unix()),
		ProcPathLen: uint16(len(proc)),
		MessageLen:  uint32(len(msg)),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		t.Fatalf("encode header: %v", err)
	}
	buf.WriteString(proc)
	buf.WriteString(msg)
	return buf.Bytes()
}
