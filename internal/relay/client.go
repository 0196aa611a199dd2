package relay

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"
	"howett.net/plist"

	"devsyslog/internal/piddir"
)

const statusSuccess = "RequestSuccessful"

// ErrRequestFailed is returned when the relay does not acknowledge a request.
var ErrRequestFailed = errors.New("relay request failed")

// Dial connects to endpoint.
func Dial(ctx context.Context, endpoint string) (net.Conn, error) {
	network, address := splitEndpoint(endpoint)
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", endpoint, err)
	}
	return conn, nil
}

// Client speaks the request/reply protocol of the trace relay.
type Client struct {
	rw     io.ReadWriter
	frames *FrameReader
	log    *zap.SugaredLogger
}

// NewClient wraps an established connection.
func NewClient(rw io.ReadWriter, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{rw: rw, frames: NewFrameReader(rw), log: log}
}

// ReadPacket returns the next activity packet after StartActivity.
func (c *Client) ReadPacket() ([]byte, error) {
	return c.frames.ReadPacket()
}

type reply struct {
	Status  string                 `plist:"Status"`
	Payload map[string]piddir.Info `plist:"Payload"`
}

// StartActivity requests the activity stream. opts are merged over the defaults.
func (c *Client) StartActivity(opts map[string]any) error {
	req := map[string]any{
		"Pid":           uint64(0xFFFFFFFF),
		"MessageFilter": 0xFFFF,
		"StreamFlags":   0x3C,
	}
	for k, v := range opts {
		req[k] = v
	}
	req["Request"] = "StartActivity"
	_, err := c.roundTrip(req)
	return err
}

// LookupAll returns the running processes keyed by pid.
func (c *Client) LookupAll(ctx context.Context) (map[string]piddir.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep, err := c.roundTrip(map[string]any{"Request": "PidList"})
	if err != nil {
		return nil, err
	}
	if rep.Payload == nil {
		return nil, fmt.Errorf("%w: PidList reply without payload", ErrRequestFailed)
	}
	return rep.Payload, nil
}

// ArchiveOptions limits a CreateArchive request. Non-positive values are omitted.
type ArchiveOptions struct {
	StartTime int64
	SizeLimit int64
	AgeLimit  int64
}

func (o ArchiveOptions) request() map[string]any {
	req := map[string]any{}
	if o.StartTime > 0 {
		req["StartTime"] = o.StartTime
	}
	if o.SizeLimit > 0 {
		req["SizeLimit"] = o.SizeLimit
	}
	if o.AgeLimit > 0 {
		req["AgeLimit"] = o.AgeLimit
	}
	req["Request"] = "CreateArchive"
	return req
}

// CreateArchive requests a log archive and copies every archive chunk to w
// until the relay closes the stream.
func (c *Client) CreateArchive(opts ArchiveOptions, w io.Writer) error {
	if _, err := c.roundTrip(opts.request()); err != nil {
		return err
	}
	for {
		fr, err := c.frames.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive archive: %w", err)
		}
		if fr.Type != FrameArchive {
			return fmt.Errorf("%w %d in archive stream", ErrUnexpectedFrame, fr.Type)
		}
		c.log.Debugw("archive chunk", "len", len(fr.Payload))
		if _, err := w.Write(fr.Payload); err != nil {
			return err
		}
	}
}

func (c *Client) roundTrip(req map[string]any) (*reply, error) {
	if err := writeRequest(c.rw, req); err != nil {
		return nil, fmt.Errorf("send %v request: %w", req["Request"], err)
	}
	fr, err := c.frames.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("receive %v reply: %w", req["Request"], err)
	}
	if fr.Type == FrameArchive {
		return nil, fmt.Errorf("%w %d for %v reply", ErrUnexpectedFrame, fr.Type, req["Request"])
	}
	c.log.Debugw("relay reply", "request", req["Request"], "len", len(fr.Payload))

	var rep reply
	if _, err := plist.Unmarshal(fr.Payload, &rep); err != nil {
		return nil, fmt.Errorf("decode %v reply: %w", req["Request"], err)
	}
	if rep.Status != statusSuccess {
		return nil, fmt.Errorf("%w: %v returned status %q", ErrRequestFailed, req["Request"], rep.Status)
	}
	return &rep, nil
}

// writeRequest sends req as a binary plist behind a big-endian length.
func writeRequest(w io.Writer, req map[string]any) error {
	body, err := plist.Marshal(req, plist.BinaryFormat)
	if err != nil {
		return err
	}
	msg := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint32(msg, uint32(len(body)))
	msg = append(msg, body...)
	_, err = w.Write(msg)
	return err
}
