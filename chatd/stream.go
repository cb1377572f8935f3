package chatd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kswierk/vox"
)

// Interface compliance check.
var _ vox.Stream = (*stream)(nil)

// stream implements [vox.Stream] by reading SSE frames from the daemon's
// response body and decoding each payload into a delta.
type stream struct {
	ctx     context.Context
	connect func(context.Context) (io.ReadCloser, error)
	body    io.ReadCloser
	scanner *bufio.Scanner
	state   vox.StreamState
	err     error // terminal error, if any
	closed  bool
	log     *slog.Logger
}

func newStream(ctx context.Context, connect func(context.Context) (io.ReadCloser, error), log *slog.Logger) *stream {
	return &stream{
		ctx:     ctx,
		connect: connect,
		state:   vox.StateIdle,
		log:     log,
	}
}

// Next returns the next decoded delta in wire order. The first call
// establishes the connection. Returns io.EOF on the [DONE] sentinel or a
// clean server close; any other error is terminal.
func (s *stream) Next() (vox.Delta, error) {
	if s.closed {
		return vox.Delta{}, vox.ErrStreamClosed
	}
	switch s.state {
	case vox.StateCompleted:
		return vox.Delta{}, io.EOF
	case vox.StateFailed:
		return vox.Delta{}, s.err
	case vox.StateIdle:
		if err := s.open(); err != nil {
			return vox.Delta{}, err
		}
	}

	for {
		payload, err := s.readFrame()
		if err == io.EOF {
			// Server closed the body without a sentinel: normal end.
			s.state = vox.StateCompleted
			return vox.Delta{}, io.EOF
		}
		if err != nil {
			return vox.Delta{}, s.fail(err)
		}
		if payload == doneSentinel {
			// The sentinel is consumed, never forwarded downstream.
			s.state = vox.StateCompleted
			return vox.Delta{}, io.EOF
		}

		delta, err := decodeChunk(payload)
		if err != nil {
			// A single bad chunk is dropped; the stream keeps reading.
			s.log.Debug("dropping undecodable chunk", "error", err)
			continue
		}
		return delta, nil
	}
}

func (s *stream) open() error {
	s.state = vox.StateConnecting
	body, err := s.connect(s.ctx)
	if err != nil {
		return s.fail(err)
	}
	s.body = body
	s.scanner = bufio.NewScanner(body)
	s.state = vox.StateStreaming
	return nil
}

// readFrame reads lines until the next data frame. Blank keep-alive lines,
// comments, and non-data SSE fields are silently discarded. Returns io.EOF
// on a clean close and a wrapped error when the transport breaks mid-read,
// so callers can tell "server finished" from "connection broke".
func (s *stream) readFrame() (string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if strings.HasPrefix(line, dataPrefix) {
			return strings.TrimPrefix(line, dataPrefix), nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("chatd: %w", err)
	}
	return "", io.EOF
}

func (s *stream) fail(err error) error {
	s.state = vox.StateFailed
	s.err = err
	return err
}

// State returns the current stream state.
func (s *stream) State() vox.StreamState {
	return s.state
}

// Close closes the underlying response body. Subsequent Next calls return
// [vox.ErrStreamClosed].
func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
