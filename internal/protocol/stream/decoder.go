// Package stream adapts a direction Framer to byte streams. The Decoder owns
// the read buffer and the retry-on-incomplete loop; the Encoder owns the
// scratch buffers frames are packed into before a write.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/ethoswire/internal/observability"
	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/frame"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/rs/zerolog"
)

// Decoder reads frames from an io.Reader. It is not safe for concurrent use.
type Decoder[P payload.Payload, T any] struct {
	r         io.Reader
	framer    *frame.Framer[P, T]
	buf       []byte
	start     int
	end       int
	err       error
	direction string
	logger    zerolog.Logger
}

func NewDecoder[P payload.Payload, T any](r io.Reader, f *frame.Framer[P, T], opts ...Option) *Decoder[P, T] {
	o := buildOptions(f.Name(), opts)
	size := o.bufferSize
	if size < f.PackBufferSize() {
		size = f.PackBufferSize()
	}
	return &Decoder[P, T]{
		r:         r,
		framer:    f,
		buf:       make([]byte, size),
		direction: o.direction,
		logger:    o.logger,
	}
}

// Buffered returns the number of bytes read but not yet decoded.
func (d *Decoder[P, T]) Buffered() int {
	return d.end - d.start
}

// Next returns the next frame. It returns io.EOF when the stream ends on a
// frame boundary and io.ErrUnexpectedEOF when it ends inside a frame. A
// framing error is terminal: every later call returns it again.
func (d *Decoder[P, T]) Next() (frame.Message[P, T], error) {
	var zero frame.Message[P, T]
	if d.err != nil {
		return zero, d.err
	}
	for {
		msg, err := d.framer.Decode(d.buf[d.start:d.end])
		if err == nil {
			d.start += msg.Len()
			if d.start == d.end {
				d.start, d.end = 0, 0
			}
			observability.RecordDecode(d.direction, observability.OutcomeOK, msg.Len())
			return msg, nil
		}
		if !protocol.Retryable(err) {
			return zero, d.fail(err)
		}
		if err := d.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				if d.Buffered() == 0 {
					d.err = io.EOF
					return zero, io.EOF
				}
				observability.RecordDecode(d.direction, observability.OutcomeIncomplete, 0)
				d.err = io.ErrUnexpectedEOF
				return zero, d.err
			}
			d.err = err
			return zero, err
		}
	}
}

// fill compacts the buffer and performs one read. A read returning data
// together with an error reports the error on the following call.
func (d *Decoder[P, T]) fill() error {
	if d.start > 0 {
		copy(d.buf, d.buf[d.start:d.end])
		d.end -= d.start
		d.start = 0
	}
	if d.end == len(d.buf) {
		return fmt.Errorf("stream: %s read buffer full: %w", d.direction, protocol.ErrBufferSizeTooSmall)
	}
	for {
		n, err := d.r.Read(d.buf[d.end:])
		d.end += n
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (d *Decoder[P, T]) fail(err error) error {
	observability.RecordDecode(d.direction, observability.OutcomeError, 0)
	d.logger.Debug().
		Str("direction", d.direction).
		Str("error", protocol.CodeName(protocol.Code(err))).
		Int("buffered", d.Buffered()).
		Msg("frame decode failed")
	d.err = err
	return err
}

// DecodeAll decodes the back-to-back frames at the front of src. It stops at
// the first incomplete frame and returns the frames decoded so far with the
// number of bytes they occupy; the caller keeps src[n:] for the next call.
func DecodeAll[P payload.Payload, T any](f *frame.Framer[P, T], src []byte) ([]frame.Message[P, T], int, error) {
	var out []frame.Message[P, T]
	n := 0
	for n < len(src) {
		msg, err := f.Decode(src[n:])
		if err != nil {
			if protocol.Retryable(err) {
				return out, n, nil
			}
			return out, n, err
		}
		out = append(out, msg)
		n += msg.Len()
	}
	return out, n, nil
}
