package stream

import (
	"fmt"
	"io"

	"github.com/danmuck/ethoswire/internal/observability"
	"github.com/danmuck/ethoswire/internal/protocol/frame"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/rs/zerolog"
)

// Encoder writes frames to an io.Writer. It is not safe for concurrent use.
type Encoder[P payload.Payload, T any] struct {
	w         io.Writer
	framer    *frame.Framer[P, T]
	scratch   []byte
	direction string
	logger    zerolog.Logger
}

func NewEncoder[P payload.Payload, T any](w io.Writer, f *frame.Framer[P, T], opts ...Option) *Encoder[P, T] {
	o := buildOptions(f.Name(), opts)
	return &Encoder[P, T]{
		w:         w,
		framer:    f,
		scratch:   make([]byte, f.PackBufferSize()),
		direction: o.direction,
		logger:    o.logger,
	}
}

// Encode packs msg and writes it with a single Write call.
func (e *Encoder[P, T]) Encode(msg frame.Message[P, T]) error {
	n, err := e.pack(msg)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(e.scratch[:n]); err != nil {
		return fmt.Errorf("stream: write %s frame: %w", e.direction, err)
	}
	return nil
}

// EncodeAll packs every message into one pooled buffer and writes it at once.
// Nothing is written if any message fails to encode.
func (e *Encoder[P, T]) EncodeAll(msgs ...frame.Message[P, T]) error {
	if len(msgs) == 0 {
		return nil
	}
	buf := batchBuffers.Get()
	defer batchBuffers.Put(buf)
	for _, msg := range msgs {
		n, err := e.pack(msg)
		if err != nil {
			return err
		}
		buf.Write(e.scratch[:n])
	}
	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("stream: write %d %s frames: %w", len(msgs), e.direction, err)
	}
	return nil
}

func (e *Encoder[P, T]) pack(msg frame.Message[P, T]) (int, error) {
	n, err := e.framer.Encode(msg, e.scratch)
	if err != nil {
		observability.RecordEncode(e.direction, observability.OutcomeError, 0)
		e.logger.Debug().
			Str("direction", e.direction).
			Uint16("discriminant", msg.Discriminant()).
			Err(err).
			Msg("frame encode failed")
		return 0, fmt.Errorf("stream: encode %s frame: %w", e.direction, err)
	}
	observability.RecordEncode(e.direction, observability.OutcomeOK, n)
	return n, nil
}
