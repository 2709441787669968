package frame

import (
	"errors"
	"fmt"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

var (
	ErrFramerConfig = errors.New("frame: invalid framer configuration")
	ErrTrailerShape = errors.New("frame: trailer layout mismatch")
)

// Limits constrains frame decode/encode sizes. MaxMessageSize bounds the size
// field value: discriminant, payload fields and trailer.
type Limits struct {
	MaxMessageSize int
}

func DefaultLimits() Limits {
	return Limits{MaxMessageSize: protocol.MaxMessageSize}
}

// Trailer describes the fixed fields appended after the payload.
type Trailer[T any] struct {
	Fields  []wire.Kind
	Marshal func(t T, w *wire.Writer)
	Decode  func(r *wire.Reader) T
}

// None is the empty trailer value.
type None struct{}

// NoTrailer is the trailer of a direction that appends nothing.
var NoTrailer = Trailer[None]{
	Marshal: func(None, *wire.Writer) {},
	Decode:  func(*wire.Reader) None { return None{} },
}

// Message is one frame: size prefix, payload and trailer.
type Message[P payload.Payload, T any] struct {
	// Size excludes the size field itself.
	Size    uint16
	Payload P
	Trailer T
}

// Len returns the number of bytes the frame occupies on the wire.
func (m Message[P, T]) Len() int {
	return int(m.Size) + protocol.SizeFieldLen
}

// Discriminant returns the payload tag.
func (m Message[P, T]) Discriminant() uint16 {
	return m.Payload.Discriminant()
}

// Framer encodes and decodes size-prefixed frames for one direction.
type Framer[P payload.Payload, T any] struct {
	name       string
	payloads   *payload.Set[P]
	trailer    Trailer[T]
	trailerLen int
	limits     Limits
}

// New builds a Framer. Limits.MaxMessageSize must be in (0, protocol.MaxMessageSize].
func New[P payload.Payload, T any](name string, payloads *payload.Set[P], trailer Trailer[T], limits Limits) (*Framer[P, T], error) {
	if payloads == nil {
		return nil, fmt.Errorf("%w: %s: nil payload set", ErrFramerConfig, name)
	}
	if trailer.Marshal == nil || trailer.Decode == nil {
		return nil, fmt.Errorf("%w: %s: trailer needs marshal and decode funcs", ErrFramerConfig, name)
	}
	if limits.MaxMessageSize <= 0 || limits.MaxMessageSize > protocol.MaxMessageSize {
		return nil, fmt.Errorf("%w: %s: max message size %d out of range", ErrFramerConfig, name, limits.MaxMessageSize)
	}
	width, err := wire.Width(trailer.Fields...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: trailer: %v", ErrFramerConfig, name, err)
	}
	if err := checkTrailer(trailer, width); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Framer[P, T]{
		name:       name,
		payloads:   payloads,
		trailer:    trailer,
		trailerLen: width,
		limits:     limits,
	}, nil
}

// MustNew is New for package-level framers; it panics on misconfiguration.
func MustNew[P payload.Payload, T any](name string, payloads *payload.Set[P], trailer Trailer[T], limits Limits) *Framer[P, T] {
	f, err := New(name, payloads, trailer, limits)
	if err != nil {
		panic(err)
	}
	return f
}

func checkTrailer[T any](trailer Trailer[T], width int) error {
	zero := make([]byte, width)
	var r wire.Reader
	r.Reset(zero)
	t := trailer.Decode(&r)
	if r.Short() || r.Len() != width {
		return fmt.Errorf("%w: decode reads %d bytes, fields declare %d", ErrTrailerShape, r.Len(), width)
	}
	var w wire.Writer
	w.Reset(zero)
	trailer.Marshal(t, &w)
	if w.Short() || w.Len() != width {
		return fmt.Errorf("%w: marshal writes %d bytes, fields declare %d", ErrTrailerShape, w.Len(), width)
	}
	return nil
}

func (f *Framer[P, T]) Name() string              { return f.name }
func (f *Framer[P, T]) Limits() Limits            { return f.limits }
func (f *Framer[P, T]) TrailerLen() int           { return f.trailerLen }
func (f *Framer[P, T]) Payloads() *payload.Set[P] { return f.payloads }

// PackBufferSize is the destination size that fits any frame of this direction.
func (f *Framer[P, T]) PackBufferSize() int {
	return f.limits.MaxMessageSize + protocol.SizeFieldLen
}

// SizeOf returns the size field value for p, or 0 when p is not a known variant.
func (f *Framer[P, T]) SizeOf(p P) int {
	n := f.payloads.SizeOf(p.Discriminant())
	if n == 0 {
		return 0
	}
	return n + f.trailerLen
}

// NewMessage assembles a Message with its size computed from p and the trailer.
func (f *Framer[P, T]) NewMessage(p P, t T) Message[P, T] {
	return Message[P, T]{Size: uint16(f.SizeOf(p)), Payload: p, Trailer: t}
}

// Validate checks that msg.Size matches the recomputed frame length.
func (f *Framer[P, T]) Validate(msg Message[P, T]) error {
	size := f.SizeOf(msg.Payload)
	if size == 0 {
		return protocol.ErrInvalidMessage
	}
	if size > f.limits.MaxMessageSize {
		return protocol.ErrMessageSizeGreaterThanLimit
	}
	if int(msg.Size) != size {
		return protocol.ErrMessageSizeInvalid
	}
	return nil
}

// Encode writes the size field, the payload and the trailer into dst and
// returns the bytes written. The size is recomputed; msg.Size is not trusted.
// Nothing is written on failure.
func (f *Framer[P, T]) Encode(msg Message[P, T], dst []byte) (int, error) {
	psize := f.payloads.SizeOf(msg.Payload.Discriminant())
	if psize == 0 {
		return 0, protocol.ErrInvalidMessage
	}
	size := psize + f.trailerLen
	if size > f.limits.MaxMessageSize {
		return 0, protocol.ErrMessageSizeGreaterThanLimit
	}
	total := protocol.SizeFieldLen + size
	if len(dst) < total {
		return 0, protocol.ErrBufferSizeTooSmall
	}

	body := dst[protocol.SizeFieldLen:total]
	if _, err := f.payloads.Encode(msg.Payload, body[:psize]); err != nil {
		return 0, err
	}
	var w wire.Writer
	w.Reset(body[psize:])
	f.trailer.Marshal(msg.Trailer, &w)
	if w.Short() || w.Len() != f.trailerLen {
		return 0, fmt.Errorf("%w: %s wrote %d of %d bytes", ErrTrailerShape, f.name, w.Len(), f.trailerLen)
	}
	wire.PutU16(dst, 0, uint16(size))
	return total, nil
}

// EncodeAppend appends the encoded frame to dst.
func (f *Framer[P, T]) EncodeAppend(dst []byte, msg Message[P, T]) ([]byte, error) {
	size := f.SizeOf(msg.Payload)
	if size == 0 {
		return dst, protocol.ErrInvalidMessage
	}
	total := protocol.SizeFieldLen + size
	start := len(dst)
	if cap(dst)-start < total {
		grown := make([]byte, start, start+total)
		copy(grown, dst)
		dst = grown
	}
	n, err := f.Encode(msg, dst[start:start+total])
	if err != nil {
		return dst[:start], err
	}
	return dst[:start+n], nil
}

// Decode validates and materializes the frame at the front of src. Bytes past
// the frame are ignored; Message.Len reports how many were consumed.
//
// ErrIncompleteMessage means src holds a valid prefix and the caller should
// retry once more bytes have arrived. Every other error is terminal for the frame.
func (f *Framer[P, T]) Decode(src []byte) (Message[P, T], error) {
	var msg Message[P, T]
	if len(src) < protocol.HeaderLen {
		return msg, protocol.ErrIncompleteMessage
	}
	d, _ := wire.PeekU16(src, protocol.SizeFieldLen)
	if !f.payloads.Known(d) {
		return msg, protocol.ErrInvalidMessage
	}

	body := src[protocol.SizeFieldLen:]
	need, err := f.payloads.ProbeExtra(body, f.limits.MaxMessageSize, f.trailerLen)
	switch {
	case err == nil:
	case errors.Is(err, protocol.ErrBufferIncomplete):
		return msg, protocol.ErrIncompleteMessage
	case errors.Is(err, protocol.ErrSizeExceedsLimit):
		return msg, protocol.ErrMessageSizeGreaterThanLimit
	default:
		return msg, protocol.ErrInvalidMessage
	}

	declared, _ := wire.PeekU16(src, 0)
	if int(declared) != need {
		return msg, protocol.ErrMessageSizeInvalid
	}

	p, n := f.payloads.Decode(body)
	if n == 0 {
		return msg, protocol.ErrInvalidMessage
	}
	var r wire.Reader
	r.Reset(body[n:need])
	msg.Size = declared
	msg.Payload = p
	msg.Trailer = f.trailer.Decode(&r)
	return msg, nil
}

// Peek reports the discriminant and declared size of the frame at the front
// of src without validating it.
func Peek(src []byte) (discriminant uint16, size uint16, ok bool) {
	if len(src) < protocol.HeaderLen {
		return 0, 0, false
	}
	size, _ = wire.PeekU16(src, 0)
	discriminant, _ = wire.PeekU16(src, protocol.SizeFieldLen)
	return discriminant, size, true
}
