// Package server defines the server->client payload set and framer. Every
// server frame carries a trailing monotonic timestamp.
package server

import (
	"time"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/frame"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

// Discriminants.
const (
	ActionDiscriminant  uint16 = 1
	ErrorDiscriminant          = protocol.ErrorDiscriminant
	InvalidDiscriminant        = protocol.InvalidDiscriminant
)

// MaxMessageSize is the protocol-wide ceiling.
const MaxMessageSize = protocol.MaxMessageSize

// PackBufferSize fits any server frame, size field included.
const PackBufferSize = MaxMessageSize + protocol.SizeFieldLen

// Payload is a server->client payload variant.
type Payload interface {
	payload.Payload
	serverPayload()
}

// Action reports an action performed by a character.
type Action struct {
	Kind      uint16
	Character uint32
	Value     uint32
	Extra     uint32
}

func (Action) Discriminant() uint16 { return ActionDiscriminant }
func (Action) serverPayload()       {}

func (a Action) MarshalFields(w *wire.Writer) {
	w.U16(a.Kind)
	w.U32(a.Character)
	w.U32(a.Value)
	w.U32(a.Extra)
}

// Error reports a protocol or application failure to the client.
type Error struct {
	Code uint32
}

func (Error) Discriminant() uint16 { return ErrorDiscriminant }
func (Error) serverPayload()       {}

func (e Error) MarshalFields(w *wire.Writer) {
	w.U32(e.Code)
}

// ErrorFor maps err to an Error payload using protocol.Code.
func ErrorFor(err error) Error {
	return Error{Code: protocol.Code(err)}
}

// Invalid is the sentinel produced for unrecognized discriminants.
type Invalid struct{}

func (Invalid) Discriminant() uint16       { return InvalidDiscriminant }
func (Invalid) serverPayload()             {}
func (Invalid) MarshalFields(*wire.Writer) {}

// Timestamp is the trailing server clock reading in milliseconds.
type Timestamp struct {
	Millis uint64
}

// Duration returns the reading as a time.Duration since the clock origin.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t.Millis) * time.Millisecond
}

var TimestampTrailer = frame.Trailer[Timestamp]{
	Fields: []wire.Kind{wire.KindU64},
	Marshal: func(t Timestamp, w *wire.Writer) {
		w.U64(t.Millis)
	},
	Decode: func(r *wire.Reader) Timestamp {
		return Timestamp{Millis: r.U64()}
	},
}

// Message is one server frame.
type Message = frame.Message[Payload, Timestamp]

var Payloads = payload.MustSet[Payload]("server", Invalid{},
	payload.Variant[Payload]{
		Discriminant: ActionDiscriminant,
		Name:         "action",
		Fields:       []wire.Kind{wire.KindU16, wire.KindU32, wire.KindU32, wire.KindU32},
		Decode: func(r *wire.Reader) Payload {
			return Action{Kind: r.U16(), Character: r.U32(), Value: r.U32(), Extra: r.U32()}
		},
	},
	payload.Variant[Payload]{
		Discriminant: ErrorDiscriminant,
		Name:         "error",
		Fields:       []wire.Kind{wire.KindU32},
		Decode: func(r *wire.Reader) Payload {
			return Error{Code: r.U32()}
		},
	},
)

var Framer = frame.MustNew("server", Payloads, TimestampTrailer, frame.Limits{MaxMessageSize: MaxMessageSize})

// NewMessage wraps p in a server frame stamped with ts.
func NewMessage(ts Timestamp, p Payload) Message {
	return Framer.NewMessage(p, ts)
}

// Encode writes msg into dst and returns the bytes written.
func Encode(msg Message, dst []byte) (int, error) {
	return Framer.Encode(msg, dst)
}

// Decode reads one server frame from the front of src.
func Decode(src []byte) (Message, error) {
	return Framer.Decode(src)
}
