// Package client defines the client->server payload set and framer.
//
// The server does not extend trust to client framing: the maximum message
// size is a small constant, so a forged size claim can never drive a large read.
package client

import (
	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/frame"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

// Discriminants.
const (
	KeyDiscriminant     uint16 = 0
	InvalidDiscriminant        = protocol.InvalidDiscriminant
)

// MaxMessageSize bounds the size field of any client frame.
const MaxMessageSize = 32

// PackBufferSize fits any client frame, size field included.
const PackBufferSize = MaxMessageSize + protocol.SizeFieldLen

// Payload is a client->server payload variant.
type Payload interface {
	payload.Payload
	clientPayload()
}

// Key carries the 128-bit shared secret a client authenticates with.
type Key struct {
	Key wire.Uint128
}

func (Key) Discriminant() uint16 { return KeyDiscriminant }
func (Key) clientPayload()       {}

func (k Key) MarshalFields(w *wire.Writer) {
	w.U128(k.Key)
}

// Invalid is the sentinel produced for unrecognized discriminants.
type Invalid struct{}

func (Invalid) Discriminant() uint16       { return InvalidDiscriminant }
func (Invalid) clientPayload()             {}
func (Invalid) MarshalFields(*wire.Writer) {}

// Message is one client frame.
type Message = frame.Message[Payload, frame.None]

var Payloads = payload.MustSet[Payload]("client", Invalid{},
	payload.Variant[Payload]{
		Discriminant: KeyDiscriminant,
		Name:         "key",
		Fields:       []wire.Kind{wire.KindU128},
		Decode: func(r *wire.Reader) Payload {
			return Key{Key: r.U128()}
		},
	},
)

var Framer = frame.MustNew("client", Payloads, frame.NoTrailer, frame.Limits{MaxMessageSize: MaxMessageSize})

// NewMessage wraps p in a client frame with its size computed.
func NewMessage(p Payload) Message {
	return Framer.NewMessage(p, frame.None{})
}

// Encode writes msg into dst and returns the bytes written.
func Encode(msg Message, dst []byte) (int, error) {
	return Framer.Encode(msg, dst)
}

// Decode reads one client frame from the front of src.
func Decode(src []byte) (Message, error) {
	return Framer.Decode(src)
}
