package stream

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"testing/iotest"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/client"
	"github.com/danmuck/ethoswire/internal/protocol/server"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
	"github.com/danmuck/ethoswire/internal/testutil/testlog"
)

func keyFrames(t *testing.T, count int) []byte {
	t.Helper()
	var buf []byte
	var err error
	for i := 0; i < count; i++ {
		buf, err = client.Framer.EncodeAppend(buf, client.NewMessage(client.Key{Key: wire.U128(0, uint64(i+1))}))
		if err != nil {
			t.Fatalf("encode key %d: %v", i, err)
		}
	}
	return buf
}

func TestDecoderReadsBackToBackFramesByteByByte(t *testing.T) {
	testlog.Start(t)
	src := keyFrames(t, 3)
	dec := NewDecoder(iotest.OneByteReader(bytes.NewReader(src)), client.Framer, WithBufferSize(1), WithLogger(testlog.Logger(t)))
	for i := 0; i < 3; i++ {
		msg, err := dec.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		key, ok := msg.Payload.(client.Key)
		if !ok || key.Key.Lo != uint64(i+1) {
			t.Fatalf("frame %d mismatch: %+v", i, msg.Payload)
		}
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if dec.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d", dec.Buffered())
	}
}

func TestDecoderTruncatedStream(t *testing.T) {
	src := keyFrames(t, 2)
	dec := NewDecoder(bytes.NewReader(src[:len(src)-3]), client.Framer)
	if _, err := dec.Next(); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if _, err := dec.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if dec.Buffered() != 17 {
		t.Fatalf("expected the partial frame to stay buffered, got %d", dec.Buffered())
	}
}

func TestDecoderFramingErrorIsSticky(t *testing.T) {
	src := keyFrames(t, 2)
	wire.PutU16(src, 20, 0x0011)
	dec := NewDecoder(bytes.NewReader(src), client.Framer, WithLogger(testlog.Logger(t)))
	if _, err := dec.Next(); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := dec.Next(); !errors.Is(err, protocol.ErrMessageSizeInvalid) {
			t.Fatalf("call %d: expected ErrMessageSizeInvalid, got %v", i, err)
		}
	}
}

func TestDecoderRejectsUnknownDiscriminantWithoutWaiting(t *testing.T) {
	// a server Error header arriving on the client direction
	dec := NewDecoder(bytes.NewReader([]byte{0xff, 0xff, 0xfe, 0xff}), client.Framer)
	if _, err := dec.Next(); !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestDecoderReadError(t *testing.T) {
	boom := errors.New("boom")
	dec := NewDecoder(iotest.ErrReader(boom), client.Framer)
	if _, err := dec.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestDecodeAllKeepsPartialTail(t *testing.T) {
	src := keyFrames(t, 3)
	msgs, n, err := DecodeAll(client.Framer, src[:len(src)-5])
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(msgs) != 2 || n != 40 {
		t.Fatalf("expected 2 frames in 40 bytes, got %d in %d", len(msgs), n)
	}

	wire.PutU16(src, 2, 0x0042)
	msgs, n, err = DecodeAll(client.Framer, src)
	if !errors.Is(err, protocol.ErrInvalidMessage) || len(msgs) != 0 || n != 0 {
		t.Fatalf("expected immediate invalid message, got %d frames n=%d err=%v", len(msgs), n, err)
	}
}

func TestEncoderDecoderOverPipe(t *testing.T) {
	testlog.Start(t)
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	clock := server.NewClock()
	sent := []server.Message{
		clock.Stamp(server.Action{Kind: 1, Character: 10, Value: 20, Extra: 30}),
		clock.Stamp(server.Error{Code: protocol.CodeInvalidMessage}),
	}
	errCh := make(chan error, 1)
	go func() {
		enc := NewEncoder(left, server.Framer, WithDirection("test-server"))
		errCh <- enc.EncodeAll(sent...)
	}()

	dec := NewDecoder(right, server.Framer)
	for i, want := range sent {
		got, err := dec.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.Payload != want.Payload || got.Trailer != want.Trailer || got.Size != want.Size {
			t.Fatalf("frame %d mismatch: got=%+v want=%+v", i, got, want)
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("encode all: %v", err)
	}
}

func TestEncoderEncodeAllWritesNothingOnFailure(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, client.Framer)
	err := enc.EncodeAll(
		client.NewMessage(client.Key{Key: wire.U128(0, 1)}),
		client.Message{Payload: client.Invalid{}},
	)
	if !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no bytes written, got %d", out.Len())
	}

	if err := enc.Encode(client.NewMessage(client.Key{Key: wire.U128(0, 1)})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out.Len() != 20 {
		t.Fatalf("expected 20 bytes, got %d", out.Len())
	}
}

func TestBufPoolResetsBuffers(t *testing.T) {
	p := NewBufPool()
	b := p.Get()
	b.WriteString("frame")
	p.Put(b)
	if got := p.Get(); got.Len() != 0 {
		t.Fatalf("expected reset buffer, got %d bytes", got.Len())
	}
}
