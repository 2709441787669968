package server

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/ethoswire/internal/protocol"
)

func TestErrorFrameLayout(t *testing.T) {
	msg := NewMessage(Timestamp{Millis: 1234}, Error{Code: protocol.CodeMessageSizeGreaterThanLimit})
	buf := make([]byte, 32)
	n, err := Encode(msg, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0x0e, 0x00,
		0xfe, 0xff,
		0x03, 0x00, 0x00, 0x00,
		0xd2, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("layout mismatch:\n got=%x\nwant=%x", buf[:n], want)
	}
}

func TestActionRoundTrip(t *testing.T) {
	in := Action{Kind: 2, Character: 77, Value: 1 << 31, Extra: 9}
	msg := NewMessage(Timestamp{Millis: 1 << 40}, in)
	if msg.Size != 24 {
		t.Fatalf("expected size 24, got %d", msg.Size)
	}
	buf := make([]byte, msg.Len())
	if _, err := Encode(msg, buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Payload != Payload(in) {
		t.Fatalf("payload mismatch: %+v", out.Payload)
	}
	if out.Trailer.Millis != 1<<40 {
		t.Fatalf("timestamp mismatch: %d", out.Trailer.Millis)
	}
}

func TestTruncatedTimestampIsIncomplete(t *testing.T) {
	msg := NewMessage(Timestamp{Millis: 5}, Error{Code: 1})
	buf := make([]byte, msg.Len())
	if _, err := Encode(msg, buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(buf[:len(buf)-1]); !errors.Is(err, protocol.ErrIncompleteMessage) {
		t.Fatalf("expected ErrIncompleteMessage, got %v", err)
	}
}

func TestDecodeRejectsClientKey(t *testing.T) {
	buf := make([]byte, 20)
	buf[0] = 0x12
	if _, err := Decode(buf); !errors.Is(err, protocol.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestErrorFor(t *testing.T) {
	if got := ErrorFor(protocol.ErrMessageSizeInvalid); got.Code != protocol.CodeMessageSizeInvalid {
		t.Fatalf("unexpected code: %d", got.Code)
	}
	if got := ErrorFor(errors.New("boom")); got.Code != protocol.CodeInternal {
		t.Fatalf("unexpected code for unknown error: %d", got.Code)
	}
}

func TestClockIsMonotonic(t *testing.T) {
	c := NewClock()
	first := c.Now()
	time.Sleep(2 * time.Millisecond)
	second := c.Now()
	if second.Millis < first.Millis {
		t.Fatalf("clock went backwards: %d -> %d", first.Millis, second.Millis)
	}
	if second.Duration() < 2*time.Millisecond {
		t.Fatalf("expected at least 2ms elapsed, got %v", second.Duration())
	}
	msg := c.Stamp(Error{Code: 0})
	if msg.Size != 14 || msg.Trailer.Millis < second.Millis {
		t.Fatalf("unexpected stamped message: %+v", msg)
	}
}
