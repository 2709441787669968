package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/client"
	"github.com/danmuck/ethoswire/internal/protocol/frame"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/danmuck/ethoswire/internal/protocol/server"
	"github.com/danmuck/ethoswire/internal/protocol/stream"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

var errUnknownDirection = errors.New("direction must be client or server")

func runEncode(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	direction := fs.String("direction", "client", "frame direction: client or server")
	variant := fs.String("variant", "", "payload variant: key (client), action or error (server)")
	key := fs.String("key", "0", "client key, decimal or 0x hex")
	code := fs.Uint("code", 0, "server error code")
	kind := fs.Uint("kind", 0, "server action kind")
	character := fs.Uint("character", 0, "server action character")
	value := fs.Uint("value", 0, "server action value")
	extra := fs.Uint("extra", 0, "server action extra value")
	ts := fs.Uint64("ts", 0, "server timestamp in milliseconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		out []byte
		err error
	)
	switch *direction {
	case "client":
		if *variant != "" && *variant != "key" {
			return fmt.Errorf("unknown client variant %q", *variant)
		}
		k, perr := wire.ParseUint128(*key)
		if perr != nil {
			return perr
		}
		out, err = client.Framer.EncodeAppend(nil, client.NewMessage(client.Key{Key: k}))
	case "server":
		var p server.Payload
		switch *variant {
		case "error":
			p = server.Error{Code: uint32(*code)}
		case "action":
			p = server.Action{
				Kind:      uint16(*kind),
				Character: uint32(*character),
				Value:     uint32(*value),
				Extra:     uint32(*extra),
			}
		default:
			return fmt.Errorf("unknown server variant %q", *variant)
		}
		out, err = server.Framer.EncodeAppend(nil, server.NewMessage(server.Timestamp{Millis: *ts}, p))
	default:
		return errUnknownDirection
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hex.EncodeToString(out))
	return nil
}

func runDecode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	direction := fs.String("direction", "client", "frame direction: client or server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw := strings.Join(fs.Args(), "")
	if fs.NArg() == 0 {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		raw = string(b)
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(raw), ""))
	if err != nil {
		return fmt.Errorf("parse hex: %w", err)
	}

	switch *direction {
	case "client":
		return decodeFrames(stdout, client.Framer, data, formatClient)
	case "server":
		return decodeFrames(stdout, server.Framer, data, formatServer)
	default:
		return errUnknownDirection
	}
}

func decodeFrames[P payload.Payload, T any](w io.Writer, f *frame.Framer[P, T], data []byte, format func(frame.Message[P, T]) string) error {
	msgs, n, err := stream.DecodeAll(f, data)
	for _, msg := range msgs {
		fmt.Fprintln(w, format(msg))
	}
	if err != nil {
		return fmt.Errorf("frame at offset %d: %w", n, err)
	}
	if n != len(data) {
		return fmt.Errorf("frame at offset %d: %w (%d trailing bytes)", n, protocol.ErrIncompleteMessage, len(data)-n)
	}
	return nil
}

func formatClient(msg client.Message) string {
	head := fmt.Sprintf("%s size=%d len=%d", client.Payloads.VariantName(msg.Discriminant()), msg.Size, msg.Len())
	switch p := msg.Payload.(type) {
	case client.Key:
		return fmt.Sprintf("%s key=%s", head, p.Key)
	default:
		return head
	}
}

func formatServer(msg server.Message) string {
	head := fmt.Sprintf("%s size=%d len=%d ts=%dms", server.Payloads.VariantName(msg.Discriminant()), msg.Size, msg.Len(), msg.Trailer.Millis)
	switch p := msg.Payload.(type) {
	case server.Action:
		return fmt.Sprintf("%s kind=%d character=%d value=%d extra=%d", head, p.Kind, p.Character, p.Value, p.Extra)
	case server.Error:
		return fmt.Sprintf("%s code=%d (%s)", head, p.Code, protocol.CodeName(p.Code))
	default:
		return head
	}
}
