package protocol

import (
	"errors"
	"fmt"
)

// Codec level failures.
var (
	ErrBufferTooSmall   = errors.New("protocol: destination buffer too small")
	ErrBufferIncomplete = errors.New("protocol: source buffer incomplete")
	ErrSizeExceedsLimit = errors.New("protocol: size exceeds limit")
)

// Framer level failures.
var (
	ErrBufferSizeTooSmall          = errors.New("protocol: buffer size too small for message")
	ErrIncompleteMessage           = errors.New("protocol: incomplete message")
	ErrInvalidMessage              = errors.New("protocol: invalid message")
	ErrMessageSizeInvalid          = errors.New("protocol: message size invalid")
	ErrMessageSizeGreaterThanLimit = errors.New("protocol: message size greater than limit")
)

// ErrUnauthorized is returned by key validators above the framer.
var ErrUnauthorized = errors.New("protocol: unauthorized")

// Code values carried by the server Error payload.
const (
	CodeNone uint32 = iota
	CodeInvalidMessage
	CodeMessageSizeInvalid
	CodeMessageSizeGreaterThanLimit
	CodeIncompleteMessage
	CodeBufferTooSmall
	CodeUnauthorized
	CodeInternal uint32 = 0xFFFFFFFF
)

var codeNames = map[uint32]string{
	CodeNone:                        "none",
	CodeInvalidMessage:              "invalid_message",
	CodeMessageSizeInvalid:          "message_size_invalid",
	CodeMessageSizeGreaterThanLimit: "message_size_greater_than_limit",
	CodeIncompleteMessage:           "incomplete_message",
	CodeBufferTooSmall:              "buffer_too_small",
	CodeUnauthorized:                "unauthorized",
	CodeInternal:                    "internal",
}

// Retryable reports whether err only means more input is required.
func Retryable(err error) bool {
	return errors.Is(err, ErrIncompleteMessage) || errors.Is(err, ErrBufferIncomplete)
}

// Code maps a taxonomy error to its wire code. Unknown errors map to CodeInternal.
func Code(err error) uint32 {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrInvalidMessage):
		return CodeInvalidMessage
	case errors.Is(err, ErrMessageSizeInvalid):
		return CodeMessageSizeInvalid
	case errors.Is(err, ErrMessageSizeGreaterThanLimit), errors.Is(err, ErrSizeExceedsLimit):
		return CodeMessageSizeGreaterThanLimit
	case errors.Is(err, ErrIncompleteMessage), errors.Is(err, ErrBufferIncomplete):
		return CodeIncompleteMessage
	case errors.Is(err, ErrBufferSizeTooSmall), errors.Is(err, ErrBufferTooSmall):
		return CodeBufferTooSmall
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

// CodeName returns a stable label for code, used in logs and metrics.
func CodeName(code uint32) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("code_%d", code)
}
