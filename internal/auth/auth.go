// Package auth validates the shared-secret key a client presents in its Key
// payload. It makes no session or storage decisions.
package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

var ErrUnauthorized = fmt.Errorf("auth: %w", protocol.ErrUnauthorized)

// Validator validates a client key.
type Validator interface {
	Validate(key wire.Uint128) error
}

// KeySet accepts any of a fixed list of keys. An empty set denies every key.
type KeySet struct {
	keys [][16]byte
}

func NewKeySet(keys ...wire.Uint128) KeySet {
	s := KeySet{keys: make([][16]byte, 0, len(keys))}
	for _, k := range keys {
		s.keys = append(s.keys, keyBytes(k))
	}
	return s
}

// ParseKeySet parses decimal or 0x hex keys.
func ParseKeySet(raw []string) (KeySet, error) {
	keys := make([]wire.Uint128, 0, len(raw))
	for i, r := range raw {
		k, err := wire.ParseUint128(r)
		if err != nil {
			return KeySet{}, fmt.Errorf("auth: key %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return NewKeySet(keys...), nil
}

func (s KeySet) Len() int { return len(s.keys) }

// Validate compares key against every entry in constant time.
func (s KeySet) Validate(key wire.Uint128) error {
	got := keyBytes(key)
	match := 0
	for i := range s.keys {
		match |= subtle.ConstantTimeCompare(s.keys[i][:], got[:])
	}
	if match != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(key wire.Uint128) error

func (f FuncValidator) Validate(key wire.Uint128) error {
	return f(key)
}

func keyBytes(k wire.Uint128) [16]byte {
	var b [16]byte
	wire.NewWriter(b[:]).U128(k)
	return b
}
