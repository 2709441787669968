package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

func TestKeySetValidate(t *testing.T) {
	set := NewKeySet(wire.U128(0, 1), wire.U128(7, 9))
	tests := []struct {
		name    string
		input   wire.Uint128
		wantErr error
	}{
		{name: "first key accepted", input: wire.U128(0, 1), wantErr: nil},
		{name: "second key accepted", input: wire.U128(7, 9), wantErr: nil},
		{name: "halves swapped denied", input: wire.U128(9, 7), wantErr: ErrUnauthorized},
		{name: "zero denied", input: wire.Uint128{}, wantErr: ErrUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := set.Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEmptyKeySetDenies(t *testing.T) {
	if err := NewKeySet().Validate(wire.Uint128{}); !errors.Is(err, protocol.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if protocol.Code(ErrUnauthorized) != protocol.CodeUnauthorized {
		t.Fatalf("unexpected wire code: %d", protocol.Code(ErrUnauthorized))
	}
}

func TestParseKeySet(t *testing.T) {
	set, err := ParseKeySet([]string{"42", "0xffffffffffffffffffffffffffffffff"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", set.Len())
	}
	if err := set.Validate(wire.MaxUint128); err != nil {
		t.Fatalf("expected max key accepted, got %v", err)
	}
	if _, err := ParseKeySet([]string{"nope"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFuncValidator(t *testing.T) {
	validator := FuncValidator(func(key wire.Uint128) error {
		if key.Lo != 1 {
			return ErrUnauthorized
		}
		return nil
	})

	if err := validator.Validate(wire.U128(0, 2)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad key, got %v", err)
	}
	if err := validator.Validate(wire.U128(0, 1)); err != nil {
		t.Fatalf("expected success for good key, got %v", err)
	}
}
