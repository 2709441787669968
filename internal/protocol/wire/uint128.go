package wire

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrUint128Range = errors.New("wire: value out of uint128 range")

// Uint128 is an unsigned 128-bit integer encoded as Lo then Hi, little-endian.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// MaxUint128 is 2^128 - 1.
var MaxUint128 = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}

// U128 builds a Uint128 from its two halves.
func U128(hi, lo uint64) Uint128 {
	return Uint128{Hi: hi, Lo: lo}
}

// Big returns v as a big.Int.
func (v Uint128) Big() *big.Int {
	n := new(big.Int).SetUint64(v.Hi)
	n.Lsh(n, 64)
	return n.Or(n, new(big.Int).SetUint64(v.Lo))
}

func (v Uint128) String() string {
	return v.Big().String()
}

// IsZero reports whether v is zero.
func (v Uint128) IsZero() bool {
	return v.Hi == 0 && v.Lo == 0
}

// Uint128FromBig converts n, failing when n is negative or wider than 128 bits.
func Uint128FromBig(n *big.Int) (Uint128, error) {
	if n == nil || n.Sign() < 0 || n.BitLen() > 128 {
		return Uint128{}, ErrUint128Range
	}
	lo := new(big.Int).And(n, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(n, 64)
	return Uint128{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

// ParseUint128 parses a decimal, or 0x-prefixed hex, string.
func ParseUint128(s string) (Uint128, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return Uint128{}, fmt.Errorf("wire: parse uint128 %q: invalid syntax", s)
	}
	return Uint128FromBig(n)
}
