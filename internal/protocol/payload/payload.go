// Package payload implements the tagged-union payload codec and size prober.
//
// A Set maps each 16-bit discriminant to a variant descriptor: its field
// layout, and a decode function. Encoded size is a pure function of the
// discriminant, so a Set can bound a frame before reading any field.
package payload

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

var (
	ErrSetConfig = errors.New("payload: invalid set configuration")
	ErrLayout    = errors.New("payload: variant layout mismatch")
)

// Payload is one variant of a tagged union.
type Payload interface {
	// Discriminant returns the variant tag.
	Discriminant() uint16
	// MarshalFields writes the variant fields in declaration order.
	MarshalFields(w *wire.Writer)
}

// Variant describes one registered payload variant.
type Variant[P Payload] struct {
	Discriminant uint16
	Name         string
	Fields       []wire.Kind
	Decode       func(r *wire.Reader) P
}

type entry[P Payload] struct {
	variant Variant[P]
	size    int
}

// Set is an immutable registry of payload variants for one direction.
type Set[P Payload] struct {
	name    string
	invalid P
	entries map[uint16]entry[P]
	order   []uint16
	maxSize int
}

// NewSet validates variants and builds a Set. invalid is the sentinel returned
// for unknown discriminants and must report protocol.InvalidDiscriminant.
func NewSet[P Payload](name string, invalid P, variants ...Variant[P]) (*Set[P], error) {
	if invalid.Discriminant() != protocol.InvalidDiscriminant {
		return nil, fmt.Errorf("%w: %s: invalid sentinel has discriminant %#04x", ErrSetConfig, name, invalid.Discriminant())
	}
	s := &Set[P]{
		name:    name,
		invalid: invalid,
		entries: make(map[uint16]entry[P], len(variants)),
	}
	for _, v := range variants {
		if v.Discriminant == protocol.InvalidDiscriminant {
			return nil, fmt.Errorf("%w: %s: %q uses the reserved invalid discriminant", ErrSetConfig, name, v.Name)
		}
		if _, dup := s.entries[v.Discriminant]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate discriminant %#04x (%q)", ErrSetConfig, name, v.Discriminant, v.Name)
		}
		if v.Decode == nil {
			return nil, fmt.Errorf("%w: %s: %q has no decode func", ErrSetConfig, name, v.Name)
		}
		width, err := wire.Width(v.Fields...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q: %v", ErrSetConfig, name, v.Name, err)
		}
		size := protocol.DiscriminantLen + width
		if size > protocol.MaxMessageSize {
			return nil, fmt.Errorf("%w: %s: %q encodes to %d bytes", ErrSetConfig, name, v.Name, size)
		}
		if err := checkLayout(v, width); err != nil {
			return nil, fmt.Errorf("%s: %q: %w", name, v.Name, err)
		}
		s.entries[v.Discriminant] = entry[P]{variant: v, size: size}
		s.order = append(s.order, v.Discriminant)
		if size > s.maxSize {
			s.maxSize = size
		}
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return s, nil
}

// MustSet is NewSet for package-level sets; it panics on misconfiguration.
func MustSet[P Payload](name string, invalid P, variants ...Variant[P]) *Set[P] {
	s, err := NewSet(name, invalid, variants...)
	if err != nil {
		panic(err)
	}
	return s
}

// checkLayout round-trips a zero value to prove Decode, MarshalFields and the
// declared field list agree on width and tag.
func checkLayout[P Payload](v Variant[P], width int) error {
	zero := make([]byte, width)
	var r wire.Reader
	r.Reset(zero)
	p := v.Decode(&r)
	if r.Short() || r.Len() != width {
		return fmt.Errorf("%w: decode reads %d bytes, fields declare %d", ErrLayout, r.Len(), width)
	}
	if p.Discriminant() != v.Discriminant {
		return fmt.Errorf("%w: decoded value reports discriminant %#04x, want %#04x", ErrLayout, p.Discriminant(), v.Discriminant)
	}
	var w wire.Writer
	w.Reset(zero)
	p.MarshalFields(&w)
	if w.Short() || w.Len() != width {
		return fmt.Errorf("%w: marshal writes %d bytes, fields declare %d", ErrLayout, w.Len(), width)
	}
	return nil
}

// Name returns the set name.
func (s *Set[P]) Name() string { return s.name }

// Invalid returns the sentinel variant.
func (s *Set[P]) Invalid() P { return s.invalid }

// MaxSize returns the largest encoded size of any variant.
func (s *Set[P]) MaxSize() int { return s.maxSize }

// Discriminants returns the registered discriminants in ascending order.
func (s *Set[P]) Discriminants() []uint16 {
	out := make([]uint16, len(s.order))
	copy(out, s.order)
	return out
}

// Known reports whether d is a registered variant. The invalid sentinel is
// never known.
func (s *Set[P]) Known(d uint16) bool {
	_, ok := s.entries[d]
	return ok
}

// SizeOf returns the encoded size for d (discriminant plus fields), or 0 when d
// is unknown.
func (s *Set[P]) SizeOf(d uint16) int {
	if e, ok := s.entries[d]; ok {
		return e.size
	}
	return 0
}

// VariantName returns the registered name for d.
func (s *Set[P]) VariantName(d uint16) string {
	if e, ok := s.entries[d]; ok {
		return e.variant.Name
	}
	if d == protocol.InvalidDiscriminant {
		return "invalid"
	}
	return fmt.Sprintf("unknown(%#04x)", d)
}

// Fields returns the declared field layout for d.
func (s *Set[P]) Fields(d uint16) []wire.Kind {
	e, ok := s.entries[d]
	if !ok {
		return nil
	}
	out := make([]wire.Kind, len(e.variant.Fields))
	copy(out, e.variant.Fields)
	return out
}

// Encode writes p into dst starting at offset 0 and returns the bytes written.
// Nothing is written when dst cannot hold the whole encoding.
func (s *Set[P]) Encode(p P, dst []byte) (int, error) {
	d := p.Discriminant()
	e, ok := s.entries[d]
	if !ok {
		return 0, protocol.ErrInvalidMessage
	}
	if len(dst) < e.size {
		return 0, protocol.ErrBufferTooSmall
	}
	var w wire.Writer
	w.Reset(dst[:e.size])
	w.U16(d)
	p.MarshalFields(&w)
	if w.Short() || w.Len() != e.size {
		return 0, fmt.Errorf("%w: %s %q wrote %d of %d bytes", ErrLayout, s.name, e.variant.Name, w.Len(), e.size)
	}
	return e.size, nil
}

// Decode materializes the payload at the front of src. Unknown discriminants,
// and sources shorter than the resolved size, yield (Invalid, 0).
func (s *Set[P]) Decode(src []byte) (P, int) {
	d, ok := wire.PeekU16(src, 0)
	if !ok {
		return s.invalid, 0
	}
	e, ok := s.entries[d]
	if !ok || len(src) < e.size {
		return s.invalid, 0
	}
	var r wire.Reader
	r.Reset(src[protocol.DiscriminantLen:e.size])
	return e.variant.Decode(&r), e.size
}

// Probe reports how many bytes a decode of src would consume without reading
// any field. maxSize of protocol.NoLimit disables the limit check.
func (s *Set[P]) Probe(src []byte, maxSize int) (int, error) {
	return s.ProbeExtra(src, maxSize, 0)
}

// ProbeExtra is Probe for a payload followed by extra fixed bytes. The limit
// applies to the payload plus extra, and is checked before availability so an
// oversized claim is rejected no matter how many bytes have arrived.
func (s *Set[P]) ProbeExtra(src []byte, maxSize, extra int) (int, error) {
	d, ok := wire.PeekU16(src, 0)
	if !ok {
		return 0, protocol.ErrBufferIncomplete
	}
	size := s.SizeOf(d)
	if size == 0 {
		return 0, protocol.ErrInvalidMessage
	}
	need := size + extra
	if maxSize > protocol.NoLimit && need > maxSize {
		return 0, protocol.ErrSizeExceedsLimit
	}
	if need > len(src) {
		return 0, protocol.ErrBufferIncomplete
	}
	return need, nil
}
