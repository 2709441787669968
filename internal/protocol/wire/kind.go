package wire

import "fmt"

// Kind is a fixed-width unsigned field type.
type Kind uint8

// Kind IDs.
const (
	KindU8 Kind = iota + 1
	KindU16
	KindU32
	KindU64
	KindU128
)

var kindNames = map[Kind]string{
	KindU8:   "u8",
	KindU16:  "u16",
	KindU32:  "u32",
	KindU64:  "u64",
	KindU128: "u128",
}

// Width returns the encoded width of k in bytes, or 0 for an unknown kind.
func (k Kind) Width() int {
	switch k {
	case KindU8:
		return 1
	case KindU16:
		return 2
	case KindU32:
		return 4
	case KindU64:
		return 8
	case KindU128:
		return 16
	default:
		return 0
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Width sums the widths of kinds. It returns an error if any kind is unknown.
func Width(kinds ...Kind) (int, error) {
	total := 0
	for i, k := range kinds {
		w := k.Width()
		if w == 0 {
			return 0, fmt.Errorf("wire: field %d has unknown kind %d", i, uint8(k))
		}
		total += w
	}
	return total, nil
}
