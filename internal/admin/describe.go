package admin

import (
	"github.com/danmuck/ethoswire/internal/protocol/client"
	"github.com/danmuck/ethoswire/internal/protocol/frame"
	"github.com/danmuck/ethoswire/internal/protocol/payload"
	"github.com/danmuck/ethoswire/internal/protocol/server"
)

// VariantInfo describes one registered payload variant.
type VariantInfo struct {
	Discriminant uint16   `json:"discriminant"`
	Name         string   `json:"name"`
	Fields       []string `json:"fields"`
	Size         int      `json:"size"`
}

// DirectionInfo describes the payload set and framing of one direction.
type DirectionInfo struct {
	Name           string        `json:"name"`
	MaxMessageSize int           `json:"max_message_size"`
	TrailerLen     int           `json:"trailer_len"`
	Variants       []VariantInfo `json:"variants"`
}

// Describe reports both directions in discriminant order.
func Describe() []DirectionInfo {
	return []DirectionInfo{
		describe(client.Framer),
		describe(server.Framer),
	}
}

func describe[P payload.Payload, T any](f *frame.Framer[P, T]) DirectionInfo {
	set := f.Payloads()
	info := DirectionInfo{
		Name:           f.Name(),
		MaxMessageSize: f.Limits().MaxMessageSize,
		TrailerLen:     f.TrailerLen(),
	}
	for _, d := range set.Discriminants() {
		kinds := set.Fields(d)
		fields := make([]string, 0, len(kinds))
		for _, k := range kinds {
			fields = append(fields, k.String())
		}
		info.Variants = append(info.Variants, VariantInfo{
			Discriminant: d,
			Name:         set.VariantName(d),
			Fields:       fields,
			Size:         set.SizeOf(d),
		})
	}
	return info
}
