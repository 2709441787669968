package protocol

// Wire layout widths. All integers are little-endian with no padding.
const (
	SizeFieldLen    = 2
	DiscriminantLen = 2
	HeaderLen       = SizeFieldLen + DiscriminantLen
	MaxMessageSize  = 1<<16 - 1
	ReadBufferSize  = 1024 * 1024
	DefaultTCPPort  = 3847
	DefaultUDPPort  = 38467

	// NoLimit disables the maximum size check of a probe.
	NoLimit = 0
)

// Reserved discriminants. InvalidDiscriminant is never transmitted legitimately.
const (
	InvalidDiscriminant uint16 = 0xFFFF
	ErrorDiscriminant   uint16 = 0xFFFE
)
