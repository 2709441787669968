package stream

import (
	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/rs/zerolog"
)

type options struct {
	bufferSize int
	logger     zerolog.Logger
	direction  string
}

func defaultOptions() options {
	return options{
		bufferSize: protocol.ReadBufferSize,
		logger:     zerolog.Nop(),
	}
}

// Option configures a Decoder or Encoder.
type Option func(*options)

// WithBufferSize sets the decoder read buffer size. Values below the framer's
// pack buffer size are raised to it.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDirection overrides the metrics label, which defaults to the framer name.
func WithDirection(direction string) Option {
	return func(o *options) { o.direction = direction }
}

func buildOptions(name string, opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.direction == "" {
		o.direction = name
	}
	return o
}
