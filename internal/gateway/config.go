package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/client"
)

var ErrInvalidConfig = errors.New("gateway: invalid config")

// Config defines the gateway listener and per-connection limits.
type Config struct {
	Addr           string
	ReadBufferSize int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
}

// DefaultConfig listens on the default TCP port with the recommended read buffer.
func DefaultConfig() Config {
	return Config{
		Addr:           fmt.Sprintf(":%d", protocol.DefaultTCPPort),
		ReadBufferSize: protocol.ReadBufferSize,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxConnections: 1024,
	}
}

// WithDefaults fills zero values from DefaultConfig. A zero timeout disables
// the deadline, so timeouts are left as given.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = def.Addr
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = def.MaxConnections
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if c.ReadBufferSize < client.PackBufferSize {
		return fmt.Errorf("%w: read_buffer_size %d below minimum %d", ErrInvalidConfig, c.ReadBufferSize, client.PackBufferSize)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("%w: max_connections must not be negative", ErrInvalidConfig)
	}
	return nil
}
