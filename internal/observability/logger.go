package observability

import (
	"io"
	"os"
	"time"

	"github.com/danmuck/ethoswire/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger(app string) zerolog.Logger {
	logger := NewLogger(os.Stdout, app)
	log.Logger = logger
	return logger
}

// NewLogger builds a logger writing to out using the active logging profile.
func NewLogger(out io.Writer, app string) zerolog.Logger {
	cfg := logging.Current()
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	ctx := zerolog.New(out).With().Str("app", app)
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}
