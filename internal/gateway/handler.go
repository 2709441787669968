package gateway

import (
	"context"
	"time"

	"github.com/danmuck/ethoswire/internal/auth"
	"github.com/danmuck/ethoswire/internal/protocol/client"
	"github.com/danmuck/ethoswire/internal/protocol/server"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

// ConnInfo identifies the connection a client frame arrived on.
type ConnInfo struct {
	ID         uuid.UUID
	RemoteAddr string
	Accepted   time.Time
}

// Handler consumes decoded client frames. Returned payloads are stamped and
// written back in order. A returned error is reported to the client as a
// server Error frame and the connection is closed.
type Handler interface {
	HandleClient(ctx context.Context, conn ConnInfo, msg client.Message) ([]server.Payload, error)
}

type HandlerFunc func(ctx context.Context, conn ConnInfo, msg client.Message) ([]server.Payload, error)

func (f HandlerFunc) HandleClient(ctx context.Context, conn ConnInfo, msg client.Message) ([]server.Payload, error) {
	return f(ctx, conn, msg)
}

// LogHandler logs every frame and replies with nothing.
func LogHandler(logger zerolog.Logger) Handler {
	return HandlerFunc(func(_ context.Context, conn ConnInfo, msg client.Message) ([]server.Payload, error) {
		logger.Info().
			Str("conn_id", conn.ID.String()).
			Str("variant", client.Payloads.VariantName(msg.Discriminant())).
			Uint16("size", msg.Size).
			Msg("client frame")
		return nil, nil
	})
}

// AuthHandler validates every Key frame before passing it to next. A rejected
// key ends the connection with an unauthorized Error frame.
func AuthHandler(v auth.Validator, next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, conn ConnInfo, msg client.Message) ([]server.Payload, error) {
		if key, ok := msg.Payload.(client.Key); ok {
			if err := v.Validate(key.Key); err != nil {
				return nil, err
			}
		}
		return next.HandleClient(ctx, conn, msg)
	})
}
