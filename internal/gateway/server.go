// Package gateway is the TCP ingress for client frames. Each connection gets
// its own stream decoder and encoder; decoded frames go to a Handler and its
// replies go back as timestamped server frames.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/ethoswire/internal/observability"
	"github.com/danmuck/ethoswire/internal/protocol"
	"github.com/danmuck/ethoswire/internal/protocol/client"
	"github.com/danmuck/ethoswire/internal/protocol/server"
	"github.com/danmuck/ethoswire/internal/protocol/stream"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

var ErrNilHandler = errors.New("gateway: nil handler")

// Server accepts client connections and runs one handler loop per connection.
type Server struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger
	clock   *server.Clock

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// StartCh is closed once the listener is bound, or binding failed.
	StartCh   chan struct{}
	startOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}

	slots  chan struct{}
	active atomic.Int64
}

func NewServer(cfg Config, handler Handler, logger zerolog.Logger) (*Server, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("component", "gateway").Logger(),
		clock:   server.NewClock(),
		ctx:     ctx,
		cancel:  cancel,
		StartCh: make(chan struct{}),
		conns:   make(map[net.Conn]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.slots = make(chan struct{}, cfg.MaxConnections)
	}
	return s, nil
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ActiveConnections returns the number of connections being served.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.markStarted()
		return fmt.Errorf("gateway: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve runs the accept loop on ln until Shutdown. It returns nil on shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.markStarted()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("gateway listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("gateway: accept: %w", err)
		}
		if !s.acquire() {
			observability.ConnectionRejected()
			s.logger.Warn().
				Str("remote", conn.RemoteAddr().String()).
				Int("max_connections", s.cfg.MaxConnections).
				Msg("connection rejected")
			_ = conn.Close()
			continue
		}
		s.trackConn(conn)
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// handler loops until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	s.mu.Unlock()
	s.closeAllConns()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) markStarted() {
	s.startOnce.Do(func() { close(s.StartCh) })
}

func (s *Server) acquire() bool {
	if s.slots == nil {
		return true
	}
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.release()
	defer s.untrackConn(conn)
	defer conn.Close()

	info := ConnInfo{
		ID:         uuid.NewV4(),
		RemoteAddr: conn.RemoteAddr().String(),
		Accepted:   time.Now(),
	}
	logger := s.logger.With().
		Str("conn_id", info.ID.String()).
		Str("remote", info.RemoteAddr).
		Logger()

	observability.ConnectionOpened()
	active := s.active.Add(1)
	logger.Info().Int64("active", active).Msg("client connected")
	defer func() {
		observability.ConnectionClosed()
		remaining := s.active.Add(-1)
		logger.Info().Int64("active", remaining).Msg("client disconnected")
	}()

	dec := stream.NewDecoder(conn, client.Framer,
		stream.WithBufferSize(s.cfg.ReadBufferSize),
		stream.WithLogger(logger),
		stream.WithDirection("client"),
	)
	enc := stream.NewEncoder(conn, server.Framer,
		stream.WithLogger(logger),
		stream.WithDirection("server"),
	)

	for {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		msg, err := dec.Next()
		if err != nil {
			s.readFailed(conn, enc, logger, err)
			return
		}
		replies, err := s.handler.HandleClient(s.ctx, info, msg)
		if err != nil {
			logger.Warn().Err(err).Msg("handler failed")
			s.reject(conn, enc, logger, err)
			return
		}
		if len(replies) == 0 {
			continue
		}
		msgs := make([]server.Message, 0, len(replies))
		for _, p := range replies {
			msgs = append(msgs, s.clock.Stamp(p))
		}
		s.setWriteDeadline(conn)
		if err := enc.EncodeAll(msgs...); err != nil {
			logger.Warn().Err(err).Int("frames", len(msgs)).Msg("write replies failed")
			return
		}
	}
}

// readFailed answers framing errors with a server Error frame. Transport
// errors and a closed stream end the connection silently.
func (s *Server) readFailed(conn net.Conn, enc *stream.Encoder[server.Payload, server.Timestamp], logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), s.ctx.Err() != nil:
		return
	case errors.Is(err, io.ErrUnexpectedEOF):
		logger.Debug().Msg("client closed mid-frame")
		return
	case protocol.Code(err) == protocol.CodeInternal:
		logger.Debug().Err(err).Msg("read failed")
		return
	}
	logger.Warn().
		Str("error", protocol.CodeName(protocol.Code(err))).
		Msg("framing error")
	s.reject(conn, enc, logger, err)
}

func (s *Server) reject(conn net.Conn, enc *stream.Encoder[server.Payload, server.Timestamp], logger zerolog.Logger, cause error) {
	s.setWriteDeadline(conn)
	if err := enc.Encode(s.clock.Stamp(server.ErrorFor(cause))); err != nil {
		logger.Debug().Err(err).Msg("write error frame failed")
	}
}

func (s *Server) setWriteDeadline(conn net.Conn) {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
