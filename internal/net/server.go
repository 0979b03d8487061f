package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/net/packet"
)

// Options tunes every session a Server creates.
type Options struct {
	MaxFrameSize     int
	Timeouts         Timeouts
	InQueueSize      int
	OutQueueSize     int
	MaxPacketsPerSec int
}

func (o Options) withDefaults() Options {
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = DefaultMaxFrameSize
	}
	if o.InQueueSize <= 0 {
		o.InQueueSize = 16
	}
	if o.OutQueueSize <= 0 {
		o.OutQueueSize = 16
	}
	return o
}

// Server hands each host connection its own session, served on its own
// goroutine. Connections arrive from a stream listener or the websocket
// handler.
type Server struct {
	registry *packet.Registry
	opts     Options
	listener net.Listener
	upgrader websocket.Upgrader

	nextID   atomic.Uint64
	mu       sync.Mutex
	sessions map[uint64]*Session
	wg       sync.WaitGroup
	closeCh  chan struct{}
	log      *zap.Logger
}

func NewServer(reg *packet.Registry, opts Options, log *zap.Logger) *Server {
	opts = opts.withDefaults()
	return &Server{
		registry: reg,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		sessions: make(map[uint64]*Session),
		closeCh:  make(chan struct{}),
		log:      log,
	}
}

// Listen binds a "tcp" or "unix" listener for AcceptLoop.
func (s *Server) Listen(network, addr string) error {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network, addr, err)
	}
	s.listener = ln
	return nil
}

// AcceptLoop accepts connections until Shutdown. Run it in its own goroutine.
func (s *Server) AcceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, NewStreamConn(conn, s.opts.MaxFrameSize, s.opts.Timeouts))
		}()
	}
}

// WSHandler upgrades requests to websocket and serves each as a session
// for as long as the request lives.
func (s *Server) WSHandler(ctx context.Context) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		s.wg.Add(1)
		defer s.wg.Done()
		s.ServeConn(ctx, NewWSConn(conn, s.opts.MaxFrameSize, s.opts.Timeouts))
	}
}

// ServeConn runs one session to completion.
func (s *Server) ServeConn(ctx context.Context, conn Conn) {
	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.opts.InQueueSize, s.opts.OutQueueSize, s.opts.MaxPacketsPerSec, s.log)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()

	s.log.Info("host connected", zap.Uint64("session", id), zap.String("addr", sess.IP))
	err := sess.Serve(ctx, s.registry)
	fields := []zap.Field{zap.Uint64("session", id)}
	if sess.Match != nil {
		fields = append(fields,
			zap.String("match", sess.Match.ID().String()),
			zap.Int("emitted", sess.Match.Emitted()),
		)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("host session ended", append(fields, zap.Error(err))...)
		return
	}
	s.log.Info("host disconnected", fields...)
}

// Active returns the number of live sessions.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops accepting, closes every session and waits for them.
func (s *Server) Shutdown() {
	select {
	case <-s.closeCh:
		return
	default:
		close(s.closeCh)
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Addr returns the listener's address, or nil when not listening.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
