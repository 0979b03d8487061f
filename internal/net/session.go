package net

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/agent"
	"github.com/vanguard/agent/internal/net/packet"
)

// Session is one host connection and the match it drives. Network I/O runs
// in dedicated goroutines; packets are dispatched and the match advanced on
// the goroutine running Serve.
type Session struct {
	ID   uint64
	conn Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // Serve reads packets from here
	OutQueue chan []byte // writer goroutine reads from here

	IP string

	// Match is set by the hello handler. Serve goroutine only.
	Match *agent.Controller

	outBuf [][]byte // buffered packets, flushed after each dispatch

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second packet rate limiter (readLoop goroutine only, no lock needed)
	pktPerSec  int   // max packets/sec (0 = unlimited)
	pktCount   int   // packets received this second
	pktResetAt int64 // unix second of last counter reset

	log *zap.Logger
}

func NewSession(conn Conn, id uint64, inSize, outSize, pktPerSec int, log *zap.Logger) *Session {
	s := &Session{
		ID:        id,
		conn:      conn,
		InQueue:   make(chan []byte, inSize),
		OutQueue:  make(chan []byte, outSize),
		IP:        conn.RemoteAddr(),
		closeCh:   make(chan struct{}),
		pktPerSec: pktPerSec,
		log:       log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Log returns the session-scoped logger.
func (s *Session) Log() *zap.Logger { return s.log }

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Serve runs the session until the host says goodbye, the connection drops,
// a handler fails or ctx is cancelled.
func (s *Session) Serve(ctx context.Context, reg *packet.Registry) error {
	s.Start()
	defer func() {
		s.Close()
		// a handler that ran after Close may have overwritten the state
		s.SetState(packet.StateDisconnecting)
	}()

	// Handlers run here, so live tracks the state they set. Close overwrites
	// the stored state, and live keeps gating packets read before it.
	live := s.State()
	for {
		select {
		case data := <-s.InQueue:
			if err := reg.Dispatch(s, live, data); err != nil {
				s.log.Warn("dispatch failed, closing session", zap.Error(err))
				return err
			}
			s.FlushOutput()
			if st := s.State(); st != packet.StateDisconnecting {
				live = st
			}
			if live == packet.StateFinished {
				s.finish(ctx)
				return nil
			}
		case <-s.closeCh:
			s.drainInput(reg, live)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainInput dispatches packets the reader queued before the connection
// closed, so a trailing goodbye is still handled. Close has already moved
// the stored state, so gating uses the last live state. Replies are dropped.
func (s *Session) drainInput(reg *packet.Registry, state packet.SessionState) {
	for {
		select {
		case data := <-s.InQueue:
			if err := reg.Dispatch(s, state, data); err != nil {
				s.log.Debug("dispatch after close failed", zap.Error(err))
				return
			}
			s.outBuf = s.outBuf[:0]
			if st := s.State(); st != packet.StateDisconnecting {
				state = st
			}
			s.log.Debug("drained packet after close", zap.Stringer("state", state))
		default:
			return
		}
	}
}

// finish lets the writer drain what is queued, then closes.
func (s *Session) finish(ctx context.Context) {
	select {
	case s.OutQueue <- nil: // writer stops after this marker
	default:
		s.Close()
		return
	}
	select {
	case <-s.closeCh:
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn("output drain timed out")
	}
}

// Send buffers a packet. It is handed to the writer by FlushOutput.
// Called only from the Serve goroutine, no lock needed on outBuf.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop goroutine.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow host")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads frames and pushes them onto InQueue.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		payload, err := s.conn.ReadFrame()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		if s.pktPerSec > 0 {
			now := time.Now().Unix()
			if now != s.pktResetAt {
				s.pktCount = 0
				s.pktResetAt = now
			}
			s.pktCount++
			if s.pktCount > s.pktPerSec {
				s.log.Warn("packet rate exceeded, disconnecting", zap.Int("pps", s.pktCount))
				return
			}
		}

		// Block until InQueue has space or the session closes. Dropping a
		// tick would desynchronise the tracker from the host.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop writes queued packets as frames. A nil packet ends the session
// once everything before it is written.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if data == nil {
				return
			}
			if len(data) > 0 {
				s.log.Debug("TX",
					zap.String("op", fmt.Sprintf("0x%02X(%d)", data[0], data[0])),
					zap.Int("len", len(data)),
				)
			}
			if err := s.conn.WriteFrame(data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
