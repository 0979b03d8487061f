package handler

import (
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/net"
	"github.com/vanguard/agent/internal/net/packet"
)

// HandleGoodbye processes C_GOODBYE (opcode 3).
// Responds with S_FAREWELL (opcode 104) and finishes the session once the
// reply is written.
func HandleGoodbye(sess *net.Session, _ *packet.Reader, deps *Deps) error {
	m := sess.Match
	deps.Log.Info("match finished",
		zap.Uint64("session", sess.ID),
		zap.String("match", m.ID().String()),
		zap.Int("emitted", m.Emitted()),
		zap.Int("pending", m.Pending()),
		zap.String("digest", m.DigestHex()),
	)

	w := packet.NewWriterWithOpcode(packet.S_FAREWELL)
	w.WriteD(int32(m.Emitted()))
	w.WriteS(m.DigestHex())
	sess.Send(w.Bytes())
	sess.SetState(packet.StateFinished)
	return nil
}
