package handler

import (
	"github.com/vanguard/agent/internal/net"
	"github.com/vanguard/agent/internal/net/packet"
)

// HandleTick processes C_TICK (opcode 2).
// Advances the match one tick and answers with exactly one packet:
// S_COMMAND (opcode 102) carrying the command, or S_IDLE (opcode 103).
func HandleTick(sess *net.Session, r *packet.Reader, deps *Deps) error {
	snap, err := readTick(r)
	if err != nil {
		return err
	}

	cmd, ok := sess.Match.Advance(snap)
	if !ok {
		w := packet.NewWriterWithOpcode(packet.S_IDLE)
		w.WriteD(int32(snap.Tick))
		sess.Send(w.Bytes())
		return nil
	}

	w := packet.NewWriterWithOpcode(packet.S_COMMAND)
	w.WriteD(int32(snap.Tick))
	w.Append(cmd.AppendBinary)
	sess.Send(w.Bytes())
	return nil
}
