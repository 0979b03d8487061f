package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/agent"
	"github.com/vanguard/agent/internal/net"
	"github.com/vanguard/agent/internal/net/packet"
	"github.com/vanguard/agent/internal/world"
)

// HandleHello processes C_HELLO (opcode 1).
// Creates the session's match and responds with S_WELCOME (opcode 101).
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) error {
	h, err := readHello(r)
	if err != nil {
		return err
	}

	planner, err := deps.Planners.Lookup(deps.Config.Agent.Planner)
	if err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	policy, err := world.ParseUpdatePolicy(deps.Config.Agent.UpdatePolicy)
	if err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	cfg := agent.ConfigFromHello(h, planner, policy)
	sess.Match = agent.NewMatch(cfg, sess.Log())

	deps.Log.Info("match started",
		zap.Uint64("session", sess.ID),
		zap.String("match", cfg.ID.String()),
		zap.String("planner", planner.Name()),
		zap.Int64("self", int64(h.Self)),
	)

	w := packet.NewWriterWithOpcode(packet.S_WELCOME)
	w.WriteS(cfg.ID.String())
	sess.Send(w.Bytes())
	sess.SetState(packet.StateInMatch)
	return nil
}
