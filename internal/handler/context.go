package handler

import (
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/config"
	"github.com/vanguard/agent/internal/net"
	"github.com/vanguard/agent/internal/net/packet"
	"github.com/vanguard/agent/internal/plan"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Planners *plan.Catalog
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Handshake phase
	reg.Register(packet.C_HELLO,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) error {
			return HandleHello(sess.(*net.Session), r, deps)
		},
	)

	// Match phase
	reg.Register(packet.C_TICK,
		[]packet.SessionState{packet.StateInMatch},
		func(sess any, r *packet.Reader) error {
			return HandleTick(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_GOODBYE,
		[]packet.SessionState{packet.StateInMatch},
		func(sess any, r *packet.Reader) error {
			return HandleGoodbye(sess.(*net.Session), r, deps)
		},
	)
}
