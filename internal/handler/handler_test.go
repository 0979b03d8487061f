package handler

import (
	"context"
	gonet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/config"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/net"
	"github.com/vanguard/agent/internal/net/packet"
	"github.com/vanguard/agent/internal/plan"
)

func helloPacket(self int64, width, height float64) []byte {
	w := packet.NewWriterWithOpcode(packet.C_HELLO)
	w.WriteQ(self)
	w.WriteQ(1234)
	w.WriteF(width)
	w.WriteF(height)
	// 2x1 terrain, empty weather
	w.WriteH(2)
	w.WriteH(1)
	w.WriteBytes([]byte{byte(model.Plain), byte(model.Forest)})
	w.WriteH(0)
	w.WriteH(0)
	return w.Bytes()
}

func tickPacket(tick, cooldown int, created []model.NewUnit, updates []model.UnitUpdate) []byte {
	w := packet.NewWriterWithOpcode(packet.C_TICK)
	w.WriteD(int32(tick))
	w.WriteD(int32(cooldown))
	w.WriteH(uint16(len(created)))
	for _, u := range created {
		w.WriteQ(int64(u.ID))
		w.WriteQ(int64(u.Owner))
		w.WriteC(byte(u.Category))
		w.WriteF(u.X)
		w.WriteF(u.Y)
		w.WriteD(int32(u.Vitality))
	}
	w.WriteH(uint16(len(updates)))
	for _, u := range updates {
		w.WriteQ(int64(u.ID))
		w.WriteF(u.X)
		w.WriteF(u.Y)
		w.WriteD(int32(u.Vitality))
	}
	return w.Bytes()
}

type host struct {
	t    *testing.T
	conn gonet.Conn
}

func (h *host) send(data []byte) {
	h.t.Helper()
	require.NoError(h.t, net.WriteFrame(h.conn, data))
}

func (h *host) recv() *packet.Reader {
	h.t.Helper()
	require.NoError(h.t, h.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	data, err := net.ReadFrame(h.conn, net.DefaultMaxFrameSize)
	require.NoError(h.t, err)
	return packet.NewReader(data)
}

func startAgent(t *testing.T, planner string) (*host, <-chan struct{}) {
	t.Helper()
	log := zaptest.NewLogger(t)
	cfg := config.Default()
	cfg.Agent.Planner = planner

	catalog := plan.NewCatalog()
	for _, p := range plan.Builtins() {
		require.NoError(t, catalog.Register(p))
	}
	reg := packet.NewRegistry(log)
	RegisterAll(reg, &Deps{Config: cfg, Log: log, Planners: catalog})
	srv := net.NewServer(reg, net.Options{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	agentSide, hostSide := gonet.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ServeConn(ctx, net.NewStreamConn(agentSide, 0, net.Timeouts{}))
	}()
	t.Cleanup(func() {
		cancel()
		hostSide.Close()
		<-done
	})
	return &host{t: t, conn: hostSide}, done
}

func TestMatchOverTheWire(t *testing.T) {
	h, done := startAgent(t, "first")

	h.send(helloPacket(1, 1024, 1024))
	r := h.recv()
	require.Equal(t, packet.S_WELCOME, r.Opcode())
	assert.Len(t, r.ReadS(), 36, "uuid string")

	h.send(tickPacket(0, 0, []model.NewUnit{{ID: 1, Owner: 1, Category: model.Helicopter, X: 10, Y: 10, Vitality: 100}}, nil))
	r = h.recv()
	require.Equal(t, packet.S_IDLE, r.Opcode())
	assert.Equal(t, int32(0), r.ReadD())

	h.send(tickPacket(1, 0, nil, []model.UnitUpdate{{ID: 1, X: 12, Y: 10, Vitality: 90}}))
	r = h.recv()
	require.Equal(t, packet.S_COMMAND, r.Opcode())
	assert.Equal(t, int32(1), r.ReadD())
	cmd, _, err := command.ParseBinary(r.ReadBytes(r.Remaining()))
	require.NoError(t, err)
	assert.Equal(t, command.KindSelectCategory, cmd.Kind)
	assert.Equal(t, model.Helicopter, cmd.Category)

	h.send(tickPacket(2, 3, nil, nil))
	assert.Equal(t, packet.S_IDLE, h.recv().Opcode())

	h.send(tickPacket(5, 0, nil, nil))
	r = h.recv()
	require.Equal(t, packet.S_COMMAND, r.Opcode())
	r.ReadD()
	cmd, _, err = command.ParseBinary(r.ReadBytes(r.Remaining()))
	require.NoError(t, err)
	assert.Equal(t, command.Move(512, 512), cmd)

	h.send([]byte{packet.C_GOODBYE})
	r = h.recv()
	require.Equal(t, packet.S_FAREWELL, r.Opcode())
	assert.Equal(t, int32(2), r.ReadD())
	assert.Len(t, r.ReadS(), 64)
	require.NoError(t, r.Err())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish after goodbye")
	}
}

func TestTickBeforeHelloEndsSession(t *testing.T) {
	h, done := startAgent(t, "first")
	h.send(tickPacket(0, 0, nil, nil))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session survived a tick in handshake state")
	}
}

func TestUnknownPlannerEndsSession(t *testing.T) {
	h, done := startAgent(t, "missing")
	h.send(helloPacket(1, 1024, 1024))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session survived an unknown planner")
	}
}

func TestDecodeRejectsTruncatedTick(t *testing.T) {
	full := tickPacket(4, 0, []model.NewUnit{{ID: 1, Owner: 1, Category: model.Tank, Vitality: 1}}, nil)
	_, err := readTick(packet.NewReader(full[:len(full)-3]))
	assert.ErrorIs(t, err, packet.ErrShortPacket)

	snap, err := readTick(packet.NewReader(full))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Tick)
	require.Len(t, snap.NewUnits, 1)
	assert.Equal(t, model.Tank, snap.NewUnits[0].Category)
}

func TestDecodeMapsUnknownCategoryBytes(t *testing.T) {
	raw := tickPacket(1, 0, []model.NewUnit{
		{ID: 1, Owner: 2, Category: model.Category(200), Vitality: 1},
		{ID: 2, Owner: 2, Category: model.Fighter, Vitality: 1},
	}, nil)
	snap, err := readTick(packet.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, snap.NewUnits, 2)
	assert.Equal(t, model.CategoryUnknown, snap.NewUnits[0].Category)
	assert.Equal(t, model.Fighter, snap.NewUnits[1].Category)
}

func TestDecodeHello(t *testing.T) {
	h, err := readHello(packet.NewReader(helloPacket(7, 1024, 512)))
	require.NoError(t, err)
	assert.Equal(t, model.PlayerID(7), h.Self)
	assert.Equal(t, int64(1234), h.Seed)
	assert.Equal(t, []model.TerrainType{model.Plain, model.Forest}, h.Terrain.Cells)
	assert.Zero(t, h.Weather.Cols)

	_, err = readHello(packet.NewReader(helloPacket(7, 0, 512)))
	assert.Error(t, err)
}
