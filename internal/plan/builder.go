package plan

import (
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/core/queue"
)

type staged struct {
	cmd      command.Command
	priority int
}

// Builder stages a planner's output. Nothing reaches the queue until Commit,
// so a planner that fails halfway leaves the queue untouched.
type Builder struct {
	staged   []staged
	rejected int
	log      *zap.Logger
}

func NewBuilder(log *zap.Logger) *Builder {
	return &Builder{log: log}
}

// Add stages cmd at the given priority. Commands that fail Validate are
// dropped and logged. Reports whether cmd was staged.
func (b *Builder) Add(cmd command.Command, priority int) bool {
	if err := cmd.Validate(); err != nil {
		b.rejected++
		b.log.Warn("command rejected", zap.Error(err), zap.Object("command", cmd))
		return false
	}
	b.staged = append(b.staged, staged{cmd: cmd, priority: priority})
	return true
}

// AddIf stages cmd only when ok is set; it pairs with the region
// constructors in package command.
func (b *Builder) AddIf(cmd command.Command, ok bool, priority int) bool {
	if !ok {
		return false
	}
	return b.Add(cmd, priority)
}

func (b *Builder) Len() int      { return len(b.staged) }
func (b *Builder) Rejected() int { return b.rejected }

// Commands returns the staged commands in staging order.
func (b *Builder) Commands() []command.Command {
	out := make([]command.Command, len(b.staged))
	for i, s := range b.staged {
		out[i] = s.cmd
	}
	return out
}

// Commit enqueues every staged command and empties the builder.
func (b *Builder) Commit(q *queue.Queue[command.Command]) int {
	n := len(b.staged)
	for _, s := range b.staged {
		q.Enqueue(s.cmd, s.priority)
	}
	b.staged = nil
	return n
}

// Reset drops everything staged so far.
func (b *Builder) Reset() {
	b.staged = nil
	b.rejected = 0
}
