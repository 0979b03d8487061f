package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(log *[]string) { *log = append(*log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	r := NewRunner[*[]string]()
	r.Register(recorder{"report", PhaseReport})
	r.Register(recorder{"dispatch", PhaseDispatch})
	r.Register(recorder{"input-a", PhaseInput})
	r.Register(recorder{"plan", PhasePlan})
	r.Register(recorder{"input-b", PhaseInput})

	var got []string
	r.Tick(&got)
	assert.Equal(t, []string{"input-a", "input-b", "plan", "dispatch", "report"}, got)

	got = nil
	r.Register(recorder{"plan-late", PhasePlan})
	r.Tick(&got)
	assert.Equal(t, []string{"input-a", "input-b", "plan", "plan-late", "dispatch", "report"}, got)
}
