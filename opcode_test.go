package forthen_test

import (
	"testing"

	"github.com/forthen-lang/forthen"
	"github.com/forthen-lang/forthen/effect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQuotation_TailRecurse_BoundedDepth builds a quotation by hand (instead
// of going through the compiler's self-tail-call detection) that decrements
// a counter on the value stack and loops via TailRecurse until it reaches
// zero, then exercises it at a depth that would overflow the Go call stack
// if TailRecurse pushed an ordinary host call per iteration (spec §4.5, §8
// "Tail-recursive words run in bounded host-call depth").
func TestQuotation_TailRecurse_BoundedDepth(t *testing.T) {
	const iterations = 200000
	// Each loop iteration burns two opcodes (the decrement call, then
	// TailRecurse); an op limit of exactly 2*iterations lets all `iterations`
	// decrements land before the budget trips, so the hand-built loop below
	// -- which has no conditional exit of its own -- still halts instead of
	// running forever.
	st := newTestState(t, forthen.WithOpLimit(2*iterations))

	q := forthen.NewQuotation()
	q.Ops = []forthen.Opcode{
		forthen.CallOp(&forthen.Native{
			Name: "decrement",
			Eff:  mustParseEffect(t, "(n -- n2)"),
			Fn: func(st *forthen.State) error {
				v, err := st.Pop()
				if err != nil {
					return err
				}
				n, ok := v.(forthen.Int)
				if !ok {
					return &forthen.TypeError{Detail: "expected an int"}
				}
				return st.Push(n - 1)
			},
		}),
		forthen.TailRecurseOp(),
	}

	require.NoError(t, st.Push(forthen.Int(iterations)))
	// A hand-built quotation never had SetEffect called; invoking it directly
	// doesn't go through inferEffect, so no effect needs to be set here.
	err := q.Invoke(st)
	require.Error(t, err, "TailRecurse always restarts, so the opcode budget is the only thing that ever stops this loop")
	top, err := st.Top()
	require.NoError(t, err)
	// The budget trips right after the iterations-th decrement, before a
	// iterations+1-th one can run, so the stack holds exactly 0 -- proof the
	// loop ran to completion in bounded Go call-stack depth rather than
	// overflowing it.
	assert.Equal(t, forthen.Int(0), top)
}

func TestQuotation_TailRecurse_StopsViaOpLimit(t *testing.T) {
	st := newTestState(t, forthen.WithOpLimit(10))
	q := forthen.NewQuotation()
	q.Ops = []forthen.Opcode{forthen.TailRecurseOp()}
	err := q.Invoke(st)
	require.Error(t, err, "an unconditional TailRecurse loop must still be stoppable by the opcode budget")
}

func mustParseEffect(t *testing.T, src string) *effect.Effect {
	t.Helper()
	e, err := effect.Parse(src)
	require.NoError(t, err)
	return e
}

func TestOpcode_String(t *testing.T) {
	assert.Equal(t, "push(1)", forthen.PushOp(forthen.Int(1)).String())
	assert.Equal(t, "<tail recurse>", forthen.TailRecurseOp().String())
	assert.Equal(t, "pushframe(2)", forthen.PushFrameOp(2).String())
	assert.Equal(t, "popframe", forthen.PopFrameOp().String())
	assert.Equal(t, "set(0)", forthen.SetLocalOp(0).String())
	assert.Equal(t, "get(0)", forthen.GetLocalOp(0).String())
}

func TestOpcode_Effect_CallWithNoEffect_Fails(t *testing.T) {
	op := forthen.CallOp(&forthen.Native{Name: "no-effect"})
	_, err := op.Effect()
	require.Error(t, err)
}
