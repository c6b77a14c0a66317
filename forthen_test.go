package forthen_test

import (
	"testing"

	"github.com/forthen-lang/forthen"
	"github.com/stretchr/testify/require"
)

// registerStdlib installs the minimal word set the tests below need, using
// only the host interface CORE exposes (spec §6 add_native_word): dup/drop/
// swap for stack shuffling, and the arithmetic/comparison operators wired
// straight to arith.go's dispatch functions. Standard-library word packs
// are out of CORE scope (spec §1 Non-goals); this mirrors exactly how a
// real stdlib package would register these words, and scripts/
// gen_goldens.go does the same thing to produce testdata/goldens.json.
func registerStdlib(t *testing.T, st *forthen.State) {
	t.Helper()
	must := func(name, eff string, fn func(*forthen.State) error) {
		require.NoError(t, st.AddNativeWord(name, eff, fn))
	}
	must("dup", "(x -- x x)", func(st *forthen.State) error {
		v, err := st.Pop()
		if err != nil {
			return err
		}
		if err := st.Push(v); err != nil {
			return err
		}
		return st.Push(v)
	})
	must("drop", "(x -- )", func(st *forthen.State) error {
		_, err := st.Pop()
		return err
	})
	must("swap", "(a b -- b a)", func(st *forthen.State) error {
		b, err := st.Pop()
		if err != nil {
			return err
		}
		a, err := st.Pop()
		if err != nil {
			return err
		}
		if err := st.Push(b); err != nil {
			return err
		}
		return st.Push(a)
	})
	binOp := func(name string, op func(*forthen.State, forthen.Value, forthen.Value) (forthen.Value, error)) {
		must(name, "(a b -- c)", func(st *forthen.State) error {
			b, err := st.Pop()
			if err != nil {
				return err
			}
			a, err := st.Pop()
			if err != nil {
				return err
			}
			c, err := op(st, a, b)
			if err != nil {
				return err
			}
			return st.Push(c)
		})
	}
	binOp("+", forthen.Add)
	binOp("-", forthen.Sub)
	binOp("*", forthen.Mul)
	binOp("/", forthen.Div)
	must("==", "(a b -- c)", func(st *forthen.State) error {
		b, err := st.Pop()
		if err != nil {
			return err
		}
		a, err := st.Pop()
		if err != nil {
			return err
		}
		eq, err := forthen.Eq(st, a, b)
		if err != nil {
			return err
		}
		return st.Push(forthen.Bool(eq))
	})
}

// newTestState returns a fresh State with registerStdlib already applied.
func newTestState(t *testing.T, opts ...forthen.Option) *forthen.State {
	t.Helper()
	st := forthen.New(opts...)
	registerStdlib(t, st)
	return st
}
