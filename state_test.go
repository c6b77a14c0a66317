package forthen_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/forthen-lang/forthen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_PushPopTop(t *testing.T) {
	st := forthen.New()
	require.NoError(t, st.Push(forthen.Int(1)))
	require.NoError(t, st.Push(forthen.Int(2)))
	top, err := st.Top()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(2), top)
	v, err := st.Pop()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(2), v)
	assert.Equal(t, 1, st.Depth())
}

func TestState_Pop_Underflow(t *testing.T) {
	st := forthen.New()
	_, err := st.Pop()
	require.Error(t, err)
	var underflow *forthen.StackUnderflow
	require.ErrorAs(t, err, &underflow)
}

func TestState_Run_RestoresStackOnFailure(t *testing.T) {
	st := newTestState(t)
	require.NoError(t, st.Run(context.Background(), "1 2 3"))
	require.Equal(t, 3, st.Depth())

	err := st.Run(context.Background(), "frobnicate")
	require.Error(t, err)
	var unknown *forthen.UnknownWord
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 3, st.Depth(), "a failed run must not leave partial effects on the stack")
}

func TestState_WordDefinition_InferredEffect(t *testing.T) {
	st := newTestState(t)
	require.NoError(t, st.Run(context.Background(), `: sq ( n -- n2 ) dup * ; 5 sq`))
	top, err := st.Top()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(25), top)
}

func TestState_ScopedWordDefinition_Locals(t *testing.T) {
	st := newTestState(t)
	src := `:: add3 ( a b c -- sum ) set c set b set a get a get b + get c + ; 1 2 3 add3`
	require.NoError(t, st.Run(context.Background(), src))
	top, err := st.Top()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(6), top)
}

func TestState_ScopedWordDefinition_DeclaredEffectMismatch(t *testing.T) {
	st := newTestState(t)
	// declares (a -- a a) but the body only produces one value
	err := st.Run(context.Background(), `:: bad ( a -- a a ) set a get a ;`)
	require.Error(t, err)
	var mismatch *forthen.IncompatibleStackEffects
	require.ErrorAs(t, err, &mismatch)
}

func TestState_QuotationLiteral_CallCombinator(t *testing.T) {
	st := newTestState(t)
	require.NoError(t, st.Run(context.Background(), `3 4 [ + ] call`))
	top, err := st.Top()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(7), top)
}

func TestState_If_Combinator(t *testing.T) {
	st := newTestState(t)
	require.NoError(t, st.Run(context.Background(), `1 2 == [ 10 ] [ 20 ] if`))
	top, err := st.Top()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(20), top)
}

func TestState_RedefiningWord_OldCallSitesKeepOldBinding(t *testing.T) {
	st := newTestState(t)
	require.NoError(t, st.Run(context.Background(), `: one ( -- n ) 1 ;`))
	require.NoError(t, st.Run(context.Background(), `: user ( -- n ) one ;`))
	require.NoError(t, st.Run(context.Background(), `: one ( -- n ) 2 ;`))
	require.NoError(t, st.Run(context.Background(), `user`))
	top, err := st.Top()
	require.NoError(t, err)
	assert.Equal(t, forthen.Int(1), top, "user's compiled call site keeps calling the *WordEntry live when it was compiled")
}

func TestState_OpLimit(t *testing.T) {
	st := newTestState(t, forthen.WithOpLimit(2))
	err := st.Run(context.Background(), `1 2 3`)
	require.Error(t, err)
}

func TestState_FormatWord(t *testing.T) {
	st := newTestState(t)
	require.NoError(t, st.Run(context.Background(), `: sq ( n -- n2 ) dup * ;`))
	s, err := st.FormatWord("sq")
	require.NoError(t, err)
	assert.Contains(t, s, "sq")
}

func TestState_FormatWord_Unknown(t *testing.T) {
	st := newTestState(t)
	_, err := st.FormatWord("nope")
	require.Error(t, err)
	var unknown *forthen.UnknownWord
	require.ErrorAs(t, err, &unknown)
}

// golden mirrors scripts/gen_goldens.go's fixture shape.
type golden struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Top     string `json:"top,omitempty"`
	WantErr bool   `json:"wantErr,omitempty"`
}

// TestGoldens replays every scenario recorded in testdata/goldens.json
// (regenerated by scripts/gen_goldens.go) against a fresh State and checks
// the recorded outcome still holds.
func TestGoldens(t *testing.T) {
	data, err := os.ReadFile("testdata/goldens.json")
	require.NoError(t, err)
	var goldens []golden
	require.NoError(t, json.Unmarshal(data, &goldens))
	require.NotEmpty(t, goldens)

	for _, g := range goldens {
		g := g
		t.Run(g.Name, func(t *testing.T) {
			st := newTestState(t)
			err := st.Run(context.Background(), g.Source)
			if g.WantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			top, err := st.Top()
			require.NoError(t, err)
			n, ok := top.(forthen.Int)
			require.True(t, ok, "top of stack is %s, not an int", top.Kind())
			assert.Equal(t, g.Top, fmt.Sprintf("%d", int32(n)))
		})
	}
}
