package effect_test

import (
	"testing"

	"github.com/forthen-lang/forthen/effect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *effect.Effect {
	t.Helper()
	e, err := effect.Parse(src)
	require.NoError(t, err, "parsing %q", src)
	return e
}

func mustChain(t *testing.T, l, r *effect.Effect) *effect.Effect {
	t.Helper()
	e, err := effect.Chain(l, r)
	require.NoError(t, err)
	return e
}

func Test_Parse_NormalizesHeadRow(t *testing.T) {
	e := mustParse(t, "(a b -- b a)")
	require.NotEmpty(t, e.Inputs)
	require.NotEmpty(t, e.Outputs)
	assert.Equal(t, effect.Row, e.AtomAt(e.Inputs[0]).Kind)
	assert.Equal(t, effect.Row, e.AtomAt(e.Outputs[0]).Kind)
}

func Test_Parse_ExplicitRowNotDuplicated(t *testing.T) {
	e := mustParse(t, "(..a -- ..a x)")
	require.Len(t, e.Inputs, 1)
	require.Len(t, e.Outputs, 2)
	assert.Equal(t, effect.Row, e.AtomAt(e.Inputs[0]).Kind)
}

func Test_Parse_SameNameSameAtom(t *testing.T) {
	e := mustParse(t, "(..a f(..a -- ..b) -- ..b)")
	require.Len(t, e.Outputs, 1)
	a := e.AtomAt(e.Inputs[0])
	b := e.AtomAt(e.Outputs[0])
	require.Equal(t, effect.Row, a.Kind)
	require.Equal(t, effect.Row, b.Kind)
	f := e.AtomAt(e.Inputs[1])
	require.Equal(t, effect.Quoted, f.Kind)
	require.NotNil(t, f.Quote)
	require.Len(t, f.Quote.Inputs, 1)
	assert.Equal(t, e.Inputs[0], f.Quote.Inputs[0], "inner ..a must be the same atom as outer ..a")
	require.Len(t, f.Quote.Outputs, 1)
	assert.Equal(t, e.Outputs[0], f.Quote.Outputs[0], "inner ..b must be the same atom as outer ..b")
}

func Test_Parse_UnterminatedFails(t *testing.T) {
	_, err := effect.Parse("(a b -- b a")
	require.Error(t, err)
}

func Test_Parse_MissingOpenFails(t *testing.T) {
	_, err := effect.Parse("a b -- b a)")
	require.Error(t, err)
}

func Test_Format_RoundTrips(t *testing.T) {
	e := mustParse(t, "(a b -- b a)")
	assert.Equal(t, "(a b -- b a)", e.Format())
}

// Scenario 1: swap compose.
func Test_Chain_SwapComposeIsIdentity(t *testing.T) {
	swap := mustParse(t, "(a b -- b a)")
	got := mustChain(t, swap, mustParse(t, "(a b -- b a)"))
	assert.True(t, got.Equivalent(mustParse(t, "( -- )")), "got %s", got.Format())
}

// Scenario 2: dup then drop.
func Test_Chain_DupThenDrop(t *testing.T) {
	dup := mustParse(t, "(x -- x x)")
	drop := mustParse(t, "(x -- )")
	got := mustChain(t, dup, drop)
	assert.True(t, got.Equivalent(mustParse(t, "( -- )")), "got %s", got.Format())
}

// Scenario 3: put then swap.
func Test_Chain_PutThenSwap(t *testing.T) {
	put := mustParse(t, "(a b -- c a b)")
	swap := mustParse(t, "(a b -- b a)")
	got := mustChain(t, put, swap)
	assert.True(t, got.Equivalent(mustParse(t, "(a b -- c b a)")), "got %s", got.Format())
}

// Scenario 4: higher-order composition across four effects.
func Test_Chain_HigherOrder(t *testing.T) {
	a := mustParse(t, "( -- x)")
	b := mustParse(t, "( -- x)")
	c := mustParse(t, "(a b c -- b c a)")
	d := mustParse(t, "(..a f(..a -- ..b) -- ..b)")

	ab := mustChain(t, a, b)
	abc := mustChain(t, ab, c)
	got := mustChain(t, abc, d)

	want := mustParse(t, "(..a f(..a x y -- ..b) -- ..b)")
	assert.True(t, got.Equivalent(want), "got %s want %s", got.Format(), want.Format())
}

// Scenario 6: a recursive quoted effect parses and chains against identity.
func Test_Chain_RecursiveQuotedEffect(t *testing.T) {
	it := mustParse(t, "(..a f(..a f -- ) -- )")
	f := it.AtomAt(it.Inputs[1])
	require.Equal(t, effect.Quoted, f.Kind)
	require.NotNil(t, f.Quote)
	require.Len(t, f.Quote.Inputs, 2)
	assert.Equal(t, it.Inputs[1], f.Quote.Inputs[1], "inner f must refer to the outer f")

	id := mustParse(t, "( -- )")
	got, err := effect.Chain(it, id)
	require.NoError(t, err)
	assert.True(t, got.Equivalent(got), "self-equivalent")
}

// Algebraic law: equivalence under renaming.
func Test_Chain_EquivalenceUnderRenaming(t *testing.T) {
	id := mustParse(t, "( -- )")
	left := mustChain(t, mustParse(t, "(a -- a)"), id)
	right := mustChain(t, mustParse(t, "(b -- b)"), id)
	assert.True(t, left.Equivalent(right))
}

// Algebraic law: left identity.
func Test_Chain_LeftIdentity(t *testing.T) {
	id := mustParse(t, "( -- )")
	e := mustParse(t, "(a b -- b a)")
	got := mustChain(t, id, e)
	assert.True(t, got.Equivalent(e), "got %s want %s", got.Format(), e.Format())
}

// Algebraic law: associativity.
func Test_Chain_Associativity(t *testing.T) {
	a := mustParse(t, "(x -- x x)")
	b := mustParse(t, "(x y -- y x)")
	c := mustParse(t, "(x -- )")

	ab := mustChain(t, a, b)
	left := mustChain(t, ab, c)

	bc := mustChain(t, b, c)
	right := mustChain(t, a, bc)

	assert.True(t, left.Equivalent(right), "left %s right %s", left.Format(), right.Format())
}

// Algebraic law: failure is sticky -- A ∘ B failing leaves nothing to extend.
func Test_Chain_FailureIsSticky(t *testing.T) {
	producer := mustParse(t, "( -- f(a -- a))")
	consumer := mustParse(t, "(f(a b -- a) -- )")
	ab, err := effect.Chain(producer, consumer)
	require.Error(t, err)
	require.Nil(t, ab)
}

func Test_Equivalence_Bijection(t *testing.T) {
	a := mustParse(t, "(x y -- y x)")
	b := mustParse(t, "(p q -- q p)")
	assert.True(t, a.Equivalent(b))

	c := mustParse(t, "(x y -- x y)")
	assert.False(t, a.Equivalent(c))
}

func Test_Simplify_RemovesLeadingIdenticalRow(t *testing.T) {
	e := mustParse(t, "(..a x -- ..a x)")
	s := e.Simplify()
	assert.Empty(t, s.Inputs)
	assert.Empty(t, s.Outputs)
}

func Test_Simplify_KeepsRowReferencedAgainLater(t *testing.T) {
	// ..a appears again later in the outputs, so it cannot be dropped.
	e := mustParse(t, "(..a f(..a -- ..a) -- ..a)")
	s := e.Simplify()
	require.NotEmpty(t, s.Inputs)
	assert.Equal(t, effect.Row, s.AtomAt(s.Inputs[0]).Kind)
}

// Negative test: compatible but not equivalent to id.
func Test_Chain_CompatibleButNotIdentity(t *testing.T) {
	l := mustParse(t, "(a b -- a a)")
	r := mustParse(t, "(a b -- b b)")
	got := mustChain(t, l, r)
	assert.False(t, got.Equivalent(mustParse(t, "( -- )")), "got %s", got.Format())
}

// Negative test: arity mismatch inside a quoted effect fails to chain.
func Test_Chain_QuotedArityMismatchFails(t *testing.T) {
	consumer := mustParse(t, "(..c f(..c i j -- ..d k) -- ..d)")
	producer := mustParse(t, "( -- f(..e y -- ..e z))")
	_, err := effect.Chain(producer, consumer)
	require.Error(t, err)
	var incompat *effect.IncompatibleError
	require.ErrorAs(t, err, &incompat)
}
