package forthen

import (
	"context"
	"strconv"
	"strings"

	"github.com/forthen-lang/forthen/effect"
	"github.com/forthen-lang/forthen/token"
)

// targetKind classifies a Compiler's in-progress compile target (spec
// §4.6). topLevel is the implicit outermost target a Run starts with;
// quoteLiteral is pushed by `[` and popped by `]`; wordDef/scopedWordDef are
// pushed by `:`/`::` and popped by `;`; parseWordDef is pushed by `SYNTAX:`.
type targetKind int

const (
	targetTopLevel targetKind = iota
	targetQuoteLiteral
	targetWordDef
	targetScopedWordDef
	targetParseWordDef
)

// compileTarget is one level of the Compiler's target stack (original_source
// compiler.rs's CompileContext, generalized to a stack so `[`/`:`/`::`/
// `SYNTAX:` can all nest: a quotation literal inside a word body inside
// another quotation literal, arbitrarily deep).
type compileTarget struct {
	kind           targetKind
	quot           *Quotation
	name           string
	declaredEffect *effect.Effect
	scope          *Scope

	// stub is a placeholder WordEntry inserted into the current module for
	// the duration of a `:`/`::` body's compilation, so a self-reference to
	// the word being defined resolves instead of failing UnknownWord (spec
	// §4.6's recursive-word support, §4.5/§8's "ends in self-call runs in
	// bounded host-call depth"). It carries no Callable, so inferEffect
	// fails on any non-trailing use of it; parseTerminator rewrites a
	// trailing self-call into TailRecurse before inference runs, which is
	// the only shape of self-recursion this compiler resolves -- recursion
	// reached through a quoted branch (an `if`/`call` combinator) still
	// fails to infer an effect, an explicit, documented limitation rather
	// than an oversight.
	stub *WordEntry
}

// Compiler is the per-Run compiler driver (spec §4.6): it owns the token
// queue (via State.toks), the target stack, and is the argument every
// native ParseFunc receives so it can consume further tokens, inspect or
// mutate the in-progress quotation, and push nested compile targets for
// recursive parsing (spec §4.6's "invoke that word immediately against the
// full driver state").
type Compiler struct {
	st      *State
	targets []*compileTarget
}

func newCompiler(st *State) *Compiler {
	c := &Compiler{st: st}
	c.pushTarget(targetTopLevel, "")
	return c
}

// State exposes the owning interpreter state, for native parse words (and
// SYNTAX:-defined ones, via the next-token/emit-call/emit-push primitives
// in parsewords.go) that need to push/pop runtime values.
func (c *Compiler) State() *State { return c.st }

func (c *Compiler) pushTarget(kind targetKind, name string) *compileTarget {
	t := &compileTarget{kind: kind, quot: NewQuotation()}
	t.name = name
	if kind == targetScopedWordDef {
		t.scope = NewScope()
	}
	if kind == targetWordDef || kind == targetScopedWordDef {
		t.stub = &WordEntry{Name: name, Kind: OrdinaryWord}
		c.st.current.Insert(name, t.stub)
	}
	c.targets = append(c.targets, t)
	return t
}

// resolveSelfTailCall rewrites a trailing CallOp referencing t's own
// placeholder stub into TailRecurse (spec §4.5 "TailRecurse -- restart the
// enclosing quotation from its first opcode"). Any other occurrence of the
// stub is left as-is: inferEffect will fail on it with ExpectedStackEffect,
// since the stub never gets a real Callable.
func resolveSelfTailCall(t *compileTarget) {
	n := len(t.quot.Ops)
	if n == 0 {
		return
	}
	last := t.quot.Ops[n-1]
	if last.Kind == OpCall && last.Callable == t.stub {
		t.quot.Ops[n-1] = TailRecurseOp()
	}
}

func (c *Compiler) popTarget() *compileTarget {
	t := c.targets[len(c.targets)-1]
	c.targets = c.targets[:len(c.targets)-1]
	return t
}

// Top returns the innermost in-progress compile target.
func (c *Compiler) Top() *compileTarget { return c.targets[len(c.targets)-1] }

// TopMut returns the in-progress quotation's opcode buffer for native parse
// words that emit opcodes directly rather than through Emit (spec §4.6
// "top_mut").
func (c *Compiler) TopMut() *Quotation { return c.Top().quot }

// Emit appends op to the innermost in-progress quotation.
func (c *Compiler) Emit(op Opcode) { t := c.Top(); t.quot.Ops = append(t.quot.Ops, op) }

// scopeTarget returns the nearest enclosing scoped-word target, for `set`/
// `get`, or nil if none is open.
func (c *Compiler) scopeTarget() *compileTarget {
	for i := len(c.targets) - 1; i >= 0; i-- {
		if c.targets[i].kind == targetScopedWordDef {
			return c.targets[i]
		}
	}
	return nil
}

// NextToken consumes and returns the next queued token (spec §4.6
// "next_token").
func (c *Compiler) NextToken() (token.Token, bool) {
	if len(c.st.toks) == 0 {
		return token.Token{}, false
	}
	tok := c.st.toks[0]
	c.st.toks = c.st.toks[1:]
	return tok, true
}

// PeekToken returns the next queued token without consuming it.
func (c *Compiler) PeekToken() (token.Token, bool) {
	if len(c.st.toks) == 0 {
		return token.Token{}, false
	}
	return c.st.toks[0], true
}

// ParseUntil consumes and returns every token up to (and discarding) one
// whose Text equals delim (spec §4.6 "parse_until(delim)"), failing
// EndOfInput if delim is never seen.
func (c *Compiler) ParseUntil(delim string) ([]token.Token, error) {
	var out []token.Token
	for {
		tok, ok := c.NextToken()
		if !ok {
			return nil, &EndOfInput{}
		}
		if tok.Text == delim {
			return out, nil
		}
		out = append(out, tok)
	}
}

// parseBalancedEffectText reads tokens, which must already be positioned
// just after the effect's opening "(", up to and including its matching
// ")", tracking nested parens so a quoted-effect's own "(...)" doesn't
// terminate the outer one early (spec §4.6 "`::` ... effect declared").
// It returns the full "( ... )" source text for effect.Parse.
func (c *Compiler) parseBalancedEffectText() (string, error) {
	var b strings.Builder
	b.WriteByte('(')
	depth := 1
	for {
		tok, ok := c.NextToken()
		if !ok {
			return "", &EndOfInput{}
		}
		if tok.Kind == token.Paren {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}
		b.WriteByte(' ')
		b.WriteString(tok.Text)
		if tok.Kind == token.Paren && tok.Text == ")" && depth == 0 {
			return b.String(), nil
		}
	}
}

// compile runs the compile/execute pump's compile half to completion,
// returning the fully assembled top-level quotation (spec §2, §4.6). ctx is
// checked once per token so a long compile-time loop (e.g. a runaway
// SYNTAX: word) still honors WithOpLimit-style cancellation intent, even
// though the bulk of the budget check lives in Quotation.Invoke.
func (c *Compiler) compile(ctx context.Context) (*Quotation, error) {
	for {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tok, ok := c.NextToken()
		if !ok {
			break
		}
		if err := c.compileToken(tok); err != nil {
			return nil, err
		}
	}
	if len(c.targets) != 1 {
		return nil, &EndOfInput{}
	}
	top := c.popTarget()
	eff, err := c.inferEffect(top.quot)
	if err != nil {
		return nil, err
	}
	top.quot.SetEffect(eff)
	return top.quot, nil
}

func (c *Compiler) compileToken(tok token.Token) error {
	c.st.logf(markToken, "token %q", tok.Text)

	if tok.Kind == token.Paren {
		return &UnexpectedDelimiter{Token: tok.Text}
	}
	if tok.Kind == token.String {
		c.Emit(PushOp(unquote(tok.Text)))
		return nil
	}

	lit, litOK := parseIntLiteral(tok.Text)
	entry, entryOK := c.st.current.Lookup(tok.Text)

	switch {
	case litOK && entryOK:
		return &AmbiguousWord{Name: tok.Text}
	case litOK:
		c.Emit(PushOp(Int(lit)))
		return nil
	case entryOK:
		if entry.Kind == ParsingWord {
			return entry.Parse(c)
		}
		c.Emit(CallOp(entry))
		return nil
	default:
		return &UnknownWord{Name: tok.Text}
	}
}

// inferEffect left-folds q's opcodes' intrinsic effects through effect.Chain
// (spec §4.5 "A quotation's effect is the left-fold composition of its
// opcodes' effects"), starting from the identity effect `( -- )` (spec §8
// "Left identity").
func (c *Compiler) inferEffect(q *Quotation) (*effect.Effect, error) {
	acc, err := effect.Parse("( -- )")
	if err != nil {
		return nil, err
	}
	for _, op := range q.Ops {
		opEff, err := op.Effect()
		if err != nil {
			return nil, err
		}
		acc, err = effect.Chain(acc, opEff)
		if err != nil {
			return nil, &IncompatibleStackEffects{Cause: err}
		}
	}
	c.st.logf(markChain, "inferred %s", acc.Format())
	return acc, nil
}

// parseIntLiteral recognizes an optional-sign decimal integer in the signed
// 32-bit range (spec §6 "Integer literal"). It rejects bare "+"/"-" and
// anything with a non-digit body.
func parseIntLiteral(text string) (int32, bool) {
	if text == "" || text == "+" || text == "-" {
		return 0, false
	}
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// unquote strips the surrounding double quotes a token.String always starts
// with and, when present, ends with (spec §4.1's unterminated-string edge
// case: the trailing quote may be missing).
func unquote(text string) Str {
	if len(text) == 0 {
		return ""
	}
	text = strings.TrimPrefix(text, `"`)
	text = strings.TrimSuffix(text, `"`)
	return Str(text)
}
