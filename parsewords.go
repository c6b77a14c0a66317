package forthen

import (
	"fmt"

	"github.com/forthen-lang/forthen/effect"
)

// installBuiltins registers the primitives spec §4.6 names as the CORE's
// required built-in vocabulary: the definers `:`/`;`/`::`/`SYNTAX:`, the
// quotation-literal brackets `[`/`]`, the scoped-local accessors `set`/
// `get`, and the two combinators `call`/`if`. Standard-library word packs
// (arithmetic, lists, tables, loops) stay out of CORE scope (spec §1); only
// the primitives a stdlib would be built on are provided here.
func installBuiltins(root *Module) {
	root.Insert(":", &WordEntry{Name: ":", Kind: ParsingWord, Parse: parseWordDefiner})
	root.Insert(";", &WordEntry{Name: ";", Kind: ParsingWord, Parse: parseTerminator})
	root.Insert("[", &WordEntry{Name: "[", Kind: ParsingWord, Parse: parseQuoteOpen})
	root.Insert("]", &WordEntry{Name: "]", Kind: ParsingWord, Parse: parseQuoteClose})
	root.Insert("::", &WordEntry{Name: "::", Kind: ParsingWord, Parse: parseScopedWordDefiner})
	root.Insert("SYNTAX:", &WordEntry{Name: "SYNTAX:", Kind: ParsingWord, Parse: parseSyntaxDefiner})
	root.Insert("set", &WordEntry{Name: "set", Kind: ParsingWord, Parse: parseSet})
	root.Insert("get", &WordEntry{Name: "get", Kind: ParsingWord, Parse: parseGet})

	mustNative(root, "call", "(..a f(..a -- ..b) -- ..b)", nativeCall)
	mustNative(root, "if", "(..a ? then(..a -- ..b) else(..a -- ..b) -- ..b)", nativeIf)

	mustNative(root, "next-token", "( -- s)", nativeNextToken)
	mustNative(root, "emit-push", "(x -- )", nativeEmitPush)
	mustNative(root, "emit-call", "(s -- )", nativeEmitCall)
}

func mustNative(root *Module, name, effSrc string, fn func(*State) error) {
	eff, err := effect.Parse(effSrc)
	if err != nil {
		panic(fmt.Sprintf("forthen: bad builtin effect for %s: %v", name, err))
	}
	root.Insert(name, &WordEntry{
		Name:     name,
		Kind:     OrdinaryWord,
		Callable: &Native{Name: name, Eff: eff, Fn: fn},
	})
}

// parseWordDefiner implements `:` (spec §6 "Word definition: `: name body
// ;` (effect inferred)"): read the name and an optional "( ... )" effect
// right after it, then push a fresh word-definition target; every token up
// to the matching `;` compiles into its body like any other in-progress
// quotation. The optional effect must parse, but the word gets its inferred
// effect and the written one is not checked against it.
func parseWordDefiner(c *Compiler) error {
	nameTok, ok := c.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	if tok, ok := c.PeekToken(); ok && tok.Text == "(" {
		c.NextToken()
		effSrc, err := c.parseBalancedEffectText()
		if err != nil {
			return err
		}
		if _, err := effect.Parse(effSrc); err != nil {
			return err
		}
	}
	c.pushTarget(targetWordDef, nameTok.Text)
	return nil
}

// parseScopedWordDefiner implements `::` (spec §6 "`:: name ( effect )
// body ;` (effect declared; checked against inference)"): read the name,
// read the declared effect (a balanced "( ... )" run so a nested quoted
// effect's own parens don't terminate it early), then push a scoped word
// target carrying both the declared effect and a fresh compiler Scope for
// `set`/`get` (spec §4.6's "`::` wraps the compiled body in a prologue/
// epilogue").
func parseScopedWordDefiner(c *Compiler) error {
	nameTok, ok := c.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	openTok, ok := c.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	if openTok.Text != "(" {
		return &UnexpectedDelimiter{Token: openTok.Text}
	}
	effSrc, err := c.parseBalancedEffectText()
	if err != nil {
		return err
	}
	declared, err := effect.Parse(effSrc)
	if err != nil {
		return err
	}
	t := c.pushTarget(targetScopedWordDef, nameTok.Text)
	t.declaredEffect = declared
	return nil
}

// parseSyntaxDefiner implements `SYNTAX:` (spec §6 "parsing word
// definition"): its body compiles exactly like an ordinary word's, but the
// resulting Quotation is wrapped as a ParseFunc that, when later invoked by
// the compiler for a use of the new word, runs the compiled body against
// the live Compiler's State with activeCompiler set, so the body can use
// next-token/emit-push/emit-call (parsewords.go) to act on the token stream
// and in-progress quotation directly -- the Go-native equivalent of the
// primitives spec §4.6 lists (next_token, parse_until, top_mut).
func parseSyntaxDefiner(c *Compiler) error {
	nameTok, ok := c.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	c.pushTarget(targetParseWordDef, nameTok.Text)
	return nil
}

// parseTerminator implements `;`, closing whichever target `:`/`::`/
// `SYNTAX:` opened (spec §6). It is an error at the top level, where
// nothing is open to terminate.
func parseTerminator(c *Compiler) error {
	if c.Top().kind == targetTopLevel {
		return &UnexpectedDelimiter{Token: ";"}
	}
	t := c.popTarget()

	switch t.kind {
	case targetWordDef:
		resolveSelfTailCall(t)
		eff, err := c.inferEffect(t.quot)
		if err != nil {
			return err
		}
		t.quot.SetEffect(eff)
		c.st.current.Insert(t.name, &WordEntry{Name: t.name, Kind: OrdinaryWord, Callable: t.quot, Source: t.quot.Ops})
		return nil

	case targetScopedWordDef:
		return closeScopedWordDef(c, t)

	case targetParseWordDef:
		c.st.current.Insert(t.name, &WordEntry{
			Name: t.name,
			Kind: ParsingWord,
			Parse: func(c2 *Compiler) error {
				prev := c2.st.activeCompiler
				c2.st.activeCompiler = c2
				defer func() { c2.st.activeCompiler = prev }()
				return t.quot.Invoke(c2.st)
			},
			Source: t.quot.Ops,
		})
		return nil

	default:
		return &UnexpectedDelimiter{Token: ";"}
	}
}

func closeScopedWordDef(c *Compiler, t *compileTarget) error {
	resolveSelfTailCall(t)
	size := t.scope.Len()
	if !t.scope.IsEmpty() {
		body := make([]Opcode, 0, len(t.quot.Ops)+2)
		body = append(body, PushFrameOp(size))
		body = append(body, t.quot.Ops...)
		body = append(body, PopFrameOp())
		t.quot.Ops = body
	}
	eff, err := c.inferEffect(t.quot)
	if err != nil {
		return err
	}
	if t.declaredEffect != nil && !eff.Equivalent(t.declaredEffect) {
		return &IncompatibleStackEffects{Cause: fmt.Errorf(
			"declared %s does not match inferred %s for %s",
			t.declaredEffect.Format(), eff.Format(), t.name)}
	}
	t.quot.SetEffect(eff)
	c.st.current.Insert(t.name, &WordEntry{Name: t.name, Kind: OrdinaryWord, Callable: t.quot, Source: t.quot.Ops})
	return nil
}

// parseQuoteOpen implements `[` (spec §6 "Quotation literal: `[ body ]`"):
// push a fresh anonymous compile target; its contents compile exactly like
// a word body, but on `]` the finished Quotation becomes a Push opcode in
// the now-current (enclosing) target rather than a dictionary entry.
func parseQuoteOpen(c *Compiler) error {
	c.pushTarget(targetQuoteLiteral, "")
	return nil
}

// parseQuoteClose implements `]`: infer the popped quotation's effect, then
// emit it as a literal Push into the enclosing target (spec §4.5 "Push(
// quotation) yields the effect push one quoted item").
func parseQuoteClose(c *Compiler) error {
	if c.Top().kind != targetQuoteLiteral {
		return &UnexpectedDelimiter{Token: "]"}
	}
	t := c.popTarget()
	eff, err := c.inferEffect(t.quot)
	if err != nil {
		return err
	}
	t.quot.SetEffect(eff)
	c.Emit(PushOp(t.quot))
	return nil
}

// parseSet implements `set x` (spec §6 "Local variables inside `::`: `set
// x` / `get x`"): resolve x to a dense slot in the nearest enclosing scoped
// word and emit the frame-store opcode.
func parseSet(c *Compiler) error {
	nameTok, ok := c.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	t := c.scopeTarget()
	if t == nil {
		return &TypeError{Detail: "set used outside of a :: scoped word"}
	}
	c.Emit(SetLocalOp(t.scope.Slot(nameTok.Text)))
	return nil
}

// parseGet implements `get x`, the load counterpart of parseSet.
func parseGet(c *Compiler) error {
	nameTok, ok := c.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	t := c.scopeTarget()
	if t == nil {
		return &TypeError{Detail: "get used outside of a :: scoped word"}
	}
	c.Emit(GetLocalOp(t.scope.Slot(nameTok.Text)))
	return nil
}

// nativeCall implements the `call` combinator (spec §4.6): pop a callable
// and invoke it. Its declared effect `(..a f(..a -- ..b) -- ..b)` lets the
// unifier propagate the quoted callable's own effect into the call site
// exactly as spec §8 scenario 4 demonstrates.
func nativeCall(st *State) error {
	v, err := st.Pop()
	if err != nil {
		return err
	}
	callable, ok := v.(Callable)
	if !ok {
		return &TypeError{Detail: fmt.Sprintf("call: %s is not callable", v.Kind())}
	}
	return callable.Invoke(st)
}

// nativeIf implements the `if` combinator: pop else-branch, then-branch,
// and a boolean condition (in that push order, so the branches appear
// textually as `cond [then] [else] if`), and invoke whichever branch the
// condition selects.
func nativeIf(st *State) error {
	elseV, err := st.Pop()
	if err != nil {
		return err
	}
	thenV, err := st.Pop()
	if err != nil {
		return err
	}
	condV, err := st.Pop()
	if err != nil {
		return err
	}
	cond, ok := condV.(Bool)
	if !ok {
		return &TypeError{Detail: fmt.Sprintf("if: %s is not a boolean", condV.Kind())}
	}
	branch := elseV
	if bool(cond) {
		branch = thenV
	}
	callable, ok := branch.(Callable)
	if !ok {
		return &TypeError{Detail: fmt.Sprintf("if: %s branch is not callable", branch.Kind())}
	}
	return callable.Invoke(st)
}

// nativeNextToken exposes Compiler.NextToken to a SYNTAX:-defined word's
// body (spec §4.6's next_token primitive): it only makes sense while
// st.activeCompiler is set, i.e. while a parsing word is running.
func nativeNextToken(st *State) error {
	if st.activeCompiler == nil {
		return &TypeError{Detail: "next-token used outside of a parsing word"}
	}
	tok, ok := st.activeCompiler.NextToken()
	if !ok {
		return &EndOfInput{}
	}
	return st.Push(Str(tok.Text))
}

// nativeEmitPush exposes Compiler.Emit(PushOp(...)) to a SYNTAX:-defined
// word's body, letting it append a literal to the in-progress quotation
// (spec §4.6's top_mut primitive, specialized to the common Push case).
func nativeEmitPush(st *State) error {
	if st.activeCompiler == nil {
		return &TypeError{Detail: "emit-push used outside of a parsing word"}
	}
	v, err := st.Pop()
	if err != nil {
		return err
	}
	st.activeCompiler.Emit(PushOp(v))
	return nil
}

// nativeEmitCall exposes Compiler.Emit(CallOp(...)) by dictionary name,
// failing UnknownWord if the name isn't bound in the current module.
func nativeEmitCall(st *State) error {
	if st.activeCompiler == nil {
		return &TypeError{Detail: "emit-call used outside of a parsing word"}
	}
	v, err := st.Pop()
	if err != nil {
		return err
	}
	name, ok := v.(Str)
	if !ok {
		return &TypeError{Detail: "emit-call expects a string word name"}
	}
	entry, ok := st.current.Lookup(string(name))
	if !ok {
		return &UnknownWord{Name: string(name)}
	}
	st.activeCompiler.Emit(CallOp(entry))
	return nil
}
