package forthen

import (
	"context"
	"io/ioutil"

	"github.com/forthen-lang/forthen/effect"
	"github.com/forthen-lang/forthen/internal/flushio"
	"github.com/forthen-lang/forthen/internal/panicerr"
	"github.com/forthen-lang/forthen/token"
)

// State is the single owned aggregate spec §5 and §9 describe: the value
// stack, the frame stack, the root module/dictionary, the token queue for
// the in-progress compile, and the ambient logging/output plumbing. It is
// passed explicitly to every primitive; there is no package-level mutable
// state (spec §9 "Global mutable state").
type State struct {
	logging

	stack  []Value
	frames []*Frame

	root    *Module
	current *Module

	toks []token.Token

	out     flushio.WriteFlusher
	opLimit int
	ops     int

	effectCache bool

	ctx context.Context

	// activeCompiler is set for the duration of a user-defined SYNTAX:
	// word's body execution, giving the next-token/emit-call/emit-push
	// native words (parsewords.go) access to the live Compiler (spec §4.6
	// "the CORE must provide these primitives on which the [stdlib] is
	// built").
	activeCompiler *Compiler
}

// New builds a fresh interpreter state, applying opts in order (spec §6
// "new_state", mirroring the teacher's VMOption construction in
// options.go).
func New(opts ...Option) *State {
	st := &State{root: NewModule(), effectCache: true}
	st.current = st.root
	defaultOptions.apply(st)
	Options(opts...).apply(st)
	installBuiltins(st.root)
	return st
}

// Push appends v to the value stack.
func (st *State) Push(v Value) error {
	st.stack = append(st.stack, v)
	return nil
}

// Pop removes and returns the top of the value stack, or StackUnderflow.
func (st *State) Pop() (Value, error) {
	if len(st.stack) == 0 {
		return nil, &StackUnderflow{}
	}
	i := len(st.stack) - 1
	v := st.stack[i]
	st.stack = st.stack[:i]
	return v, nil
}

// Top returns the top of the value stack without removing it.
func (st *State) Top() (Value, error) {
	if len(st.stack) == 0 {
		return nil, &StackUnderflow{}
	}
	return st.stack[len(st.stack)-1], nil
}

// Depth reports the current value-stack size; a failed Run leaves it as it
// was before the Run (spec §5, §7, §8).
func (st *State) Depth() int { return len(st.stack) }

// PushFrame pushes a fresh, zeroed Frame of the given size (spec §4.6 `::`
// prologue, §5 "Resource acquisition").
func (st *State) PushFrame(size int) {
	st.frames = append(st.frames, newFrame(size))
}

// PopFrame pops the topmost Frame (`::` epilogue).
func (st *State) PopFrame() {
	if n := len(st.frames); n > 0 {
		st.frames = st.frames[:n-1]
	}
}

// FrameDepth reports the current frame-stack size, which a failed Run
// likewise leaves unchanged.
func (st *State) FrameDepth() int { return len(st.frames) }

// SetLocal stores v in the topmost frame at slot (emitted by `set`, spec
// §4.6).
func (st *State) SetLocal(slot int, v Value) error {
	if len(st.frames) == 0 {
		return &TypeError{Detail: "set outside of a scoped word"}
	}
	st.frames[len(st.frames)-1].set(slot, v)
	return nil
}

// GetLocal reads the topmost frame's slot (emitted by `get`).
func (st *State) GetLocal(slot int) (Value, error) {
	if len(st.frames) == 0 {
		return nil, &TypeError{Detail: "get outside of a scoped word"}
	}
	return st.frames[len(st.frames)-1].get(slot), nil
}

// CurrentModule returns the module new definitions are inserted into.
func (st *State) CurrentModule() *Module { return st.current }

// RootModule returns the outermost module.
func (st *State) RootModule() *Module { return st.root }

// Lookup resolves name in the current module, ascending to parents (spec
// §4.4, §6 "lookup(state, name)").
func (st *State) Lookup(name string) (*WordEntry, bool) { return st.current.Lookup(name) }

// AddNativeWord registers an ordinary native primitive under name with the
// given stack-effect spec, which may be a string to parse or an already
// built *effect.Effect (spec §6 add_native_word).
func (st *State) AddNativeWord(name string, effSpec interface{}, fn func(*State) error) error {
	eff, err := resolveEffectSpec(effSpec)
	if err != nil {
		return err
	}
	st.current.Insert(name, &WordEntry{
		Name:     name,
		Kind:     OrdinaryWord,
		Callable: &Native{Name: name, Eff: eff, Fn: fn},
	})
	return nil
}

// AddNativeParseWord registers a parsing-word primitive under name (spec §6
// add_native_parse_word).
func (st *State) AddNativeParseWord(name string, fn ParseFunc) {
	st.current.Insert(name, &WordEntry{Name: name, Kind: ParsingWord, Parse: fn})
}

func resolveEffectSpec(spec interface{}) (*effect.Effect, error) {
	switch v := spec.(type) {
	case nil:
		return nil, nil
	case *effect.Effect:
		return v, nil
	case string:
		return effect.Parse(v)
	default:
		return nil, &TypeError{Detail: "effect-spec must be a string or *effect.Effect"}
	}
}

// Run tokenizes and compiles source against st's current module, then
// executes the resulting quotation (spec §2 "compile/execute pump", §4.6).
// On any failure the value and frame stacks are restored to the
// snapshot taken when Run began and the token queue is cleared, so st remains usable for a
// subsequent Run (spec §5, §7, §8's "after a failed run" invariant). Every
// CORE primitive returns its failure as a plain error threaded back up
// through ordinary Go returns (spec §9 "Exceptions as control flow"):
// panicerr.Recover here is a safety net against a genuine Go panic or
// runtime.Goexit escaping from deep in a primitive (a host-registered native
// word misbehaving, a slice index bug), not a domain control-flow mechanism
// CORE itself relies on.
func (st *State) Run(ctx context.Context, source string) error {
	savedStack := append([]Value(nil), st.stack...)
	savedFrames := append([]*Frame(nil), st.frames...)
	st.toks = token.All(source)
	st.ctx = ctx
	st.ops = 0

	err := panicerr.Recover("run", func() error {
		return st.compileAndExec(ctx)
	})

	if err != nil {
		st.logf(markHalt, "run failed: %v", err)
		st.stack = savedStack
		st.frames = savedFrames
		st.toks = nil
	}
	return err
}

func (st *State) compileAndExec(ctx context.Context) (err error) {
	c := newCompiler(st)
	q, err := c.compile(ctx)
	if err != nil {
		return err
	}
	st.logf(markEval, "exec %v", q)
	return q.Invoke(st)
}

// checkBudget is consulted between opcodes by Quotation.Invoke (spec §5
// "a host embedding may wrap the evaluator and enforce wall-clock or
// opcode-count limits externally"; forthen exposes both directly on State
// since the context and the limit are already threaded through Run).
// Quotation.Invoke is itself part of the public host interface (a caller may
// invoke a Quotation directly, outside of Run), so a budget violation is
// reported as a plain returned error: only Run's own internal call stack is
// wrapped by panicerr.Recover, and a panic raised here would escape
// uncaught out of a direct Invoke call.
func (st *State) checkBudget() error {
	if st.ctx != nil {
		if err := st.ctx.Err(); err != nil {
			return err
		}
	}
	st.ops++
	if st.opLimit > 0 && st.ops > st.opLimit {
		return &TypeError{Detail: "opcode limit exceeded"}
	}
	return nil
}

// Close flushes and releases st's output writer, mirroring the teacher's
// Core.Close.
func (st *State) Close() error {
	if st.out != nil {
		return st.out.Flush()
	}
	return nil
}

var defaultOptions = Options(
	withOutput(ioutil.Discard),
)
