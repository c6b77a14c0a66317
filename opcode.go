package forthen

import (
	"fmt"

	"github.com/forthen-lang/forthen/effect"
)

// OpKind tags an Opcode's operation (spec §4.5).
type OpKind int

const (
	OpPush OpKind = iota
	OpCall
	OpTailRecurse
	// OpPushFrame and OpPopFrame are emitted as the prologue/epilogue
	// `::` wraps a scoped word's body in (spec §4.6); OpSetLocal and
	// OpGetLocal are emitted by the `set`/`get` parse words. None of the
	// four are named as opcodes in spec §4.5's list, which only enumerates
	// the value-stack opcodes; they are the frame-stack counterpart
	// implementing spec §3's "Frame stack" and §4.6's scope contract.
	OpPushFrame
	OpPopFrame
	OpSetLocal
	OpGetLocal
)

// Opcode is one instruction in a Quotation's body (spec §4.5,
// original_source vm.rs's Opcode enum). Value is set for OpPush, Callable
// for OpCall; Slot is set for OpPushFrame (frame size), OpSetLocal, and
// OpGetLocal; OpTailRecurse and OpPopFrame use neither.
type Opcode struct {
	Kind     OpKind
	Value    Value
	Callable Callable
	Slot     int
}

func PushOp(v Value) Opcode    { return Opcode{Kind: OpPush, Value: v} }
func CallOp(c Callable) Opcode { return Opcode{Kind: OpCall, Callable: c} }
func TailRecurseOp() Opcode    { return Opcode{Kind: OpTailRecurse} }
func PushFrameOp(size int) Opcode { return Opcode{Kind: OpPushFrame, Slot: size} }
func PopFrameOp() Opcode          { return Opcode{Kind: OpPopFrame} }
func SetLocalOp(slot int) Opcode  { return Opcode{Kind: OpSetLocal, Slot: slot} }
func GetLocalOp(slot int) Opcode  { return Opcode{Kind: OpGetLocal, Slot: slot} }

func (op Opcode) String() string {
	switch op.Kind {
	case OpPush:
		return fmt.Sprintf("push(%v)", op.Value)
	case OpCall:
		return fmt.Sprintf("call(%v)", op.Callable)
	case OpTailRecurse:
		return "<tail recurse>"
	case OpPushFrame:
		return fmt.Sprintf("pushframe(%d)", op.Slot)
	case OpPopFrame:
		return "popframe"
	case OpSetLocal:
		return fmt.Sprintf("set(%d)", op.Slot)
	case OpGetLocal:
		return fmt.Sprintf("get(%d)", op.Slot)
	default:
		return "?"
	}
}

// Effect returns op's intrinsic stack effect (spec §4.5 "Effect
// derivation"): pushing a quotation contributes one quoted item carrying
// that quotation's own effect; pushing anything else contributes one plain
// item; a call contributes the callee's stored effect.
func (op Opcode) Effect() (*effect.Effect, error) {
	switch op.Kind {
	case OpPush:
		if q, ok := op.Value.(*Quotation); ok {
			inner := q.Effect()
			if inner == nil {
				return nil, &ExpectedStackEffect{Detail: "nested quotation has no inferred effect yet"}
			}
			return effect.PushQuoted("f", inner), nil
		}
		return parsedOrPanic("( -- x)"), nil
	case OpCall:
		eff := op.Callable.Effect()
		if eff == nil {
			return nil, &ExpectedStackEffect{Detail: fmt.Sprintf("%v has no stack effect", op.Callable)}
		}
		return eff, nil
	case OpTailRecurse, OpPushFrame, OpPopFrame:
		return parsedOrPanic("( -- )"), nil
	case OpSetLocal:
		return parsedOrPanic("(x -- )"), nil
	case OpGetLocal:
		return parsedOrPanic("( -- x)"), nil
	default:
		return nil, &TypeError{Detail: "unknown opcode"}
	}
}

// Quotation is a compiled, executable sequence of opcodes (spec §4.5,
// original_source vm.rs's Quotation). Its effect is the left-fold
// composition of its opcodes' effects (computed once at compile time by
// compiler.go and cached here).
type Quotation struct {
	Ops []Opcode
	eff *effect.Effect
}

func NewQuotation() *Quotation { return &Quotation{} }

func (*Quotation) Kind() string { return "quotation" }

func (q *Quotation) Effect() *effect.Effect { return q.eff }

// SetEffect is called once by the compiler after inferring q's effect.
func (q *Quotation) SetEffect(e *effect.Effect) { q.eff = e }

func (q *Quotation) String() string {
	out := ""
	for i, op := range q.Ops {
		if i > 0 {
			out += " "
		}
		out += op.String()
	}
	return out
}

// Invoke runs q's opcodes in order. A TailRecurse opcode restarts the loop
// from the first opcode without pushing a host call frame, so a
// self-tail-recursive word runs in bounded Go call-stack depth (spec §4.5,
// §8 "tail-recursive words run in bounded host-call depth").
func (q *Quotation) Invoke(st *State) error {
	for {
		restart := false
		for _, op := range q.Ops {
			if err := st.checkBudget(); err != nil {
				return err
			}
			switch op.Kind {
			case OpPush:
				if err := st.Push(op.Value); err != nil {
					return err
				}
			case OpCall:
				if err := op.Callable.Invoke(st); err != nil {
					return err
				}
			case OpTailRecurse:
				restart = true
			case OpPushFrame:
				st.PushFrame(op.Slot)
			case OpPopFrame:
				st.PopFrame()
			case OpSetLocal:
				v, err := st.Pop()
				if err != nil {
					return err
				}
				if err := st.SetLocal(op.Slot, v); err != nil {
					return err
				}
			case OpGetLocal:
				v, err := st.GetLocal(op.Slot)
				if err != nil {
					return err
				}
				if err := st.Push(v); err != nil {
					return err
				}
			}
			if restart {
				break
			}
		}
		if !restart {
			return nil
		}
	}
}

func parsedOrPanic(src string) *effect.Effect {
	e, err := effect.Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}
