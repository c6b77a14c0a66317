package forthen

import "fmt"

// This file implements spec §4.7's "Value operations": arithmetic,
// equality, and ordering dispatched through the uniform value interface,
// with tables able to override any operation via a meta-table method
// (original_source objects/table.rs's __add__ etc.). The actual `+`/`-`/
// `==` *words* are standard-library surface (spec §1 Non-goals) and out of
// CORE scope; CORE only owns this dispatch machinery so a future stdlib
// can wire single-line native words atop it.

// Add implements `+` (spec §4.7): i32 addition (wrapping on overflow, the
// source's i32 semantics) or a table's __add__ meta-method.
func Add(st *State, a, b Value) (Value, error) { return arith(st, a, b, "__add__", addInts) }

// Sub implements `-`.
func Sub(st *State, a, b Value) (Value, error) { return arith(st, a, b, "__sub__", subInts) }

// Mul implements `*`.
func Mul(st *State, a, b Value) (Value, error) { return arith(st, a, b, "__mul__", mulInts) }

// Div implements `/`: integer division truncating toward zero (spec §4.7,
// §9 "Division semantics... truncation-toward-zero is chosen here").
func Div(st *State, a, b Value) (Value, error) { return arith(st, a, b, "__div__", divInts) }

func addInts(a, b int32) (int32, error) { return a + b, nil }
func subInts(a, b int32) (int32, error) { return a - b, nil }
func mulInts(a, b int32) (int32, error) { return a * b, nil }

func divInts(a, b int32) (int32, error) {
	if b == 0 {
		return 0, &TypeError{Detail: "division by zero"}
	}
	return a / b, nil
}

func arith(st *State, a, b Value, metaName string, op func(a, b int32) (int32, error)) (Value, error) {
	if ai, ok := a.(Int); ok {
		if bi, ok := b.(Int); ok {
			n, err := op(int32(ai), int32(bi))
			if err != nil {
				return nil, err
			}
			return Int(n), nil
		}
	}
	if at, ok := a.(*Table); ok {
		if v, handled, err := tableBinaryMeta(st, at, metaName, b); handled || err != nil {
			return v, err
		}
	}
	return nil, &TypeError{Detail: fmt.Sprintf("cannot apply %s to %s and %s", metaName, a.Kind(), b.Kind())}
}

// Eq implements `==`: structural equality for None/Bool/Int/Str, identity
// for tables unless their meta-table provides __eq__ (spec §4.7).
func Eq(st *State, a, b Value) (bool, error) {
	switch av := a.(type) {
	case None:
		_, ok := b.(None)
		return ok, nil
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv, nil
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv, nil
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv, nil
	case *Table:
		if v, handled, err := tableBinaryMeta(st, av, "__eq__", b); handled {
			if err != nil {
				return false, err
			}
			bv, ok := v.(Bool)
			if !ok {
				return false, &TypeError{Detail: "__eq__ must return a bool"}
			}
			return bool(bv), nil
		}
		bv, ok := b.(*Table)
		return ok && av == bv, nil
	default:
		return a == b, nil
	}
}

// Less implements `<`, defined for integers and strings only (spec §4.7).
func Less(a, b Value) (bool, error) {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		if !ok {
			return false, &TypeError{Detail: "< requires matching int operands"}
		}
		return av < bv, nil
	case Str:
		bv, ok := b.(Str)
		if !ok {
			return false, &TypeError{Detail: "< requires matching string operands"}
		}
		return av < bv, nil
	default:
		return false, &TypeError{Detail: fmt.Sprintf("< not defined for %s", a.Kind())}
	}
}

// Greater implements `>`.
func Greater(a, b Value) (bool, error) { return Less(b, a) }

// LessEq implements `<=`.
func LessEq(a, b Value) (bool, error) {
	gt, err := Greater(a, b)
	return !gt, err
}

// GreaterEq implements `>=`.
func GreaterEq(a, b Value) (bool, error) {
	lt, err := Less(a, b)
	return !lt, err
}

// tableBinaryMeta invokes t's meta-table method name as a two-argument
// method: the receiver and other are pushed, the method is invoked, and its
// single return value is popped (original_source objects/table.rs
// invoke_method, generalized from value.go's unary invokeMeta to the
// binary-operator shape arithmetic/equality need).
func tableBinaryMeta(st *State, t *Table, name string, other Value) (Value, bool, error) {
	m, ok := t.metaLookup(name)
	if !ok {
		return nil, false, nil
	}
	callable, ok := m.(Callable)
	if !ok {
		return nil, true, &TypeError{Detail: fmt.Sprintf("%s on %s is not callable", name, t.Kind())}
	}
	if err := st.Push(t); err != nil {
		return nil, true, err
	}
	if err := st.Push(other); err != nil {
		return nil, true, err
	}
	if err := callable.Invoke(st); err != nil {
		return nil, true, err
	}
	v, err := st.Pop()
	return v, true, err
}
