package forthen

import (
	"fmt"

	"github.com/forthen-lang/forthen/effect"
)

// Value is the uniform interface every runtime value satisfies (spec
// §4.7's "dynamic dispatch on values" design note). Concrete types are a
// small closed set (spec §3): None, booleans, i32, strings, quotations,
// word references, lists, tables, native functions, and a single opaque
// extension case. There is no inheritance; table values delegate to their
// meta-table instead (Table.GetAttribute).
type Value interface {
	// Kind names the dynamic type for diagnostics and TypeError messages.
	Kind() string
}

// Callable is implemented by every Value that can appear after Call (spec
// §4.5): quotations, word references, native functions, and tables whose
// meta-table provides __call__.
type Callable interface {
	Value
	// Effect returns the callable's stack effect, used both to type-check
	// call sites and to report ExpectedStackEffect when absent.
	Effect() *effect.Effect
	// Invoke runs the callable against st, pushing/popping values as its
	// Effect promises.
	Invoke(st *State) error
}

// None is the single value of "no value" (spec §3); unlike booleans it
// carries no payload.
type None struct{}

func (None) Kind() string { return "none" }

// Bool is forthen's boolean value.
type Bool bool

func (Bool) Kind() string { return "bool" }

// Int is forthen's only numeric type: a 32-bit signed integer (spec §4.7).
// Arithmetic overflows by wrapping, matching the Rust i32 source.
type Int int32

func (Int) Kind() string { return "int" }

// Str is an immutable string value. Unlike the Rust source's Rc<String>
// interning, Go string values are already immutable and cheap to share, so
// no separate reference-counted wrapper is needed for strings specifically
// (list/table ownership checks still apply to their containers).
type Str string

func (Str) Kind() string { return "string" }

// List is a mutable, reference-counted sequence of values (spec §5's
// "mutation of a shared value requires unique ownership"). refs counts the
// number of List values sharing this same backing slice+header; Mutate
// refuses in-place changes when refs > 1, matching the source's
// Rc::get_mut-or-fail pattern (spec §7 OwnershipError).
type List struct {
	Items []Value
	refs  int
}

// NewList returns a fresh, uniquely-owned empty list.
func NewList() *List { return &List{refs: 1} }

func (*List) Kind() string { return "list" }

// Retain increments the share count when a second handle to l is created
// (e.g. a dup on the value stack).
func (l *List) Retain() { l.refs++ }

// Release decrements the share count when a handle to l is dropped.
func (l *List) Release() {
	if l.refs > 0 {
		l.refs--
	}
}

// Mutate runs f against l's backing slice if l is uniquely owned, else
// fails with OwnershipError (spec §5, §7).
func (l *List) Mutate(f func(*[]Value) error) error {
	if l.refs > 1 {
		return &OwnershipError{}
	}
	return f(&l.Items)
}

// Table is forthen's only object/record type: an attribute map with
// optional meta-table delegation (spec §4.7, original_source
// objects/table.rs and objects/dynobj.rs). Like List, Table is reference
// counted for the same ownership-checked-mutation reason.
type Table struct {
	attrs map[string]Value
	meta  *Table
	refs  int
}

// NewTable returns a fresh, uniquely-owned table with no meta-table.
func NewTable() *Table { return &Table{attrs: map[string]Value{}, refs: 1} }

func (*Table) Kind() string { return "table" }

func (t *Table) Retain() { t.refs++ }

func (t *Table) Release() {
	if t.refs > 0 {
		t.refs--
	}
}

// SetMeta installs t's meta-table, used for __index__/__add__/__eq__/
// __call__ delegation.
func (t *Table) SetMeta(meta *Table) { t.meta = meta }

// Meta returns t's meta-table, or nil.
func (t *Table) Meta() *Table { return t.meta }

// SetAttr stores value under name directly on t (spec §4.7 set_attr).
func (t *Table) SetAttr(name string, value Value) error {
	if t.refs > 1 {
		return &OwnershipError{}
	}
	t.attrs[name] = value
	return nil
}

// GetAttr looks up name only on t itself, never the meta-table (spec §4.7
// get_attr).
func (t *Table) GetAttr(name string) (Value, bool) {
	v, ok := t.attrs[name]
	return v, ok
}

// metaLookup searches only the meta-table's own attributes (original_source
// objects/table.rs meta_lookup).
func (t *Table) metaLookup(name string) (Value, bool) {
	if t.meta == nil {
		return nil, false
	}
	return t.meta.attrs[name], t.meta.attrs[name] != nil
}

// GetAttribute implements the dynamic (prototype-style) attribute lookup:
// local attributes first, then the
// meta-table's __index__ method invoked with (receiver, name) on the
// stack (spec §4.7).
func (t *Table) GetAttribute(st *State, name string) (Value, error) {
	if v, ok := t.attrs[name]; ok {
		return v, nil
	}
	if idx, ok := t.metaLookup("__index__"); ok {
		callable, ok := idx.(Callable)
		if !ok {
			return nil, &TypeError{Detail: fmt.Sprintf("__index__ on %s is not callable", t.Kind())}
		}
		if err := st.Push(t); err != nil {
			return nil, err
		}
		if err := st.Push(Str(name)); err != nil {
			return nil, err
		}
		if err := callable.Invoke(st); err != nil {
			return nil, err
		}
		return st.Pop()
	}
	return nil, &AttributeError{Detail: fmt.Sprintf("no %s attribute in table", name)}
}

// invokeMeta calls the named meta-method with t pushed as receiver; Table.Invoke
// uses it for __call__, while arith.go's binary operators go through
// tableBinaryMeta instead (original_source objects/table.rs invoke_method).
func (t *Table) invokeMeta(st *State, name string) (bool, error) {
	m, ok := t.metaLookup(name)
	if !ok {
		return false, nil
	}
	callable, ok := m.(Callable)
	if !ok {
		return false, &TypeError{Detail: fmt.Sprintf("%s on %s is not callable", name, t.Kind())}
	}
	if err := st.Push(t); err != nil {
		return false, err
	}
	return true, callable.Invoke(st)
}

func (t *Table) Effect() *effect.Effect {
	if m, ok := t.metaLookup("__call__"); ok {
		if call, ok := m.(Callable); ok {
			return call.Effect()
		}
	}
	return nil
}

func (t *Table) Invoke(st *State) error {
	ok, err := t.invokeMeta(st, "__call__")
	if err != nil {
		return err
	}
	if !ok {
		return &TypeError{Detail: fmt.Sprintf("table is not callable (no __call__)")}
	}
	return nil
}

// Native wraps a Go function as a callable forthen value (state.go's
// add_native_word host primitive).
type Native struct {
	Name string
	Eff  *effect.Effect
	Fn   func(st *State) error
}

func (*Native) Kind() string          { return "native" }
func (n *Native) Effect() *effect.Effect { return n.Eff }
func (n *Native) Invoke(st *State) error { return n.Fn(st) }

// Extension is the single opaque escape hatch for host-defined values (spec
// §3, §9 "no inheritance is needed"): a host embedding provides Payload and
// an optional small vtable of operations it supports. CORE never inspects
// Payload directly.
type Extension struct {
	Payload interface{}
	Repr    func(interface{}) string
}

func (*Extension) Kind() string { return "extension" }

func (e *Extension) String() string {
	if e.Repr != nil {
		return e.Repr(e.Payload)
	}
	return fmt.Sprintf("<extension %T>", e.Payload)
}
