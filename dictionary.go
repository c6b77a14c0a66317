package forthen

import "github.com/forthen-lang/forthen/effect"

// WordKind distinguishes ordinary words (called during execution) from
// parsing words (invoked immediately by the compiler, spec §4.6).
type WordKind int

const (
	OrdinaryWord WordKind = iota
	ParsingWord
)

// ParseFunc is the signature of a native parsing word: it runs against the
// live Compiler state, consuming further tokens as it sees fit (spec
// §4.6).
type ParseFunc func(c *Compiler) error

// WordEntry is a single dictionary binding (spec §4.4, original_source
// dictionary.rs's Entry). Handles returned by lookup hold a *WordEntry
// directly; replacing a name in a Module rebinds the map entry but never
// mutates an existing *WordEntry, so already-compiled call sites (which
// hold the old *WordEntry via a Call opcode) keep calling the old
// definition (spec §4.4 invariant, §8 "re-defining a word" test).
type WordEntry struct {
	Name   string
	Kind   WordKind
	Callable Callable  // set for OrdinaryWord entries
	Parse  ParseFunc   // set for ParsingWord entries
	Source []Opcode    // the compiled body, for format_word/dump
}

// Kind satisfies Value so a WordEntry can be pushed on the stack directly
// as a word reference (the compiler's Call opcode holds one).
func (w *WordEntry) Kind() string { return "word" }

// Effect satisfies Callable for ordinary words by delegating to the
// underlying callable (a *Quotation or *Native).
func (w *WordEntry) Effect() *effect.Effect {
	if w.Callable == nil {
		return nil
	}
	return w.Callable.Effect()
}

func (w *WordEntry) Invoke(st *State) error {
	if w.Callable == nil {
		return &TypeError{Detail: w.Name + " is a parsing word, not callable"}
	}
	return w.Callable.Invoke(st)
}

// Dictionary is a flat name -> *WordEntry table, one per Module
// (original_source dictionary.rs's Dictionary, minus the Rc<RefCell<>>
// plumbing Go's garbage collector makes unnecessary).
type Dictionary struct {
	words map[string]*WordEntry
	order []string
}

func newDictionary() *Dictionary {
	return &Dictionary{words: map[string]*WordEntry{}}
}

// Insert replaces any existing entry under name (spec §4.4).
func (d *Dictionary) Insert(name string, entry *WordEntry) {
	if _, exists := d.words[name]; !exists {
		d.order = append(d.order, name)
	}
	d.words[name] = entry
}

// Lookup returns the entry bound to name in this dictionary only.
func (d *Dictionary) Lookup(name string) (*WordEntry, bool) {
	e, ok := d.words[name]
	return e, ok
}

// Keys returns every name in this dictionary, in insertion order.
func (d *Dictionary) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Module is a named scope of words with an optional parent for lookup
// chaining and named child submodules (spec §4.4, original_source
// module.rs). Unlike the Rust source's Weak parent pointer (needed there to
// avoid an Rc reference cycle), forthen's Module tree is owned top-down by
// *State and Go's GC handles any cycle, so the parent pointer is a plain
// *Module; State still guarantees a parent module outlives its children by
// construction (new_submodule only ever attaches a child to a still-live
// parent).
type Module struct {
	parent     *Module
	dict       *Dictionary
	submodules map[string]*Module
}

// NewModule returns a fresh, parentless module.
func NewModule() *Module {
	return &Module{dict: newDictionary(), submodules: map[string]*Module{}}
}

// NewSubmodule creates an empty child module under name, parented to m.
func (m *Module) NewSubmodule(name string) *Module {
	child := &Module{parent: m, dict: newDictionary(), submodules: map[string]*Module{}}
	m.submodules[name] = child
	return child
}

// Insert adds entry to m's own dictionary (spec §4.4).
func (m *Module) Insert(name string, entry *WordEntry) { m.dict.Insert(name, entry) }

// Lookup searches m, then ancestors (spec §4.4).
func (m *Module) Lookup(name string) (*WordEntry, bool) {
	if e, ok := m.dict.Lookup(name); ok {
		return e, true
	}
	if m.parent != nil {
		return m.parent.Lookup(name)
	}
	return nil, false
}

// LocalLookup searches only m's own dictionary, never ancestors.
func (m *Module) LocalLookup(name string) (*WordEntry, bool) { return m.dict.Lookup(name) }

// Keys returns every visible name: ancestors first, then m's own (spec
// §4.4's snapshot-in-insertion-order contract, applied transitively).
func (m *Module) Keys() []string {
	var keys []string
	if m.parent != nil {
		keys = append(keys, m.parent.Keys()...)
	}
	return append(keys, m.dict.Keys()...)
}

// LocalKeys returns only m's own names, in insertion order.
func (m *Module) LocalKeys() []string { return m.dict.Keys() }
