// Package effect implements forthen's stack-effect algebra (spec §3, §4.2,
// §4.3): a first-order type-like system over stack shapes with row
// variables, item variables, and quoted-effect items, plus the unifier that
// composes ("chains") two effects. It is a self-contained leaf: it has no
// knowledge of runtime values, opcodes, or the dictionary, so the root
// forthen package depends on it and not the other way around.
package effect

import "github.com/forthen-lang/forthen/internal/arena"

// Kind classifies a stack-effect atom. The ordering of the constants IS the
// specificity ordering from spec §3: Row < Item < Quoted.
type Kind int

const (
	Row Kind = iota
	Item
	Quoted
)

func (k Kind) String() string {
	switch k {
	case Row:
		return "row"
	case Item:
		return "item"
	case Quoted:
		return "quoted"
	default:
		return "?"
	}
}

// moreSpecific reports whether k is strictly more specific than other.
func (k Kind) moreSpecific(other Kind) bool { return k > other }

// AtomID identifies an atom within the arena backing the Effect it belongs
// to. Two atoms with the same name but different IDs are distinct (spec
// §3: "identity separate from name").
type AtomID = uint

// Atom is a single stack-effect element: a row variable, an item variable,
// or a quoted effect. Quote is non-nil only when Kind is Quoted, and is
// itself an Effect sharing the same underlying arena -- which is what lets
// a quoted effect refer to itself (spec §4.4's recursive-quoted-effect
// example, §8 scenario 6).
type Atom struct {
	ID    AtomID
	Kind  Kind
	Name  string
	Quote *Effect
}

// Sequence is an ordered list of atom references, stack top at the end
// (spec §3).
type Sequence []AtomID

func containsID(seq Sequence, id AtomID) bool {
	for _, x := range seq {
		if x == id {
			return true
		}
	}
	return false
}

// newArena returns a fresh atom arena sized for a typical hand-written
// effect expression.
func newArena() *arena.Atoms {
	a := &arena.Atoms{}
	a.PageSize = 16
	return a
}
