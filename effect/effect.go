package effect

import "github.com/forthen-lang/forthen/internal/arena"

// Effect is a stack effect: a named, ordered set of inputs consumed and
// outputs produced, threaded through an arena that gives every atom in the
// tree a stable identity (spec §3). Quoted atoms nested anywhere in Inputs
// or Outputs hold their own *Effect sharing the same arena.
type Effect struct {
	atoms   *arena.Atoms
	Inputs  Sequence
	Outputs Sequence
}

// newEffect allocates an Effect backed by atoms.
func newEffect(atoms *arena.Atoms) *Effect {
	return &Effect{atoms: atoms}
}

// New builds an Effect directly from already-allocated atom IDs, for callers
// (tests, the compiler) that construct effects programmatically rather than
// by parsing text.
func New(atoms *arena.Atoms, inputs, outputs Sequence) *Effect {
	return &Effect{atoms: atoms, Inputs: inputs, Outputs: outputs}
}

func (e *Effect) atom(id AtomID) *Atom {
	a, _ := e.atoms.Get(id).(*Atom)
	return a
}

// alloc allocates a fresh atom of the given kind/name within e's arena.
func (e *Effect) alloc(kind Kind, name string) AtomID {
	a := &Atom{Kind: kind, Name: name}
	id := e.atoms.Alloc(a)
	a.ID = id
	return id
}

// AtomAt exposes the atom at id for diagnostics and testing.
func (e *Effect) AtomAt(id AtomID) Atom {
	if a := e.atom(id); a != nil {
		return *a
	}
	return Atom{}
}

// Simplify returns a copy of e with leading identical input/output atoms
// trimmed, repeatedly, so long as the atom being trimmed from the inputs
// does not reoccur later in the outputs (spec §8 "Simplification"). It does
// not mutate e; Equivalent and Format both call it so that e.g. a chain
// result equivalent to the identity effect compares equal to parse("( -- )")
// regardless of how many redundant row/item pairs the unifier carried
// through.
func (e *Effect) Simplify() *Effect {
	ins, outs := e.Inputs, e.Outputs
	for len(ins) > 0 && len(outs) > 0 {
		a, b := ins[0], outs[0]
		if a != b {
			break
		}
		again := false
		for _, o := range outs[1:] {
			if o == b {
				again = true
				break
			}
		}
		if again {
			break
		}
		ins = ins[1:]
		outs = outs[1:]
	}
	return &Effect{atoms: e.atoms, Inputs: ins, Outputs: outs}
}

// Equivalent reports whether e and o describe the same stack shape up to
// consistent renaming of atoms (spec §8 "Equivalence"): a position-wise
// bijection between their (simplified) atoms that respects Kind and, for
// quoted atoms, recurses into their inner effects.
func (e *Effect) Equivalent(o *Effect) bool {
	a, b := e.Simplify(), o.Simplify()
	mapping := map[AtomID]AtomID{}
	rev := map[AtomID]AtomID{}
	return equivalentSeq(a.Inputs, b.Inputs, a, b, mapping, rev) &&
		equivalentSeq(a.Outputs, b.Outputs, a, b, mapping, rev)
}

func equivalentSeq(a, b Sequence, ea, eb *Effect, mapping, rev map[AtomID]AtomID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equivalentAtom(a[i], b[i], ea, eb, mapping, rev) {
			return false
		}
	}
	return true
}

func equivalentAtom(aid, bid AtomID, ea, eb *Effect, mapping, rev map[AtomID]AtomID) bool {
	if m, ok := mapping[aid]; ok {
		return m == bid
	}
	if m, ok := rev[bid]; ok {
		return m == aid
	}
	av, bv := ea.atom(aid), eb.atom(bid)
	if av == nil || bv == nil || av.Kind != bv.Kind {
		return false
	}
	mapping[aid] = bid
	rev[bid] = aid
	if av.Kind == Quoted {
		if av.Quote == nil || bv.Quote == nil {
			return av.Quote == bv.Quote
		}
		if !equivalentSeq(av.Quote.Inputs, bv.Quote.Inputs, av.Quote, bv.Quote, mapping, rev) {
			return false
		}
		if !equivalentSeq(av.Quote.Outputs, bv.Quote.Outputs, av.Quote, bv.Quote, mapping, rev) {
			return false
		}
	}
	return true
}

// PushQuoted builds the effect of pushing a single quoted item named name
// whose own signature is inner: "( -- name(inner))" (spec §4.5 "Push(quotation)
// yields the effect push one quoted item with that quotation's effect").
// inner is deep-copied into a fresh arena so the result is fully
// self-contained, independent of whatever arena inner came from.
func PushQuoted(name string, inner *Effect) *Effect {
	atoms := newArena()
	rowAtom := &Atom{Kind: Row, Name: "_"}
	rowID := atoms.Alloc(rowAtom)
	rowAtom.ID = rowID

	q := renameInto(atoms, inner, "", map[string]bool{}, map[AtomID]AtomID{})

	qAtom := &Atom{Kind: Quoted, Name: name, Quote: q}
	qID := atoms.Alloc(qAtom)
	qAtom.ID = qID

	return &Effect{atoms: atoms, Inputs: Sequence{rowID}, Outputs: Sequence{rowID, qID}}
}

// Parse parses a stack-effect expression such as "(a b -- b a)" or
// "(..a f(..a -- ..b) -- ..b)" (spec §4.2) into a self-contained Effect
// backed by a fresh arena.
func Parse(src string) (*Effect, error) {
	return parse(src)
}
