package effect

import (
	"fmt"

	"github.com/forthen-lang/forthen/internal/arena"
)

// env is the substitution environment built up over a single chain
// operation (spec §3 "Substitution environment", §4.3). Every stored
// binding is kept fully resolved: on each insert, every existing binding's
// right-hand side has the new substitution applied to it, so a lookup never
// needs to recurse.
type env struct {
	atoms   *arena.Atoms
	bound   map[AtomID]Sequence
	visited map[[2]AtomID]bool // in-progress quoted-effect unification pairs
}

func newEnv(atoms *arena.Atoms) *env {
	return &env{atoms: atoms, bound: map[AtomID]Sequence{}, visited: map[[2]AtomID]bool{}}
}

func (en *env) atom(id AtomID) *Atom {
	a, _ := en.atoms.Get(id).(*Atom)
	return a
}

// resolveOne expands a single atom reference through the environment,
// returning it unchanged (as a length-1 sequence) if unbound.
func (en *env) resolveOne(id AtomID) Sequence {
	if seq, ok := en.bound[id]; ok {
		return seq
	}
	return Sequence{id}
}

func (en *env) resolveSeq(seq Sequence) Sequence {
	var out Sequence
	for _, id := range seq {
		out = append(out, en.resolveOne(id)...)
	}
	return out
}

// insert binds id to seq, enforcing the occurs check and self-substitution
// suppression from spec §3: a binding a -> [a] (exactly itself) is a silent
// no-op, but a appearing anywhere inside a longer/different seq is a cycle
// and fails. Every other stored binding is rewritten to apply the new
// substitution, keeping the "always fully resolved" invariant.
func (en *env) insert(id AtomID, seq Sequence) error {
	if len(seq) == 1 && seq[0] == id {
		return nil
	}
	if containsID(seq, id) {
		return &IncompatibleError{Reason: fmt.Sprintf("cyclic substitution through %s", en.nameOf(id))}
	}
	en.bound[id] = seq
	for k, v := range en.bound {
		if k == id {
			continue
		}
		en.bound[k] = substituteSeq(v, id, seq)
	}
	if en.hasCycle() {
		return &IncompatibleError{Reason: "cyclic substitution"}
	}
	return nil
}

func (en *env) nameOf(id AtomID) string {
	if a := en.atom(id); a != nil {
		return a.Name
	}
	return "?"
}

func substituteSeq(seq Sequence, id AtomID, repl Sequence) Sequence {
	var out Sequence
	changed := false
	for _, x := range seq {
		if x == id {
			out = append(out, repl...)
			changed = true
		} else {
			out = append(out, x)
		}
	}
	if !changed {
		return seq
	}
	return out
}

// hasCycle walks every binding's reachable set looking for a binding that
// (transitively, through other bindings) references itself. Bindings are
// kept fully resolved on insert, so in practice a fresh cycle can only be
// introduced by the insert that just ran; this is a direct safety net
// mirroring spec §3's "cycles are detected by a reachability check".
func (en *env) hasCycle() bool {
	for id := range en.bound {
		seen := map[AtomID]bool{id: true}
		if en.reaches(id, seen) {
			return true
		}
	}
	return false
}

func (en *env) reaches(id AtomID, seen map[AtomID]bool) bool {
	seq, ok := en.bound[id]
	if !ok {
		return false
	}
	for _, x := range seq {
		if x == id {
			continue
		}
		if seen[x] {
			return true
		}
		seen[x] = true
		if en.reaches(x, seen) {
			return true
		}
		delete(seen, x)
	}
	return false
}

// abstractStack simulates the evolving stack shape while folding a sequence
// of effects into one, directly modelled on original_source
// stack_effects/astack.rs's AbstractStack: inputs accumulates the
// effect-so-far's required inputs (a fresh row at position 0, plus any item
// popped past the bottom), outputs is the current known top-of-stack
// contents.
type abstractStack struct {
	env     *env
	atoms   *arena.Atoms
	inputs  Sequence
	outputs Sequence
}

func newAbstractStack(atoms *arena.Atoms) *abstractStack {
	a := &Atom{Kind: Row, Name: "_"}
	id := atoms.Alloc(a)
	a.ID = id
	row := Sequence{id}
	return &abstractStack{env: newEnv(atoms), atoms: atoms, inputs: row, outputs: row}
}

func (as *abstractStack) atom(id AtomID) *Atom {
	a, _ := as.atoms.Get(id).(*Atom)
	return a
}

// applyEffect threads e's inputs (popped right to left) and outputs (pushed
// left to right) through the current abstract stack state (spec §4.3 steps
// 2-3).
func (as *abstractStack) applyEffect(e *Effect) error {
	for i := len(e.Inputs) - 1; i >= 0; i-- {
		if err := as.pop(e.Inputs[i]); err != nil {
			return err
		}
	}
	for _, id := range e.Outputs {
		as.push(id)
	}
	return nil
}

func (as *abstractStack) push(id AtomID) {
	resolved := as.env.resolveOne(id)
	as.outputs = append(as.outputs, resolved...)
}

func (as *abstractStack) pop(id AtomID) error {
	atom := as.atom(id)
	if atom.Kind == Row {
		seq := as.outputs
		as.outputs = nil
		return as.bind(id, seq)
	}
	if len(as.outputs) == 0 {
		return &IncompatibleError{Reason: "stack underflow during chain"}
	}
	top := as.outputs[len(as.outputs)-1]
	topAtom := as.atom(top)
	if topAtom.Kind == Row {
		// Bottom reached: id becomes a newly required input, inserted right
		// after the leading row.
		as.inputs = insertAfterFirst(as.inputs, id)
		return nil
	}
	as.outputs = as.outputs[:len(as.outputs)-1]
	return as.unifyAtoms(top, id)
}

func insertAfterFirst(seq Sequence, id AtomID) Sequence {
	if len(seq) == 0 {
		return Sequence{id}
	}
	out := make(Sequence, 0, len(seq)+1)
	out = append(out, seq[0])
	out = append(out, id)
	out = append(out, seq[1:]...)
	return out
}

func (as *abstractStack) bind(id AtomID, seq Sequence) error {
	if existing, ok := as.env.bound[id]; ok {
		return as.unifySeqPositional(existing, as.env.resolveSeq(seq))
	}
	return as.env.insert(id, as.env.resolveSeq(seq))
}

// unifyAtoms decides which of two meeting atoms becomes the representative
// per the specificity ordering (row < item < quoted, spec §3); ties prefer
// the existing (producer/left) atom as representative. Quoted atoms also
// unify their inner effects before either is bound to the other.
func (as *abstractStack) unifyAtoms(existing, incoming AtomID) error {
	ea, ia := as.atom(existing), as.atom(incoming)
	if ea.Kind == Quoted && ia.Kind == Quoted {
		if err := as.unifyQuoted(existing, incoming); err != nil {
			return err
		}
		return as.bindAtomToAtom(incoming, existing)
	}
	if ea.Kind == ia.Kind {
		return as.bindAtomToAtom(incoming, existing)
	}
	if ia.Kind.moreSpecific(ea.Kind) {
		return as.bindAtomToAtom(existing, incoming)
	}
	return as.bindAtomToAtom(incoming, existing)
}

func (as *abstractStack) bindAtomToAtom(loser, winner AtomID) error {
	if existing, ok := as.env.bound[loser]; ok {
		return as.unifySeqPositional(existing, Sequence{winner})
	}
	return as.env.insert(loser, Sequence{winner})
}

// unifyQuoted unifies two quoted atoms' inner effects position-wise (spec
// §4.3 "quoted-effect unification"): their Inputs sequences must agree in
// length and kind position-by-position, and likewise for Outputs. A pair
// already being unified (a self-referential quoted effect meeting itself,
// spec §8 scenario 6) short-circuits to success.
func (as *abstractStack) unifyQuoted(a, b AtomID) error {
	key := pairKey(a, b)
	if as.env.visited[key] {
		return nil
	}
	as.env.visited[key] = true
	defer delete(as.env.visited, key)

	av, bv := as.atom(a), as.atom(b)
	if av.Quote == nil || bv.Quote == nil {
		if av.Quote == bv.Quote {
			return nil
		}
		return &IncompatibleError{Reason: "quoted effect missing inner signature"}
	}
	if err := as.unifySeqPositional(av.Quote.Inputs, bv.Quote.Inputs); err != nil {
		return err
	}
	return as.unifySeqPositional(av.Quote.Outputs, bv.Quote.Outputs)
}

func pairKey(a, b AtomID) [2]AtomID {
	if a < b {
		return [2]AtomID{a, b}
	}
	return [2]AtomID{b, a}
}

func (as *abstractStack) unifySeqPositional(a, b Sequence) error {
	if len(a) != len(b) {
		return &IncompatibleError{Reason: fmt.Sprintf("arity mismatch: %d vs %d", len(a), len(b))}
	}
	for i := range a {
		if err := as.unifyAtoms(a[i], b[i]); err != nil {
			return err
		}
	}
	return nil
}

// Chain composes l then r into a single effect (spec §4.3): l's atoms and
// r's atoms are renamed into a shared fresh arena (colliding names get a
// diagnostic suffix), then threaded through an abstractStack simulation,
// and finally materialized into a brand new, fully self-contained Effect so
// that no reference to the chain-local environment survives the call (spec
// §3 "Substitutions are local to a single chain operation").
func Chain(l, r *Effect) (*Effect, error) {
	lNames, rNames := map[string]bool{}, map[string]bool{}
	collectNames(l, map[AtomID]bool{}, lNames)
	collectNames(r, map[AtomID]bool{}, rNames)
	collisions := map[string]bool{}
	for n := range lNames {
		if rNames[n] {
			collisions[n] = true
		}
	}

	shared := newArena()
	l2 := renameInto(shared, l, "0", collisions, map[AtomID]AtomID{})
	r2 := renameInto(shared, r, "1", collisions, map[AtomID]AtomID{})

	as := newAbstractStack(shared)
	if err := as.applyEffect(l2); err != nil {
		return nil, annotate(err, l, r)
	}
	if err := as.applyEffect(r2); err != nil {
		return nil, annotate(err, l, r)
	}

	resultAtoms := newArena()
	copied := map[AtomID]AtomID{}
	resIn := materializeSeq(as.env, resultAtoms, as.inputs, copied)
	resOut := materializeSeq(as.env, resultAtoms, as.outputs, copied)
	return &Effect{atoms: resultAtoms, Inputs: resIn, Outputs: resOut}, nil
}

func annotate(err error, l, r *Effect) error {
	if incompat, ok := err.(*IncompatibleError); ok {
		incompat.Left, incompat.Right = l, r
	}
	return err
}

func collectNames(e *Effect, visited map[AtomID]bool, out map[string]bool) {
	collectSeqNames(e, e.Inputs, visited, out)
	collectSeqNames(e, e.Outputs, visited, out)
}

func collectSeqNames(e *Effect, seq Sequence, visited map[AtomID]bool, out map[string]bool) {
	for _, id := range seq {
		if visited[id] {
			continue
		}
		visited[id] = true
		a := e.atom(id)
		out[a.Name] = true
		if a.Kind == Quoted && a.Quote != nil {
			collectNames(a.Quote, visited, out)
		}
	}
}

func renameInto(dst *arena.Atoms, src *Effect, suffix string, collisions map[string]bool, copied map[AtomID]AtomID) *Effect {
	out := &Effect{atoms: dst}
	out.Inputs = renameSeq(dst, src, src.Inputs, suffix, collisions, copied)
	out.Outputs = renameSeq(dst, src, src.Outputs, suffix, collisions, copied)
	return out
}

func renameSeq(dst *arena.Atoms, srcEffect *Effect, seq Sequence, suffix string, collisions map[string]bool, copied map[AtomID]AtomID) Sequence {
	out := make(Sequence, len(seq))
	for i, id := range seq {
		out[i] = renameAtom(dst, srcEffect, id, suffix, collisions, copied)
	}
	return out
}

func renameAtom(dst *arena.Atoms, srcEffect *Effect, id AtomID, suffix string, collisions map[string]bool, copied map[AtomID]AtomID) AtomID {
	if nid, ok := copied[id]; ok {
		return nid
	}
	src := srcEffect.atom(id)
	name := src.Name
	if collisions[name] {
		name += suffix
	}
	a := &Atom{Kind: src.Kind, Name: name}
	nid := dst.Alloc(a)
	a.ID = nid
	copied[id] = nid
	if src.Kind == Quoted && src.Quote != nil {
		inner := &Effect{atoms: dst}
		inner.Inputs = renameSeq(dst, src.Quote, src.Quote.Inputs, suffix, collisions, copied)
		inner.Outputs = renameSeq(dst, src.Quote, src.Quote.Outputs, suffix, collisions, copied)
		a.Quote = inner
	}
	return nid
}

// materializeSeq expands every id in seq through env's bindings (flattening
// bound rows) and copies every free atom it bottoms out at into dst,
// including recursively copying quoted atoms' inner effects. copied
// short-circuits repeats, which is what makes a self-referential quoted
// effect (spec §8 scenario 6) terminate instead of looping forever.
func materializeSeq(en *env, dst *arena.Atoms, seq Sequence, copied map[AtomID]AtomID) Sequence {
	var out Sequence
	for _, id := range seq {
		out = append(out, materializeAtom(en, dst, id, copied)...)
	}
	return out
}

func materializeAtom(en *env, dst *arena.Atoms, id AtomID, copied map[AtomID]AtomID) Sequence {
	if bound, ok := en.bound[id]; ok {
		return materializeSeq(en, dst, bound, copied)
	}
	if nid, ok := copied[id]; ok {
		return Sequence{nid}
	}
	src := en.atom(id)
	a := &Atom{Kind: src.Kind, Name: src.Name}
	nid := dst.Alloc(a)
	a.ID = nid
	copied[id] = nid
	if src.Kind == Quoted && src.Quote != nil {
		inner := &Effect{atoms: dst}
		inner.Inputs = materializeSeq(en, dst, src.Quote.Inputs, copied)
		inner.Outputs = materializeSeq(en, dst, src.Quote.Outputs, copied)
		a.Quote = inner
	}
	return Sequence{nid}
}
