package effect

import "strings"

// Format renders e in the same surface syntax Parse accepts, simplifying
// redundant leading row/item pairs first (spec §8; original_source
// stack_effects/element.rs's recursive_display does the same simplify-then-
// render order). A seen set guards against infinite recursion through a
// self-referential quoted effect.
func (e *Effect) Format() string {
	var b strings.Builder
	e.Simplify().format(&b, map[AtomID]bool{})
	return b.String()
}

func (e *Effect) format(b *strings.Builder, seen map[AtomID]bool) {
	b.WriteByte('(')
	formatSeq(b, e, e.Inputs, seen)
	b.WriteString(" --")
	if len(e.Outputs) > 0 {
		b.WriteByte(' ')
	}
	formatSeq(b, e, e.Outputs, seen)
	b.WriteByte(')')
}

func formatSeq(b *strings.Builder, e *Effect, seq Sequence, seen map[AtomID]bool) {
	for i, id := range seq {
		if i > 0 {
			b.WriteByte(' ')
		}
		formatAtom(b, e, id, seen)
	}
}

func formatAtom(b *strings.Builder, e *Effect, id AtomID, seen map[AtomID]bool) {
	a := e.atom(id)
	if a == nil {
		b.WriteString("?")
		return
	}
	switch a.Kind {
	case Row:
		b.WriteString("..")
		b.WriteString(a.Name)
	case Item:
		b.WriteString(a.Name)
	case Quoted:
		b.WriteString(a.Name)
		if a.Quote == nil {
			return
		}
		if seen[id] {
			b.WriteString("(...)")
			return
		}
		seen[id] = true
		a.Quote.format(b, seen)
		delete(seen, id)
	}
}
