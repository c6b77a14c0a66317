package effect

import (
	"strings"

	"github.com/forthen-lang/forthen/token"
)

// parser walks a token stream produced by the token package, threading a
// single scratchpad (name -> AtomID) through every nesting level so that a
// row or quoted-effect name reused inside a nested quotation resolves to
// the exact same atom as its outer occurrence (original_source
// stack_effects/scratchpad.rs; spec §4.2, §8 scenario 6).
type parser struct {
	toks    []token.Token
	i       int
	scratch map[string]AtomID
	effect  *Effect
}

func parse(src string) (*Effect, error) {
	toks := token.All(src)
	if len(toks) == 0 || toks[0].Kind != token.Paren || toks[0].Text != "(" {
		return nil, &ParseError{0, "expected stack effect to start with '('"}
	}
	e := newEffect(newArena())
	p := &parser{toks: toks, i: 1, scratch: map[string]AtomID{}, effect: e}

	ins, err := p.parseSequence("--")
	if err != nil {
		return nil, err
	}
	outs, err := p.parseSequence(")")
	if err != nil {
		return nil, err
	}
	e.Inputs, e.Outputs = ins, outs
	normalizeHeadRow(e)
	return e, nil
}

func (p *parser) pos() int {
	if p.i < len(p.toks) {
		return p.toks[p.i].Offset
	}
	if len(p.toks) > 0 {
		last := p.toks[len(p.toks)-1]
		return last.Offset + len(last.Text)
	}
	return 0
}

func (p *parser) parseSequence(terminator string) (Sequence, error) {
	var seq Sequence
	for {
		if p.i >= len(p.toks) {
			return nil, &ParseError{p.pos(), "unexpected end of input, expected " + terminator}
		}
		tok := p.toks[p.i]
		if tok.Kind != token.String && tok.Text == terminator {
			p.i++
			return seq, nil
		}
		p.i++

		var id AtomID
		switch {
		case strings.HasPrefix(tok.Text, ".."):
			name := strings.TrimPrefix(tok.Text, "..")
			if name == "" {
				return nil, &ParseError{tok.Offset, "row variable missing a name"}
			}
			id = p.resolveOrCreate(name, Row)

		case p.i < len(p.toks) && p.toks[p.i].Kind == token.Paren && p.toks[p.i].Text == "(":
			id = p.beginQuoted(tok.Text)
			p.i++ // consume "("
			inner, err := p.parseInnerEffect()
			if err != nil {
				return nil, err
			}
			p.effect.atom(id).Quote = inner

		default:
			id = p.resolveOrCreate(tok.Text, Item)
		}
		seq = append(seq, id)
	}
}

func (p *parser) parseInnerEffect() (*Effect, error) {
	inner := newEffect(p.effect.atoms)
	ins, err := p.parseSequence("--")
	if err != nil {
		return nil, err
	}
	outs, err := p.parseSequence(")")
	if err != nil {
		return nil, err
	}
	inner.Inputs, inner.Outputs = ins, outs
	normalizeHeadRow(inner)
	return inner, nil
}

func (p *parser) resolveOrCreate(name string, kind Kind) AtomID {
	if id, ok := p.scratch[name]; ok {
		return id
	}
	id := p.effect.alloc(kind, name)
	p.scratch[name] = id
	return id
}

func (p *parser) beginQuoted(name string) AtomID {
	if id, ok := p.scratch[name]; ok {
		return id
	}
	id := p.effect.alloc(Quoted, name)
	p.scratch[name] = id
	return id
}

// normalizeHeadRow inserts a fresh row at position 0 of both Inputs and
// Outputs if neither already starts with a row (spec §3's "an effect always
// has a row at position 0 of both sides" invariant, established at parse
// time; original_source stack_effects/parser.rs does the same check before
// returning).
func normalizeHeadRow(e *Effect) {
	insRow := len(e.Inputs) > 0 && e.atom(e.Inputs[0]).Kind == Row
	outsRow := len(e.Outputs) > 0 && e.atom(e.Outputs[0]).Kind == Row
	if insRow || outsRow {
		return
	}
	id := e.alloc(Row, "_")
	e.Inputs = append(Sequence{id}, e.Inputs...)
	e.Outputs = append(Sequence{id}, e.Outputs...)
}
