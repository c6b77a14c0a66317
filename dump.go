package forthen

import (
	"fmt"
	"strings"

	"github.com/forthen-lang/forthen/internal/runeio"
)

// FormatWord implements spec §6's `format_word(state, name)`: a
// human-readable rendering of a word's kind, its stack effect, and (for an
// ordinary word backed by a Quotation) its compiled byte-code, in the
// style of the teacher's dumper.go (original_source's Display impls for
// Entry served the same diagnostic role).
func (st *State) FormatWord(name string) (string, error) {
	entry, ok := st.current.Lookup(name)
	if !ok {
		return "", &UnknownWord{Name: name}
	}
	return formatEntry(entry), nil
}

func formatEntry(entry *WordEntry) string {
	var b strings.Builder
	switch entry.Kind {
	case ParsingWord:
		fmt.Fprintf(&b, "%s : parsing word\n", entry.Name)
	case OrdinaryWord:
		eff := entry.Effect()
		if eff != nil {
			fmt.Fprintf(&b, "%s %s\n", entry.Name, eff.Format())
		} else {
			fmt.Fprintf(&b, "%s : <no effect>\n", entry.Name)
		}
	}
	if q, ok := entry.Callable.(*Quotation); ok {
		fmt.Fprintf(&b, "  %s\n", q.String())
	}
	return b.String()
}

// Dump renders a snapshot of st's value stack, frame stack, and current
// module's local word names, for interactive debugging (teacher's
// vmDumper.dump, generalized from VM memory cells to forthen's stack/
// dictionary shape).
func (st *State) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# forthen state dump\n")
	fmt.Fprintf(&b, "  stack:")
	for _, v := range st.stack {
		b.WriteByte(' ')
		b.WriteString(formatValue(v))
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  frames: %d deep\n", len(st.frames))
	fmt.Fprintf(&b, "  words: %v\n", st.current.LocalKeys())
	return b.String()
}

// formatValue renders a single stack value for Dump. Str values go through
// runeio.WriteANSIString, which writes C1 control runes in their 7-bit ESC
// form and NEL as "\r\n"; C0 control runes and all other runes are written
// unchanged (teacher's dumper.go routes memory cell contents through the
// same writer before printing).
func formatValue(v Value) string {
	if s, ok := v.(Str); ok {
		var b strings.Builder
		b.WriteByte('"')
		runeio.WriteANSIString(&b, string(s))
		b.WriteByte('"')
		return b.String()
	}
	return fmt.Sprintf("%v", v)
}
