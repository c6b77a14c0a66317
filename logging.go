package forthen

import (
	"fmt"
	"strings"
)

// Mark prefixes used by State's trace logging (mirrors the teacher's core.go
// logging mixin, generalized from opcode-execution-only marks to cover
// tokenizing, chaining, and halting too -- see SPEC_FULL.md's AMBIENT STACK
// logging section).
const (
	markToken = "."
	markChain = "~"
	markEval  = ">"
	markHalt  = "#"
)

// logging is copied from the teacher's core.go mixin: logfn is nil by
// default (logging is opt-in via WithLogf), and logf left-pads mark to the
// widest mark seen so far for column alignment across a trace session.
type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() { log.logfn = logfn }
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
