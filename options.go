package forthen

import (
	"io"

	"github.com/forthen-lang/forthen/internal/flushio"
)

// Option configures a *State at construction (spec §6 "new_state"),
// following the teacher's VMOption flattening/noption pattern in
// options.go verbatim so that Options(a, Options(b, c)) == Options(a, b, c)
// and a nil Option is a safe no-op.
type Option interface{ apply(st *State) }

// Options flattens opts into a single Option, exactly as the teacher's
// VMOptions does.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*State) {}

type options []Option

func (opts options) apply(st *State) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(st)
		}
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(st *State) { st.logfn = logfn }

// WithLogf installs a leveled logging function (cmd/forthen passes it an
// internal/logio.Logger.Leveledf).
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

type outputOption struct{ io.Writer }

func withOutput(w io.Writer) outputOption { return outputOption{w} }

// WithOutput sets the writer the interpreter's output primitives (a future
// stdlib `.` / `print` native word) flush to. It is buffered through
// internal/flushio exactly as the teacher's Core.out.
func WithOutput(w io.Writer) Option { return withOutput(w) }

func (o outputOption) apply(st *State) {
	if st.out != nil {
		st.out.Flush()
	}
	st.out = flushio.NewWriteFlusher(o.Writer)
}

type opLimitOption int

func (n opLimitOption) apply(st *State) { st.opLimit = int(n) }

// WithOpLimit caps the number of opcodes a single Run may execute before
// failing, the CORE-level analogue of a host wall-clock guard (spec §5
// "Cancellation / timeouts... a host embedding may wrap the evaluator and
// enforce... opcode-count limits externally" -- CORE exposes the counter,
// the host chooses the limit).
func WithOpLimit(n int) Option { return opLimitOption(n) }

type effectCacheOption bool

func (b effectCacheOption) apply(st *State) { st.effectCache = bool(b) }

// WithEffectCache sets State's effect-cache flag (default on). Nothing reads
// the flag: the compiler always stores a Quotation's inferred effect on the
// Quotation, whichever way the flag is set.
func WithEffectCache(enabled bool) Option { return effectCacheOption(enabled) }
