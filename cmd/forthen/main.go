// Command forthen is a batch script host for the CORE interpreter -- not a
// REPL (the REPL front-end is explicitly out of CORE scope, spec §1): it
// reads one or more source files (or stdin), runs them to completion
// against a single *forthen.State, and reports any error. Structured the
// way the teacher's main.go drives its VM: flag-configured trace logging
// through internal/logio, an optional wall-clock timeout via
// context.WithTimeout, and a final dump on request.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/forthen-lang/forthen"
	"github.com/forthen-lang/forthen/internal/fileinput"
	"github.com/forthen-lang/forthen/internal/logio"
)

func main() {
	var (
		opLimit int
		timeout time.Duration
		trace   bool
		dump    bool
	)
	flag.IntVar(&opLimit, "op-limit", 0, "cap the number of opcodes a run may execute")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.BoolVar(&dump, "dump", false, "print a state dump after execution")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	in := fileinput.Input{Queue: openSources(flag.Args())}
	source, err := in.ReadAll()
	log.ErrorIf(err)
	if err != nil {
		return
	}

	var opts []forthen.Option
	opts = append(opts, forthen.WithOutput(os.Stdout))
	opts = append(opts, forthen.WithOpLimit(opLimit))
	if trace {
		opts = append(opts, forthen.WithLogf(log.Leveledf("TRACE")))
	}
	st := forthen.New(opts...)
	defer st.Close()

	if dump {
		lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
		defer lw.Close()
		defer func() { io.WriteString(lw, st.Dump()) }()
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.ErrorIf(st.Run(ctx, source))
}

func openSources(paths []string) []io.Reader {
	if len(paths) == 0 {
		return []io.Reader{os.Stdin}
	}
	readers := make([]io.Reader, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			readers = append(readers, erroringReader{err})
			continue
		}
		readers = append(readers, f)
	}
	return readers
}

// erroringReader lets a failed os.Open surface through fileinput.Input's
// normal read path (as the first error ReadRune sees) instead of needing a
// separate error-collection pass in main.
type erroringReader struct{ err error }

func (r erroringReader) Read([]byte) (int, error) { return 0, r.err }
