// Command gen_goldens regenerates testdata/goldens.json: for each of spec
// §8's named concrete scenarios, it runs the scenario's source against a
// fresh *forthen.State and records the resulting value-stack top (or the
// error kind, for the negative scenarios), concurrently across an
// errgroup.Group bounded by a wall-clock context.Context -- the forthen
// analogue of the teacher's scripts/gen_vm_expects.go, which shells out to
// goimports under the same errgroup/context pattern. state_test.go's
// TestGoldens reads the generated file back and re-runs every scenario,
// asserting the recorded outcome still holds.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"github.com/forthen-lang/forthen"
)

// golden is one recorded scenario outcome (spec §8 "Concrete scenarios").
type golden struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	// Top is the decimal rendering of the top-of-stack Int after a
	// successful run, or "" if the scenario is expected to fail.
	Top string `json:"top,omitempty"`
	// WantErr, when true, records that Run must return a non-nil error
	// (the negative-test scenarios in spec §8).
	WantErr bool `json:"wantErr,omitempty"`
}

// scenarios mirrors spec §8's "End-to-end evaluation" and negative-test
// sources that exercise the whole compile/execute pump, not just the
// effect algebra (those are covered directly in effect_test.go instead).
// "square" and "scoped-add" use dup/swap/+/* as a test harness would: those
// words are standard-library surface (spec §1 Non-goals), so registerStdlib
// below installs them through the same AddNativeWord host interface a real
// stdlib package would use, rather than CORE shipping them itself.
var scenarios = []golden{
	{Name: "square", Source: `: sq ( n -- n2 ) dup * ; 5 sq`},
	{Name: "scoped-add", Source: `:: add3 ( a b c -- sum ) set c set b set a get a get b + get c + ; 1 2 3 add3`},
	{Name: "unknown-word", Source: `frobnicate`, WantErr: true},
	{Name: "unterminated-definition", Source: `: oops dup *`, WantErr: true},
}

// registerStdlib installs the minimal word set the scenarios above need,
// using only the host interface CORE exposes (spec §6 add_native_word):
// dup/drop/swap for stack shuffling, and the four arithmetic operators
// wired straight to arith.go's dispatch functions. A real stdlib package
// would do the same thing at a much larger scale.
func registerStdlib(st *forthen.State) {
	must := func(name, eff string, fn func(*forthen.State) error) {
		if err := st.AddNativeWord(name, eff, fn); err != nil {
			panic(fmt.Sprintf("gen_goldens: registering %s: %v", name, err))
		}
	}
	must("dup", "(x -- x x)", func(st *forthen.State) error {
		v, err := st.Pop()
		if err != nil {
			return err
		}
		if err := st.Push(v); err != nil {
			return err
		}
		return st.Push(v)
	})
	must("swap", "(a b -- b a)", func(st *forthen.State) error {
		b, err := st.Pop()
		if err != nil {
			return err
		}
		a, err := st.Pop()
		if err != nil {
			return err
		}
		if err := st.Push(b); err != nil {
			return err
		}
		return st.Push(a)
	})
	binOp := func(name string, op func(*forthen.State, forthen.Value, forthen.Value) (forthen.Value, error)) {
		must(name, "(a b -- c)", func(st *forthen.State) error {
			b, err := st.Pop()
			if err != nil {
				return err
			}
			a, err := st.Pop()
			if err != nil {
				return err
			}
			c, err := op(st, a, b)
			if err != nil {
				return err
			}
			return st.Push(c)
		})
	}
	binOp("+", forthen.Add)
	binOp("-", forthen.Sub)
	binOp("*", forthen.Mul)
	binOp("/", forthen.Div)
}

var (
	outPath = flag.String("out", "testdata/goldens.json", "path to write the generated golden fixture")
	timeout = flag.Duration("timeout", 5*time.Second, "wall-clock budget for regenerating all goldens")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	results := make([]golden, len(scenarios))

	for i, sc := range scenarios {
		i, sc := i, sc
		eg.Go(func() error {
			return runScenario(ctx, sc, &results[i])
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	return os.WriteFile(*outPath, buf.Bytes(), 0o644)
}

func runScenario(ctx context.Context, sc golden, out *golden) error {
	st := forthen.New()
	defer st.Close()
	registerStdlib(st)

	err := st.Run(ctx, sc.Source)
	*out = golden{Name: sc.Name, Source: sc.Source, WantErr: sc.WantErr}

	switch {
	case sc.WantErr:
		if err == nil {
			return fmt.Errorf("scenario %s: expected an error, got none", sc.Name)
		}
	case err != nil:
		return fmt.Errorf("scenario %s: %w", sc.Name, err)
	default:
		top, terr := st.Top()
		if terr != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, terr)
		}
		n, ok := top.(forthen.Int)
		if !ok {
			return fmt.Errorf("scenario %s: top of stack is %s, not an int", sc.Name, top.Kind())
		}
		out.Top = fmt.Sprintf("%d", int32(n))
	}
	return nil
}
