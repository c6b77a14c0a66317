// Package panicerr turns an abnormal goroutine exit -- a panic or a
// runtime.Goexit -- into a plain error value, so that callers like
// State.Run never have to deal with anything but a normal error return.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Recover runs f in its own goroutine and converts any panic or
// runtime.Goexit into a non-nil error return, tagging it with name for
// diagnostics (typically the outermost operation being guarded, e.g.
// "run" for State.Run).
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExit(name, errch)
		defer recoverPanic(name, errch)
		errch <- f()
	}()
	return <-errch
}

func recoverExit(name string, errch chan<- error) {
	select {
	case errch <- exitError(name):
	default:
		// the happy path already sent a (maybe nil) result
	}
}

func recoverPanic(name string, errch chan<- error) {
	if cause := recover(); cause != nil {
		pe := panicError{name: name, cause: cause, stack: debug.Stack()}
		select {
		case errch <- pe:
		default:
		}
	}
}

// exitError indicates that the guarded goroutine returned via
// runtime.Goexit rather than a normal return.
type exitError string

func (name exitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

// IsExit returns true if err indicates a recovered goroutine exit.
func IsExit(err error) bool {
	var xe exitError
	return errors.As(err, &xe)
}

// panicError wraps a recovered panic value along with the stack at the
// point of the panic and the name of the guarded operation.
type panicError struct {
	name  string
	cause interface{}
	stack []byte
}

func (pe panicError) Error() string { return fmt.Sprint(pe) }

func (pe panicError) Format(f fmt.State, c rune) {
	if pe.name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.cause)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.name, pe.cause)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.stack)
	}
}

func (pe panicError) Unwrap() error {
	err, _ := pe.cause.(error)
	return err
}

// IsPanic returns true if err indicates a recovered goroutine panic.
func IsPanic(err error) bool {
	var pe panicError
	return errors.As(err, &pe)
}

// PanicStack returns a non-empty stack trace string if err is a recovered
// goroutine panic.
func PanicStack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return ""
}
