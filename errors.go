package forthen

import "fmt"

// The error kinds named by spec §7, each a concrete type carrying the
// fields the spec names for that kind (original_source errors.rs/error.rs
// enumerate the same set as a Rust error_chain; CORE represents each kind
// as its own Go error type instead of one tagged enum, which is the
// idiomatic Go equivalent and lets callers use errors.As per kind).

// EndOfInput reports that the token queue ran out mid-parse.
type EndOfInput struct{}

func (*EndOfInput) Error() string { return "unexpected end of input" }

// UnexpectedDelimiter reports a delimiter token seen where none was
// expected.
type UnexpectedDelimiter struct{ Token string }

func (e *UnexpectedDelimiter) Error() string {
	return fmt.Sprintf("unexpected delimiter: %q", e.Token)
}

// UnknownWord reports a token that resolved to neither a literal nor a
// dictionary entry.
type UnknownWord struct{ Name string }

func (e *UnknownWord) Error() string { return fmt.Sprintf("unknown word: %s", e.Name) }

// AmbiguousWord reports a token that parses both as a literal and as a
// dictionary entry.
type AmbiguousWord struct{ Name string }

func (e *AmbiguousWord) Error() string { return fmt.Sprintf("ambiguous word: %s", e.Name) }

// ExpectedStackEffect reports a callable with no inferred or declared
// stack effect where one was required (inferring the effect of a quotation
// that calls or pushes it).
type ExpectedStackEffect struct{ Detail string }

func (e *ExpectedStackEffect) Error() string {
	return fmt.Sprintf("expected a stack effect: %s", e.Detail)
}

// IncompatibleStackEffects wraps an effect.IncompatibleError as a CORE-level
// error kind (spec §7); effect.Chain/effect.Parse never import this package
// (it's the leaf), so the root package re-surfaces their failures here.
type IncompatibleStackEffects struct{ Cause error }

func (e *IncompatibleStackEffects) Error() string {
	return fmt.Sprintf("incompatible stack effects: %v", e.Cause)
}

func (e *IncompatibleStackEffects) Unwrap() error { return e.Cause }

// StackUnderflow reports an attempt to pop more values than are present.
type StackUnderflow struct{}

func (*StackUnderflow) Error() string { return "stack underflow" }

// TypeError reports a value of the wrong dynamic type.
type TypeError struct{ Detail string }

func (e *TypeError) Error() string { return fmt.Sprintf("type error: %s", e.Detail) }

// OwnershipError reports an attempted in-place mutation of a List or Table
// that is currently shared (spec §5).
type OwnershipError struct{}

func (*OwnershipError) Error() string { return "cannot mutate a shared value" }

// AttributeError reports a missing attribute with no meta-table fallback.
type AttributeError struct{ Detail string }

func (e *AttributeError) Error() string { return fmt.Sprintf("attribute error: %s", e.Detail) }

// IndexError reports an out-of-range list index.
type IndexError struct {
	Index, Len int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range (len %d)", e.Index, e.Len)
}
