package effect

import "fmt"

// ParseError reports a malformed stack-effect expression (spec §4.2).
type ParseError struct {
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stack effect parse error at %d: %s", e.Pos, e.Reason)
}

// IncompatibleError reports that two effects could not be chained (spec
// §4.3, §7 IncompatibleStackEffects). Left and Right are the two operand
// effects exactly as passed to Chain, for diagnostic formatting by the
// caller.
type IncompatibleError struct {
	Left, Right *Effect
	Reason      string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("incompatible stack effects: %s", e.Reason)
}
