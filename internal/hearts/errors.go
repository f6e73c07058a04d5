// internal/hearts/errors.go
package hearts

import (
	"errors"
	"fmt"
)

// RuleError is returned when a player attempts an illegal action. It is always
// recoverable: no state has been mutated and the caller may retry. Msg is
// phrased as the specific rule broken so it can be shown to the player as-is.
type RuleError struct {
	Rule string // stable machine tag, e.g. "follow_suit"
	Msg  string
}

func (e *RuleError) Error() string {
	return e.Msg
}

func ruleErr(rule, format string, args ...interface{}) error {
	return &RuleError{Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// AsRuleError unwraps err into a *RuleError if it is one.
func AsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrInvariant marks corrupted game state. A round that reports an invariant
// violation is aborted rather than allowed to continue silently.
var ErrInvariant = errors.New("game state invariant violated")

func invariantErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// ErrMatchNotFound is returned by the store and handlers for unknown match IDs.
var ErrMatchNotFound = errors.New("match not found")
