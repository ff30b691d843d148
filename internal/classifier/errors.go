package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifier marks every failure surfaced by the Gateway.
	ErrClassifier = errors.New("classifier error")
	// ErrOutOfDomain marks a categorical answer outside its label domain.
	ErrOutOfDomain = errors.New("answer outside label domain")
	// ErrEmptyResponse marks a blank completion.
	ErrEmptyResponse = errors.New("empty classifier response")
)

// Error is returned by every Gateway operation that fails.
type Error struct {
	Op     string
	Answer string
	Err    error
}

func (e *Error) Error() string {
	if e.Answer != "" {
		return fmt.Sprintf("classifier %s: %v (answer %q)", e.Op, e.Err, truncate(e.Answer, 60))
	}
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrClassifier) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrClassifier
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
