package gunns

import (
	"errors"
	"fmt"
)

// Domain errors for link construction and fault injection.
var (
	// ErrInitialization indicates invalid configuration or misuse of a
	// one-shot builder, including misuse after the link was built.
	ErrInitialization = errors.New("gunns: initialization error")

	// ErrNumerical indicates a clearly out-of-domain runtime value.
	ErrNumerical = errors.New("gunns: numerical error")

	// ErrOutOfBounds indicates a fault or command target outside the link's channels.
	ErrOutOfBounds = errors.New("gunns: target index out of bounds")

	// ErrUnsupportedFault indicates a fault kind the link does not model.
	ErrUnsupportedFault = errors.New("gunns: unsupported fault kind")

	// ErrNotInitialized indicates a link used before it was built.
	ErrNotInitialized = errors.New("gunns: link not initialized")
)

// LinkError wraps an error with the link and operation that raised it.
type LinkError struct {
	Link    string
	Op      string
	Wrapped error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Link, e.Op, e.Wrapped)
}

func (e *LinkError) Unwrap() error {
	return e.Wrapped
}

// InitError returns an ErrInitialization wrapped with link context.
func InitError(link, op, format string, args ...any) error {
	return &LinkError{
		Link:    link,
		Op:      op,
		Wrapped: fmt.Errorf("%w: %s", ErrInitialization, fmt.Sprintf(format, args...)),
	}
}

// NumericalError returns an ErrNumerical wrapped with link context.
func NumericalError(link, op, format string, args ...any) error {
	return &LinkError{
		Link:    link,
		Op:      op,
		Wrapped: fmt.Errorf("%w: %s", ErrNumerical, fmt.Sprintf(format, args...)),
	}
}
