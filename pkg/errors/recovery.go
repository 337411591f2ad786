package errors

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic turns a value returned by recover() into an ErrInternal
// carrying the panic value and stack. It returns nil for a nil value.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", r)
	}

	return ErrInternal.
		WithMessage("handler panicked").
		WithCause(cause).
		WithDetail("panic", fmt.Sprint(r)).
		WithDetail("stack_trace", string(debug.Stack()))
}
