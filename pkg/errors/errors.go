package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidData        = NewError("invalid_data", "invalid message", http.StatusBadRequest)
	ErrUnauthorized       = NewError("unauthorized", "invalid or expired credentials", http.StatusUnauthorized)
	ErrForbidden          = NewError("forbidden", "forbidden", http.StatusForbidden)
	ErrTooManyRequests    = NewError("rate_limited", "too many requests", http.StatusTooManyRequests)
	ErrInternal           = NewError("server_error", "internal server error", http.StatusInternalServerError)
	ErrServiceUnavailable = NewError("service_unavailable", "service unavailable", http.StatusServiceUnavailable)
)

// Error is an application error with a stable code that is safe to show to
// clients. Cause is never exposed to them.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithMessage(message string) *Error {
	err := *e
	err.Message = message
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	err.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		err.Details[k] = v
	}
	err.Details[key] = value
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

// As returns err as an *Error, wrapping unknown errors in ErrInternal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

func ToHTTPStatus(err error) int {
	return As(err).Status
}

// ToErrorResponse is the JSON body for HTTP error responses.
func ToErrorResponse(err error) map[string]interface{} {
	appErr := As(err)

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}
	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}
	return response
}
