package apperrors

import "fmt"

// Error is the typed error value domain and repository code returns instead
// of ad-hoc fmt.Errorf strings. Extensions carries kind-specific structured
// detail, e.g. {"expected": 4, "actual": 5} for an optimistic lock conflict.
type Error struct {
	Code       Code
	Message    string
	Extensions map[string]any
	cause      error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a validation-style error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a validation-style error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code/message to an underlying cause, preserving it for
// errors.Is/As unwrapping.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// OptimisticLock builds the conflict error submit_bid/set_trump/play_card
// return when the caller's expected_version is stale.
func OptimisticLock(expected, actual int32) *Error {
	return &Error{
		Code:    CodeOptimisticLock,
		Message: "game version has advanced",
		Extensions: map[string]any{
			"expected": expected,
			"actual":   actual,
		},
	}
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, otherwise
// returns CodeInternalError.
func CodeOf(err error) Code {
	var appErr *Error
	if as(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// as is a tiny local errors.As to avoid importing errors just for this.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
