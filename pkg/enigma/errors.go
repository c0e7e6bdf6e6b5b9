package enigma

import "fmt"

// ErrorCode classifies a configuration or logic fault raised by the core.
type ErrorCode string

const (
	CodeDuplicateSymbol     ErrorCode = "duplicate symbol"
	CodeInvalidSymbol       ErrorCode = "invalid symbol"
	CodeIndexOutOfRange     ErrorCode = "index out of range"
	CodeEmptyAlphabet       ErrorCode = "empty alphabet"
	CodeMalformedCycle      ErrorCode = "malformed cycle"
	CodeOutOfAlphabet       ErrorCode = "out of alphabet"
	CodeUnknownRotor        ErrorCode = "unknown rotor"
	CodeDuplicateRotor      ErrorCode = "duplicate rotor"
	CodeCapacityMismatch    ErrorCode = "capacity mismatch"
	CodeBadSetting          ErrorCode = "bad setting"
	CodeNotReflector        ErrorCode = "not a reflector"
	CodeConfigTruncated     ErrorCode = "configuration truncated"
	CodeBadRotorDescription ErrorCode = "bad rotor description"
)

// Error is the typed error returned by every failing operation in this package.
// Callers match a class of failure with errors.Is against the sentinel values below.
type Error struct {
	Code   ErrorCode
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "enigma: " + string(e.Code)
	}
	return "enigma: " + string(e.Code) + ": " + e.Detail
}

// Is reports whether target is an *Error with the same code. A target carrying a
// detail only matches an identical detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Detail == "" || t.Detail == e.Detail)
}

// Sentinel values for errors.Is.
var (
	ErrDuplicateSymbol     = &Error{Code: CodeDuplicateSymbol}
	ErrInvalidSymbol       = &Error{Code: CodeInvalidSymbol}
	ErrIndexOutOfRange     = &Error{Code: CodeIndexOutOfRange}
	ErrEmptyAlphabet       = &Error{Code: CodeEmptyAlphabet}
	ErrMalformedCycle      = &Error{Code: CodeMalformedCycle}
	ErrOutOfAlphabet       = &Error{Code: CodeOutOfAlphabet}
	ErrUnknownRotor        = &Error{Code: CodeUnknownRotor}
	ErrDuplicateRotor      = &Error{Code: CodeDuplicateRotor}
	ErrCapacityMismatch    = &Error{Code: CodeCapacityMismatch}
	ErrBadSetting          = &Error{Code: CodeBadSetting}
	ErrNotReflector        = &Error{Code: CodeNotReflector}
	ErrConfigTruncated     = &Error{Code: CodeConfigTruncated}
	ErrBadRotorDescription = &Error{Code: CodeBadRotorDescription}
)

// Errorf builds an *Error of the given code with a formatted detail. It is
// exported so the configuration layer can report faults in the same vocabulary.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}
