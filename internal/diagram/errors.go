package diagram

import "errors"

// ErrInvalidInput marks request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// Kind classifies orchestration failures.
type Kind int

const (
	// KindInput is a malformed request; no model call was made.
	KindInput Kind = iota + 1
	// KindConfig is missing or invalid provider configuration; no model call was made.
	KindConfig
	// KindModel is a failed client construction or completion call.
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConfig:
		return "config"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// Error is returned by Generate and Refine. Msg is safe to show callers;
// Err carries the detail.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindModel && e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func inputError(msg string) *Error {
	return &Error{Kind: KindInput, Msg: msg, Err: ErrInvalidInput}
}
