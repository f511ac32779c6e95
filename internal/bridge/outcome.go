package bridge

import "fmt"

// Error codes returned in structured errors.
const (
	// CodeInvalidPath means the path argument was absent or not a string.
	CodeInvalidPath = "INVALID_PATH"
	// CodeScanFailed means the platform scan action rejected the request.
	CodeScanFailed = "SCAN_FAILED"
)

// Kind is the shape of an invocation outcome.
type Kind int

// Outcome kinds. Every invocation produces exactly one.
const (
	KindSuccess Kind = iota
	KindError
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a structured error returned to the caller.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Outcome is the result of one invocation. Err is set only for KindError.
type Outcome struct {
	Kind Kind
	Err  *Error
}

// Success returns a payload-free success outcome.
func Success() Outcome {
	return Outcome{Kind: KindSuccess}
}

// Failed returns an error outcome carrying e.
func Failed(e *Error) Outcome {
	return Outcome{Kind: KindError, Err: e}
}

// NotImplemented signals that the method is not supported. It is not an
// error.
func NotImplemented() Outcome {
	return Outcome{Kind: KindNotImplemented}
}

func (o Outcome) String() string {
	if o.Kind == KindError && o.Err != nil {
		return "error(" + o.Err.Error() + ")"
	}
	return o.Kind.String()
}
