package bridge

import "fmt"

// Envelope status values.
const (
	StatusSuccess        = "success"
	StatusError          = "error"
	StatusNotImplemented = "not_implemented"
	StatusFailure        = "failure"
)

// Envelope is the wire form of an outcome. ID pairs WebSocket responses
// with their request and is empty over plain HTTP. Status "failure"
// carries Message instead of an outcome.
type Envelope struct {
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Error   *Error `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// EnvelopeFor encodes an outcome.
func EnvelopeFor(o Outcome) Envelope {
	switch o.Kind {
	case KindError:
		return Envelope{Status: StatusError, Error: o.Err}
	case KindNotImplemented:
		return Envelope{Status: StatusNotImplemented}
	default:
		return Envelope{Status: StatusSuccess}
	}
}

// FailureEnvelope reports an invocation that produced no outcome.
func FailureEnvelope(err error) Envelope {
	return Envelope{Status: StatusFailure, Message: err.Error()}
}

// Outcome decodes the envelope. A failure envelope or an unknown status
// yields an error.
func (e Envelope) Outcome() (Outcome, error) {
	switch e.Status {
	case StatusSuccess:
		return Success(), nil
	case StatusError:
		if e.Error == nil {
			return Outcome{}, fmt.Errorf("error envelope without error body")
		}
		return Failed(e.Error), nil
	case StatusNotImplemented:
		return NotImplemented(), nil
	case StatusFailure:
		return Outcome{}, fmt.Errorf("invocation failed: %s", e.Message)
	default:
		return Outcome{}, fmt.Errorf("unknown outcome status %q", e.Status)
	}
}
