package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannel(t *testing.T) {
	ch, err := NewChannel("com.example.fanpix")
	require.NoError(t, err)
	assert.Equal(t, "com.example.fanpix/media_store", ch.String())
	assert.Equal(t, "com.example.fanpix", ch.Namespace())

	for _, bad := range []string{"", "com/example", "com example"} {
		_, err := NewChannel(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("com.example.fanpix/media_store")
	require.NoError(t, err)
	assert.Equal(t, Channel("com.example.fanpix/media_store"), ch)

	for _, bad := range []string{"com.example.fanpix", "com.example.fanpix/media", "/media_store", "a/b/media_store"} {
		_, err := ParseChannel(bad)
		assert.Error(t, err, bad)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	invalid := &Error{Code: CodeInvalidPath, Message: "No path provided"}

	tests := []struct {
		name    string
		outcome Outcome
		status  string
	}{
		{"success", Success(), StatusSuccess},
		{"error", Failed(invalid), StatusError},
		{"not implemented", NotImplemented(), StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := EnvelopeFor(tt.outcome)
			assert.Equal(t, tt.status, env.Status)

			back, err := env.Outcome()
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, back)
		})
	}
}

func TestEnvelopeFailures(t *testing.T) {
	_, err := FailureEnvelope(errors.New("bus closed")).Outcome()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus closed")

	_, err = Envelope{Status: StatusError}.Outcome()
	assert.Error(t, err)

	_, err = Envelope{Status: "maybe"}.Outcome()
	assert.Error(t, err)
}

func TestErrorImplementsError(t *testing.T) {
	var err error = &Error{Code: CodeScanFailed, Message: "queue full"}
	assert.Equal(t, "SCAN_FAILED: queue full", err.Error())

	var target *Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, CodeScanFailed, target.Code)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", KindSuccess.String())
	assert.Equal(t, "error", KindError.String())
	assert.Equal(t, "not_implemented", KindNotImplemented.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
