package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "network", err: NewGatewayError(KindNetwork, 0, "", errors.New("dial tcp: i/o timeout")), want: MsgNetworkError},
		{name: "wrapped network", err: errors.Wrap(NewGatewayError(KindNetwork, 0, "", nil), "loading books"), want: MsgNetworkError},
		{name: "validation verbatim", err: errors.Wrap(NewGatewayError(KindValidation, 400, "Email already exists", nil), "create user"), want: "Email already exists"},
		{name: "server without message", err: NewGatewayError(KindServer, 502, "", nil), want: "server error: status 502"},
		{name: "field error", err: NewValidationError(nil, FieldError{Field: "title", Error: "this field is required"}), want: "title: this field is required"},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(errors.Wrap(NewGatewayError(KindNotFound, 404, "", nil), "deleting")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hello", CleanString("  Hello \n"))
	assert.Equal(t, "hello", CleanString("  Hello ", true))
}
