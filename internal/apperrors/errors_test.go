package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("place bid: %w", InvalidBid("amount must exceed current bid"))

	assert.ErrorIs(t, err, ErrInvalidBid)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "amount must exceed current bid", Message(err))
	assert.Equal(t, CodeInvalidBid, Code(err))
}

func TestCodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "not found", err: NotFound("item"), kind: ErrNotFound},
		{name: "invalid state", err: InvalidState("item not active"), kind: ErrInvalidState},
		{name: "invalid bid", err: InvalidBid("too low"), kind: ErrInvalidBid},
		{name: "unauthorized", err: Unauthorized("not the owner"), kind: ErrUnauthorized},
		{name: "validation", err: Validation("title is required"), kind: ErrValidation},
		{name: "transient", err: Transient(errors.New("connection reset")), kind: ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rebuilt := FromCode(Code(tt.err), Message(tt.err))
			assert.ErrorIs(t, rebuilt, tt.kind)
		})
	}
}

func TestIsDomain(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDomain(NotFound("user")))
	assert.True(t, IsDomain(InvalidBid("too low")))
	assert.False(t, IsDomain(Transient(errors.New("timeout"))))
	assert.False(t, IsDomain(errors.New("boom")))
	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
}

func TestTransientKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := Transient(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
