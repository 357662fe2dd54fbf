package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewTimeoutError("probe exact-id", context.DeadlineExceeded)
	assert.Equal(t, "TIMEOUT: probe exact-id: context deadline exceeded", err.Error())

	plain := NewNotFoundError("patient P002")
	assert.Equal(t, "NOT_FOUND: patient P002", plain.Error())
}

func TestIsType_WalksWrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("strategy loose-name: %w", NewMalformedResponseError("html body", nil))

	assert.True(t, IsType(wrapped, ErrorTypeMalformedResponse))
	assert.False(t, IsType(wrapped, ErrorTypeTimeout))
	assert.False(t, IsType(nil, ErrorTypeTimeout))
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewExternalError("GET /patients/id/1", cause)
	assert.ErrorIs(t, err, cause)
}
