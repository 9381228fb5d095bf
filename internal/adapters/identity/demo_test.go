package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoVerifier(t *testing.T) {
	v := NewDemoVerifier("")

	identity, err := v.Verify(context.Background(), "123456789012", DefaultCode)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", identity.ExternalIDNumber)
	assert.Equal(t, DefaultDisplayName, identity.DisplayName)
	assert.Equal(t, DefaultPhoneNumber, identity.PhoneNumber)

	_, err = v.Verify(context.Background(), "123456789012", "654321")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, err = v.Verify(context.Background(), "123456789012", "")
	assert.ErrorIs(t, err, ErrCodeMismatch)
}

func TestDemoVerifier_CustomCode(t *testing.T) {
	v := NewDemoVerifier("424242")

	_, err := v.Verify(context.Background(), "123456789012", DefaultCode)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, err = v.Verify(context.Background(), "123456789012", "424242")
	assert.NoError(t, err)
}
