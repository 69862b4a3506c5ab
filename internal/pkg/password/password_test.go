package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, Verify("correct horse battery staple", hash))
	assert.False(t, Verify("wrong password", hash))
	assert.False(t, Verify("", hash))
}

func TestHash_SaltedPerCall(t *testing.T) {
	t.Parallel()

	a, err := Hash("password")
	require.NoError(t, err)
	b, err := Hash("password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, Verify("password", a))
	assert.True(t, Verify("password", b))
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	digest := HashToken("some-plaintext-token")

	// Deterministic, hex-encoded SHA-256
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, HashToken("some-plaintext-token"))
	assert.NotEqual(t, digest, HashToken("other-token"))
}
