package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewCipher_KeyLength(t *testing.T) {
	_, err := NewCipher("short")
	assert.ErrorIs(t, err, ErrKeyTooShort)

	c, err := NewCipher(testKey)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("kvikk-api-key", "demo.myshopify.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"))
	assert.NotContains(t, sealed, "kvikk-api-key")

	plain, err := c.Decrypt(sealed, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "kvikk-api-key", plain)
}

func TestCipher_FreshNoncePerValue(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	a, err := c.Encrypt("same", "shop")
	require.NoError(t, err)
	b, err := c.Encrypt("same", "shop")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_EmptyValues(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("", "shop")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := c.Decrypt("", "shop")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestCipher_Rejects(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)
	sealed, err := c.Encrypt("secret", "demo.myshopify.com")
	require.NoError(t, err)

	other, err := NewCipher("another-passphrase-of-enough-length")
	require.NoError(t, err)

	_, err = c.Decrypt(sealed, "other.myshopify.com")
	assert.ErrorIs(t, err, ErrDecryptionFailed, "bound to the shop")

	_, err = other.Decrypt(sealed, "demo.myshopify.com")
	assert.ErrorIs(t, err, ErrDecryptionFailed, "wrong key")

	_, err = c.Decrypt("plaintext-key", "demo.myshopify.com")
	assert.ErrorIs(t, err, ErrMalformedValue)

	_, err = c.Decrypt("v1:!!!", "demo.myshopify.com")
	assert.ErrorIs(t, err, ErrMalformedValue)

	_, err = c.Decrypt("v1:AAAA", "demo.myshopify.com")
	assert.ErrorIs(t, err, ErrMalformedValue)
}
