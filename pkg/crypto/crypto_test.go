package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
}

func TestNewCipher_MissingKey(t *testing.T) {
	c, err := NewCipher("")
	assert.Nil(t, c)
	assert.Error(t, err)
}

func TestNewCipher_InvalidBase64(t *testing.T) {
	c, err := NewCipher("not-base64!!!")
	assert.Nil(t, c)
	assert.Error(t, err)
}

func TestNewCipher_WrongKeyLength(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	c, err := NewCipher(short)
	assert.Nil(t, c)
	assert.Error(t, err)
}

func TestEncrypt_SplitsOutput(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	plaintext := "4111111111111111"
	result, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	assert.Len(t, result.IV, 12)
	assert.Len(t, result.AuthTag, 16)
	assert.Len(t, result.Ciphertext, len(plaintext))
	assert.NotEqual(t, []byte(plaintext), result.Ciphertext)
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	first, err := c.Encrypt("4111111111111111")
	require.NoError(t, err)
	second, err := c.Encrypt("4111111111111111")
	require.NoError(t, err)

	assert.NotEqual(t, first.IV, second.IV)
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
}
