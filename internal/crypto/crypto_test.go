package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	for _, plaintext := range []string{"s3cret-p4ssword", "", "senha com acentuação à é"} {
		ciphertext, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		require.NotEqual(t, plaintext, ciphertext)

		decrypted, err := enc.Decrypt(ciphertext)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptIsNotDeterministic(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	a, err := enc.Encrypt("same input")
	require.NoError(t, err)
	b, err := enc.Encrypt("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)
	ciphertext, err := enc.Encrypt("secret")
	require.NoError(t, err)

	other, err := NewEncryptor(hex.EncodeToString(make([]byte, 32)))
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	require.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!!")
	require.Error(t, err)

	_, err = enc.Decrypt("c2hvcnQ=")
	require.Error(t, err)
}

func TestNewEncryptorRejectsBadKeys(t *testing.T) {
	_, err := NewEncryptor("")
	require.Error(t, err)

	_, err = NewEncryptor("zzzz")
	require.Error(t, err)

	_, err = NewEncryptor("0123456789abcdef")
	require.Error(t, err)
}
