package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	v, err := New("test-passphrase")
	require.NoError(t, err)

	for _, secret := range []string{"hunter2", "", "p@ssw0rd with spaces", "1234"} {
		ciphertext, err := v.Encrypt(secret)
		require.NoError(t, err)
		require.NotEqual(t, secret, ciphertext)

		plaintext, err := v.Decrypt(ciphertext)
		require.NoError(t, err)
		require.Equal(t, secret, plaintext)
	}
}

func TestEncryptIsNotDeterministic(t *testing.T) {
	v, err := New("test-passphrase")
	require.NoError(t, err)

	a, err := v.Encrypt("hunter2")
	require.NoError(t, err)
	b, err := v.Encrypt("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptMalformed(t *testing.T) {
	v, err := New("test-passphrase")
	require.NoError(t, err)

	for _, bad := range []string{"", "not base64!!!", "YWJj"} {
		_, err := v.Decrypt(bad)
		require.ErrorIs(t, err, ErrDecrypt)
	}
}

func TestDecryptAfterKeyRotation(t *testing.T) {
	old, err := New("old-key")
	require.NoError(t, err)
	rotated, err := New("new-key")
	require.NoError(t, err)

	ciphertext, err := old.Encrypt("hunter2")
	require.NoError(t, err)

	_, err = rotated.Decrypt(ciphertext)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestEmptyPassphraseRejected(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}
