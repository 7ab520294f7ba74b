package security

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(16)
	require.NoError(t, err)
	assert.Len(t, token, 32) // hex doubles the byte length
	assert.Regexp(t, "^[0-9a-f]+$", token)

	other, err := GenerateToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateTokenRejectsBadLength(t *testing.T) {
	_, err := GenerateToken(0)
	assert.Error(t, err)

	_, err = GenerateToken(-4)
	assert.Error(t, err)
}

func TestChecksum(t *testing.T) {
	data := []byte("shahadati")
	sum := Checksum(data)

	assert.Len(t, sum, 64)
	assert.Equal(t, sum, Checksum(data))
	assert.True(t, VerifyChecksum(data, sum))
	assert.False(t, VerifyChecksum([]byte("shahadatI"), sum))
	assert.False(t, VerifyChecksum(data, "deadbeef"))
}

func TestSettingsValidate(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32, 48, 64} {
		s := Settings{KeyLength: keyLen, Iterations: MinIterations}
		assert.NoError(t, s.Validate(), "key length %d should be valid", keyLen)
	}

	assert.Error(t, Settings{KeyLength: 20, Iterations: DefaultIterations}.Validate())
	assert.Error(t, Settings{KeyLength: 32, Iterations: 999}.Validate())
	assert.NoError(t, DefaultSettings().Validate())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("certificate payload with some length to it"),
		make([]byte, 4096),
	}

	for _, plaintext := range plaintexts {
		env, err := Encrypt(plaintext, "correct horse battery staple", Settings{KeyLength: 32, Iterations: MinIterations})
		require.NoError(t, err)

		decrypted, err := Decrypt(env, "correct horse battery staple")
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptDecryptAllKeyLengths(t *testing.T) {
	plaintext := []byte("snapshot bytes")
	for _, keyLen := range []int{16, 24, 32, 48, 64} {
		env, err := Encrypt(plaintext, "pass", Settings{KeyLength: keyLen, Iterations: MinIterations})
		require.NoError(t, err, "key length %d", keyLen)

		decrypted, err := Decrypt(env, "pass")
		require.NoError(t, err, "key length %d", keyLen)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	env, err := Encrypt([]byte("secret"), "right", Settings{KeyLength: 32, Iterations: MinIterations})
	require.NoError(t, err)

	_, err = Decrypt(env, "wrong")
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	env, err := Encrypt([]byte("secret"), "pass", Settings{KeyLength: 32, Iterations: MinIterations})
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0xFF
	_, err = Decrypt(env, "pass")
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestDecryptTamperedSalt(t *testing.T) {
	env, err := Encrypt([]byte("secret"), "pass", Settings{KeyLength: 32, Iterations: MinIterations})
	require.NoError(t, err)

	env.Salt[0] ^= 0xFF
	_, err = Decrypt(env, "pass")
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestEnvelopeIsSelfDescribing(t *testing.T) {
	env, err := Encrypt([]byte("payload"), "pass", Settings{KeyLength: 48, Iterations: 2000})
	require.NoError(t, err)

	// A serialized envelope carries everything decryption needs
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var restored Envelope
	require.NoError(t, json.Unmarshal(raw, &restored))

	decrypted, err := Decrypt(&restored, "pass")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), decrypted)
}

func TestEncryptRejectsEmptyPassphrase(t *testing.T) {
	_, err := Encrypt([]byte("x"), "", DefaultSettings())
	assert.Error(t, err)
}
