// Package security provides the integrity primitives the issuance and
// backup pipelines are built on: secure token generation, SHA-256
// checksums, and authenticated envelope encryption.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrEntropy is returned when the system's CSPRNG is unavailable.
	ErrEntropy = errors.New("security: entropy source unavailable")

	// ErrIntegrity is returned when an authentication tag or checksum
	// does not validate. Never auto-corrected.
	ErrIntegrity = errors.New("security: integrity check failed")
)

// validKeyLengths are the accepted derived-key sizes in bytes.
var validKeyLengths = map[int]bool{16: true, 24: true, 32: true, 48: true, 64: true}

const (
	// DefaultIterations is the PBKDF2 iteration count used when settings
	// do not override it.
	DefaultIterations = 100000

	// MinIterations rejects weak key-derivation configuration.
	MinIterations = 1000

	saltSize = 16
)

// Settings controls key derivation for envelope encryption.
type Settings struct {
	KeyLength  int `json:"keyLength"`
	Iterations int `json:"iterations"`
}

// DefaultSettings returns the production defaults: AES-256 with 100k
// PBKDF2 iterations.
func DefaultSettings() Settings {
	return Settings{KeyLength: 32, Iterations: DefaultIterations}
}

// Validate checks that the settings describe an acceptable key.
func (s Settings) Validate() error {
	if !validKeyLengths[s.KeyLength] {
		return fmt.Errorf("security: invalid key length %d (want 16, 24, 32, 48 or 64)", s.KeyLength)
	}
	if s.Iterations < MinIterations {
		return fmt.Errorf("security: iteration count %d below minimum %d", s.Iterations, MinIterations)
	}
	return nil
}

// GenerateToken returns byteLength cryptographically secure random bytes
// as a lowercase hex string.
func GenerateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("security: token length must be positive, got %d", byteLength)
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return hex.EncodeToString(buf), nil
}

// Checksum returns the SHA-256 digest of data as lowercase hex.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum recomputes the digest of data and compares it against
// expected in constant time.
func VerifyChecksum(data []byte, expected string) bool {
	actual := Checksum(data)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}

// Envelope is a self-describing encrypted payload. Salt, nonce and the
// GCM tag travel with the ciphertext so decryption needs nothing beyond
// the passphrase.
type Envelope struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"` // includes the GCM auth tag
	KeyLength  int    `json:"keyLength"`
	Iterations int    `json:"iterations"`
}

// Encrypt seals plaintext under a key derived from the passphrase with
// PBKDF2-SHA256 and AES-GCM.
func Encrypt(plaintext []byte, passphrase string, s Settings) (*Envelope, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if passphrase == "" {
		return nil, errors.New("security: passphrase must not be empty")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	gcm, err := newGCM(passphrase, salt, s.Iterations, s.KeyLength)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	return &Envelope{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
		KeyLength:  s.KeyLength,
		Iterations: s.Iterations,
	}, nil
}

// Decrypt opens an envelope. A wrong passphrase or any tampering with the
// envelope fields surfaces as ErrIntegrity.
func Decrypt(env *Envelope, passphrase string) ([]byte, error) {
	if env == nil {
		return nil, errors.New("security: nil envelope")
	}
	s := Settings{KeyLength: env.KeyLength, Iterations: env.Iterations}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	gcm, err := newGCM(passphrase, env.Salt, env.Iterations, env.KeyLength)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != gcm.NonceSize() {
		return nil, ErrIntegrity
	}

	plaintext, err := gcm.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// newGCM derives a key and builds the AEAD. AES accepts at most 32-byte
// keys; longer derived keys feed their first 32 bytes to AES-256.
func newGCM(passphrase string, salt []byte, iterations, keyLength int) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keyLength, sha256.New)
	if keyLength > 32 {
		key = key[:32]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("security: cipher init: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: gcm init: %w", err)
	}
	return gcm, nil
}
