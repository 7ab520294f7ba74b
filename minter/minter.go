// Package minter derives certificate numbers and verification hashes.
// The minter holds no state of its own; uniqueness is enforced by the
// certificates table's unique index, with bounded retries on collision.
package minter

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"shahadati/models"

	"gorm.io/gorm"
)

// ErrNumberingExhausted is returned when every numbering attempt collided
// with an existing certificate. Points at a broken randomness source.
var ErrNumberingExhausted = errors.New("minter: certificate numbering attempts exhausted")

// maxAttempts bounds collision retries before giving up.
const maxAttempts = 5

// MintInput carries the validated fields a certificate is bound to.
type MintInput struct {
	StudentName  string
	TemplateID   uint
	AccessCodeID uint
	IssuedAt     time.Time
}

// MintResult is the derived identity of a new certificate.
type MintResult struct {
	CertificateNumber string
	VerificationHash  string
}

// Minter derives certificate identities against the backing store.
type Minter struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Minter {
	return &Minter{db: db}
}

// Mint produces a globally unique certificate number and the hash that
// binds it to its content. Collisions against existing records trigger a
// retry with fresh randomness.
func (m *Minter) Mint(in MintInput) (MintResult, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		number, err := newCertificateNumber(in.IssuedAt)
		if err != nil {
			return MintResult{}, err
		}

		var count int64
		if err := m.db.Model(&models.Certificate{}).
			Where("certificate_number = ?", number).
			Count(&count).Error; err != nil {
			return MintResult{}, err
		}
		if count > 0 {
			continue
		}

		hash := VerificationHash(number, in.StudentName,
			fmt.Sprint(in.TemplateID), fmt.Sprint(in.AccessCodeID), in.IssuedAt)
		return MintResult{CertificateNumber: number, VerificationHash: hash}, nil
	}
	return MintResult{}, ErrNumberingExhausted
}

// newCertificateNumber builds CERT-YYYYMMDD-######-######: issue date,
// the low six digits of the epoch-second clock, and six random digits.
func newCertificateNumber(issuedAt time.Time) (string, error) {
	date := issuedAt.UTC().Format("20060102")
	seq := issuedAt.Unix() % 1000000

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("minter: random suffix: %w", err)
	}

	return fmt.Sprintf("CERT-%s-%06d-%06d", date, seq, n.Int64()), nil
}

// VerificationHash computes the SHA-256 integrity binding over the five
// certificate fields. Not a secret: any verifier holding the same fields
// can recompute it. Fields are joined with "|" so boundaries cannot
// shift, and the timestamp is RFC3339 in UTC.
func VerificationHash(certificateNumber, studentName, templateID, accessCodeID string, issuedAt time.Time) string {
	payload := strings.Join([]string{
		certificateNumber,
		studentName,
		templateID,
		accessCodeID,
		issuedAt.UTC().Format(time.RFC3339),
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
