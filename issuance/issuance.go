// Package issuance composes the ledger, minter, renderer and blob store
// into the end-to-end redemption workflow.
package issuance

import (
	"errors"
	"fmt"
	"log"
	"time"

	"shahadati/ledger"
	"shahadati/minter"
	"shahadati/models"
	"shahadati/renderer"
	"shahadati/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStorage wraps collaborator I/O failures on the issuance path. The
// caller may retry the whole redemption; the service does not.
var ErrStorage = errors.New("issuance: storage failure")

// RedeemRequest is a validated redemption.
type RedeemRequest struct {
	Code         string
	StudentName  string
	StudentEmail string
	CustomFields map[string]string
}

// RedeemResult is returned to the student on success.
type RedeemResult struct {
	CertificateID     string `json:"certificateId"`
	CertificateNumber string `json:"certificateNumber"`
	VerificationHash  string `json:"verificationHash"`
	URL               string `json:"url"`
}

// Notifier delivers the issued-certificate message. Best effort; failures
// are logged, never surfaced to the student.
type Notifier func(email, studentName, certificateNumber, url string)

// NumberMinter assigns a certificate number and verification hash.
type NumberMinter interface {
	Mint(in minter.MintInput) (minter.MintResult, error)
}

// insertAttempts bounds re-mints when the unique index on the
// certificate number catches a collision at insert time.
const insertAttempts = 3

// Service runs redemptions. It holds no mutable state of its own; the
// one concurrency-sensitive step is the ledger's conditional consume.
type Service struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	minter   NumberMinter
	renderer renderer.Renderer
	blobs    storage.BlobStore
	notify   Notifier
}

func New(db *gorm.DB, l *ledger.Ledger, m NumberMinter, r renderer.Renderer, b storage.BlobStore) *Service {
	return &Service{db: db, ledger: l, minter: m, renderer: r, blobs: b}
}

// WithNotifier sets the optional issued-certificate notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notify = n
	return s
}

// Redeem runs the full workflow: validate, consume, mint, render, store,
// record. Once the consume has succeeded the usage stays spent even if a
// later step fails; quota is charged per attempt, not per delivered
// certificate, and failures are logged rather than compensated.
func (s *Service) Redeem(req RedeemRequest) (*RedeemResult, error) {
	v, err := s.ledger.Validate(req.Code)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return nil, reasonError(v.Reason)
	}

	var ac models.AccessCode
	if err := s.db.Where("code = ?", req.Code).First(&ac).Error; err != nil {
		return nil, err
	}

	if _, err := s.ledger.ConsumeOnce(req.Code); err != nil {
		return nil, err
	}

	issuedAt := time.Now().UTC()
	minted, err := s.minter.Mint(minter.MintInput{
		StudentName:  req.StudentName,
		TemplateID:   ac.TemplateID,
		AccessCodeID: ac.ID,
		IssuedAt:     issuedAt,
	})
	if err != nil {
		log.Printf("Issuance failed after consume (code %s): minting: %v", req.Code, err)
		return nil, err
	}

	docBytes, err := s.renderer.Render(ac.TemplateID, req.StudentName, req.CustomFields)
	if err != nil {
		log.Printf("Issuance failed after consume (code %s): render: %v", req.Code, err)
		return nil, fmt.Errorf("%w: render: %v", ErrStorage, err)
	}

	certID := uuid.NewString()
	blobPath := fmt.Sprintf("certificates/%s.pdf", certID)
	url, err := s.blobs.Put(blobPath, docBytes)
	if err != nil {
		log.Printf("Issuance failed after consume (code %s): upload: %v", req.Code, err)
		return nil, fmt.Errorf("%w: upload: %v", ErrStorage, err)
	}

	// The minter pre-checks for number collisions, but another redemption
	// can take the same number between the check and the insert. The
	// unique index is the real guard; re-mint and retry when it fires.
	for attempt := 1; ; attempt++ {
		cert := models.Certificate{
			CertificateID:     certID,
			CertificateNumber: minted.CertificateNumber,
			VerificationHash:  minted.VerificationHash,
			StudentName:       req.StudentName,
			StudentEmail:      req.StudentEmail,
			TemplateID:        ac.TemplateID,
			AccessCodeID:      ac.ID,
			FileURL:           url,
			IssuedAt:          issuedAt,
		}
		err = s.db.Create(&cert).Error
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("Issuance failed after consume (code %s): record insert: %v", req.Code, err)
			return nil, fmt.Errorf("%w: record insert: %v", ErrStorage, err)
		}
		if attempt >= insertAttempts {
			log.Printf("Issuance failed after consume (code %s): number collisions exhausted retries", req.Code)
			return nil, minter.ErrNumberingExhausted
		}
		minted, err = s.minter.Mint(minter.MintInput{
			StudentName:  req.StudentName,
			TemplateID:   ac.TemplateID,
			AccessCodeID: ac.ID,
			IssuedAt:     issuedAt,
		})
		if err != nil {
			log.Printf("Issuance failed after consume (code %s): re-minting: %v", req.Code, err)
			return nil, err
		}
	}

	if s.notify != nil && req.StudentEmail != "" {
		go s.notify(req.StudentEmail, req.StudentName, minted.CertificateNumber, url)
	}

	return &RedeemResult{
		CertificateID:     certID,
		CertificateNumber: minted.CertificateNumber,
		VerificationHash:  minted.VerificationHash,
		URL:               url,
	}, nil
}

// reasonError maps a validation reason to the ledger's sentinel error.
func reasonError(reason string) error {
	switch reason {
	case ledger.ReasonNotFound:
		return ledger.ErrNotFound
	case ledger.ReasonExpired:
		return ledger.ErrExpired
	case ledger.ReasonDisabled:
		return ledger.ErrDisabled
	default:
		return ledger.ErrExhausted
	}
}
