// Package ledger owns access-code state. All used_count mutation goes
// through ConsumeOnce's conditional update so concurrent redemptions of
// the same code can never double-spend.
package ledger

import (
	"errors"
	"time"

	"shahadati/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("ledger: access code not found")
	ErrExpired   = errors.New("ledger: access code expired")
	ErrDisabled  = errors.New("ledger: access code disabled")
	ErrExhausted = errors.New("ledger: access code usage limit reached")
)

// Validation reasons surfaced to callers as expected outcomes, not errors.
const (
	ReasonNotFound  = "not_found"
	ReasonExpired   = "expired"
	ReasonDisabled  = "disabled"
	ReasonExhausted = "exhausted"
)

// ValidationResult is the structured outcome of a code check.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ConsumeResult reports a successful consumption.
type ConsumeResult struct {
	NewUsedCount int `json:"newUsedCount"`
}

// Ledger tracks access codes against the backing store.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Validate checks whether a code can currently be redeemed. Expiry is
// evaluated against the wall clock even if the stored status has not
// been swept to expired yet.
func (l *Ledger) Validate(code string) (ValidationResult, error) {
	var ac models.AccessCode
	if err := l.db.Where("code = ?", code).First(&ac).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidationResult{Valid: false, Reason: ReasonNotFound}, nil
		}
		return ValidationResult{}, err
	}

	switch {
	case ac.Status == models.AccessCodeDisabled:
		return ValidationResult{Valid: false, Reason: ReasonDisabled}, nil
	case ac.Status == models.AccessCodeExpired:
		return ValidationResult{Valid: false, Reason: ReasonExpired}, nil
	case ac.ExpiresAt != nil && !ac.ExpiresAt.After(time.Now()):
		return ValidationResult{Valid: false, Reason: ReasonExpired}, nil
	case ac.Exhausted():
		return ValidationResult{Valid: false, Reason: ReasonExhausted}, nil
	}

	return ValidationResult{Valid: true}, nil
}

// ConsumeOnce atomically spends one use of the code. The guard lives in
// the UPDATE's WHERE clause; two racing callers on a code with one use
// left get exactly one success and one ErrExhausted.
func (l *Ledger) ConsumeOnce(code string) (ConsumeResult, error) {
	now := time.Now()
	res := l.db.Model(&models.AccessCode{}).
		Where("code = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?) AND used_count < usage_limit",
			code, models.AccessCodeActive, now).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return ConsumeResult{}, res.Error
	}

	if res.RowsAffected == 0 {
		// The guard rejected us; re-read to report the precise cause.
		v, err := l.Validate(code)
		if err != nil {
			return ConsumeResult{}, err
		}
		switch v.Reason {
		case ReasonNotFound:
			return ConsumeResult{}, ErrNotFound
		case ReasonExpired:
			return ConsumeResult{}, ErrExpired
		case ReasonDisabled:
			return ConsumeResult{}, ErrDisabled
		default:
			return ConsumeResult{}, ErrExhausted
		}
	}

	var ac models.AccessCode
	if err := l.db.Where("code = ?", code).First(&ac).Error; err != nil {
		return ConsumeResult{}, err
	}
	return ConsumeResult{NewUsedCount: ac.UsedCount}, nil
}

// Disable force-retires a code from any state.
func (l *Ledger) Disable(code string) error {
	res := l.db.Model(&models.AccessCode{}).
		Where("code = ?", code).
		Update("status", models.AccessCodeDisabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireOverdue flips the persisted status of overdue active codes to
// expired. Validate already treats them as expired; this keeps listings
// truthful. Returns the number of codes swept.
func (l *Ledger) ExpireOverdue() (int64, error) {
	res := l.db.Model(&models.AccessCode{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			models.AccessCodeActive, time.Now()).
		Update("status", models.AccessCodeExpired)
	return res.RowsAffected, res.Error
}
