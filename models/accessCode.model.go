package models

import (
	"time"

	"gorm.io/gorm"
)

// AccessCodeStatus defines the lifecycle state of an access code
type AccessCodeStatus string

const (
	AccessCodeActive   AccessCodeStatus = "active"
	AccessCodeDisabled AccessCodeStatus = "disabled"
	AccessCodeExpired  AccessCodeStatus = "expired"
)

// AccessCode is a shareable redemption code handed out by an instructor.
// Codes are never deleted; they only move to expired/disabled. used_count
// is mutated exclusively by the ledger's conditional-update consume.
type AccessCode struct {
	gorm.Model
	Code       string           `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Status     AccessCodeStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	TemplateID uint             `gorm:"not null;index" json:"templateId"`
	CreatedBy  uint             `gorm:"not null" json:"createdBy"`
	UsageLimit int              `gorm:"not null;default:1" json:"usageLimit"`
	UsedCount  int              `gorm:"not null;default:0" json:"usedCount"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty"`
	Note       string           `gorm:"size:255" json:"note,omitempty"`
}

func (AccessCode) TableName() string {
	return "access_codes"
}

// Exhausted reports whether the code's usage allowance is fully spent.
func (a *AccessCode) Exhausted() bool {
	return a.UsedCount >= a.UsageLimit
}
