package models

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is the immutable record of one successful redemption.
// There is no update path; a correction is a new record whose
// SupersedesID points at the original.
type Certificate struct {
	gorm.Model
	CertificateID     string    `gorm:"size:36;uniqueIndex;not null" json:"certificateId"`
	CertificateNumber string    `gorm:"size:32;uniqueIndex;not null" json:"certificateNumber"`
	VerificationHash  string    `gorm:"size:64;not null" json:"verificationHash"`
	StudentName       string    `gorm:"size:255;not null" json:"studentName"`
	StudentEmail      string    `gorm:"size:255" json:"studentEmail,omitempty"`
	TemplateID        uint      `gorm:"not null;index" json:"templateId"`
	AccessCodeID      uint      `gorm:"not null;index" json:"accessCodeId"`
	FileURL           string    `gorm:"size:500" json:"fileUrl"`
	IssuedAt          time.Time `gorm:"not null;index" json:"issuedAt"`
	SupersedesID      uint      `gorm:"default:0" json:"supersedesId,omitempty"`
	IsDeleted         bool      `gorm:"default:false" json:"isDeleted"`
}

func (Certificate) TableName() string {
	return "certificates"
}
