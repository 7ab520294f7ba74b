package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an instructor or admin account. Handlers must blank Password
// before returning a user in a response.
type User struct {
	gorm.Model
	Name                string     `gorm:"default:''" json:"name"`
	Email               string     `gorm:"unique;not null" json:"email"`
	Role                string     `gorm:"default:'INSTRUCTOR'" json:"role"` // INSTRUCTOR, ADMIN
	Password            string     `gorm:"not null" json:"password,omitempty"`
	Organization        string     `gorm:"default:''" json:"organization"`
	LastLogin           time.Time  `gorm:"default:NULL" json:"lastLogin"`
	FailedLoginAttempts int        `gorm:"default:0" json:"failedLoginAttempts"`
	IsBlocked           bool       `gorm:"default:false" json:"isBlocked"`
	BlockedUntil        *time.Time `json:"blockedUntil,omitempty"`
	IsDeleted           bool       `gorm:"default:false" json:"isDeleted"`
}
