package models

import "gorm.io/gorm"

// BackupType defines the scope of a backup operation
type BackupType string

const (
	BackupTypeFull        BackupType = "full"
	BackupTypeIncremental BackupType = "incremental"
)

// BackupStatus defines the lifecycle of a backup operation
type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusRunning   BackupStatus = "running"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// BackupOperation records one snapshot run. Owned exclusively by the
// backup manager; rows are immutable once terminal except for deletion
// during retention pruning.
type BackupOperation struct {
	gorm.Model
	OperationID      string       `gorm:"size:36;uniqueIndex;not null" json:"operationId"`
	Type             BackupType   `gorm:"type:varchar(20);not null" json:"type"`
	Status           BackupStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SizeBytes        int64        `gorm:"default:0" json:"sizeBytes"`
	DurationSeconds  float64      `gorm:"default:0" json:"durationSeconds"`
	EntityCount      int          `gorm:"default:0" json:"entityCount"`
	CompressionRatio float64      `gorm:"default:0" json:"compressionRatio"` // compressed / original
	StorageLocation  string       `gorm:"size:500" json:"storageLocation"`
	Checksum         string       `gorm:"size:64" json:"checksum"` // SHA256 of the stored bytes
	Encrypted        bool         `gorm:"default:false" json:"encrypted"`
	ErrorMessage     string       `gorm:"type:text" json:"errorMessage,omitempty"`
}

func (BackupOperation) TableName() string {
	return "backup_operations"
}
