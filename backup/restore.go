package backup

import (
	"errors"
	"fmt"
	"log"
	"time"

	"shahadati/models"
	"shahadati/security"
	"shahadati/storage"

	"gorm.io/gorm"
)

// ErrOperationNotFound is returned when the named backup operation does
// not exist or never completed.
var ErrOperationNotFound = errors.New("backup: operation not found")

// RestoreResult reports a restore run. Collections fail independently;
// one broken collection does not abort the rest.
type RestoreResult struct {
	RestoredCount int      `json:"restoredCount"`
	Errors        []string `json:"errors"`
}

// CleanupResult reports a retention pruning run.
type CleanupResult struct {
	DeletedCount int      `json:"deletedCount"`
	Errors       []string `json:"errors"`
}

// Restore loads the named snapshot and wholesale-replaces each target
// collection. With verifyIntegrity the stored checksum is recomputed and
// a mismatch fails the whole restore before any data is touched.
func (m *Manager) Restore(operationID string, verifyIntegrity bool) (*RestoreResult, error) {
	var op models.BackupOperation
	err := m.db.Where("operation_id = ? AND status = ?", operationID, models.BackupStatusCompleted).
		First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		return nil, err
	}

	data, err := m.blobs.Get(op.StorageLocation)
	if err != nil {
		return nil, fmt.Errorf("backup: load snapshot: %w", err)
	}

	if verifyIntegrity && !security.VerifyChecksum(data, op.Checksum) {
		return nil, security.ErrIntegrity
	}

	doc, err := m.unwrapSnapshot(data)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Errors: []string{}}
	for _, col := range m.collections() {
		raw, ok := doc.Collections[col.name]
		if !ok {
			continue
		}
		var restored int
		err := m.db.Transaction(func(tx *gorm.DB) error {
			n, err := col.restore(tx, raw)
			restored = n
			return err
		})
		if err != nil {
			log.Printf("Restore %s: collection %s failed: %v", operationID, col.name, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", col.name, err))
			continue
		}
		result.RestoredCount += restored
	}

	log.Printf("Restore %s completed: %d entities, %d collection errors", operationID, result.RestoredCount, len(result.Errors))
	return result, nil
}

// CleanupOldBackups deletes completed operations strictly older than
// retentionDays, blob first then row, best effort per item. An operation
// aged exactly retentionDays survives.
func (m *Manager) CleanupOldBackups(retentionDays int) (*CleanupResult, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var ops []models.BackupOperation
	err := m.db.Where("status = ? AND created_at < ?", models.BackupStatusCompleted, cutoff).
		Find(&ops).Error
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{Errors: []string{}}
	for _, op := range ops {
		if op.StorageLocation != "" {
			if err := m.blobs.Delete(op.StorageLocation); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", op.OperationID, err))
				continue
			}
		}
		if err := m.db.Delete(&op).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", op.OperationID, err))
			continue
		}
		result.DeletedCount++
	}

	if result.DeletedCount > 0 || len(result.Errors) > 0 {
		log.Printf("Backup cleanup: deleted %d, %d errors", result.DeletedCount, len(result.Errors))
	}
	return result, nil
}

// ListOperations returns backup operations newest first.
func (m *Manager) ListOperations(limit int) ([]models.BackupOperation, error) {
	var ops []models.BackupOperation
	q := m.db.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// LatestCompletedAt returns the creation time of the newest completed
// backup, used as the incremental checkpoint. Zero time when none exist.
func (m *Manager) LatestCompletedAt() (time.Time, error) {
	var op models.BackupOperation
	err := m.db.Where("status = ?", models.BackupStatusCompleted).
		Order("created_at desc").First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return op.CreatedAt, nil
}
