// Package backup snapshots the entity store into compressed, optionally
// encrypted, checksummed blobs and restores them. Backup operations are
// owned exclusively by this package.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"shahadati/models"
	"shahadati/security"
	"shahadati/storage"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"gorm.io/gorm"
)

const snapshotVersion = 1

// Settings controls the backup pipeline.
type Settings struct {
	Encrypt    bool
	Passphrase string
	Crypto     security.Settings
}

// Manager runs backup and restore operations against the store.
type Manager struct {
	db       *gorm.DB
	blobs    storage.BlobStore
	settings Settings
}

func New(db *gorm.DB, blobs storage.BlobStore, settings Settings) *Manager {
	return &Manager{db: db, blobs: blobs, settings: settings}
}

// snapshotDocument is the serialized form of the entire entity set.
type snapshotDocument struct {
	Version     int                        `json:"version"`
	Type        models.BackupType          `json:"type"`
	CreatedAt   time.Time                  `json:"createdAt"`
	Since       *time.Time                 `json:"since,omitempty"`
	Collections map[string]json.RawMessage `json:"collections"`
}

// backupFile is the persisted artifact. It is always a single JSON
// document: the gzip payload rides base64-encoded when encryption is
// off, and as a security envelope when it is on.
type backupFile struct {
	Encrypted bool               `json:"encrypted"`
	Payload   []byte             `json:"payload,omitempty"`
	Envelope  *security.Envelope `json:"envelope,omitempty"`
}

// collection binds a name to its snapshot and restore behavior. Order is
// fixed so restores replace parents before dependents.
type collection struct {
	name    string
	collect func(tx *gorm.DB, since *time.Time) (json.RawMessage, int, error)
	restore func(tx *gorm.DB, raw json.RawMessage) (int, error)
}

func (m *Manager) collections() []collection {
	return []collection{
		{
			name: "users",
			collect: func(tx *gorm.DB, since *time.Time) (json.RawMessage, int, error) {
				var rows []models.User
				if err := scoped(tx, since).Find(&rows).Error; err != nil {
					return nil, 0, err
				}
				raw, err := json.Marshal(rows)
				return raw, len(rows), err
			},
			restore: func(tx *gorm.DB, raw json.RawMessage) (int, error) {
				var rows []models.User
				if err := json.Unmarshal(raw, &rows); err != nil {
					return 0, err
				}
				return len(rows), replaceAll(tx, &models.User{}, rows)
			},
		},
		{
			name: "certificate_templates",
			collect: func(tx *gorm.DB, since *time.Time) (json.RawMessage, int, error) {
				var rows []models.CertificateTemplate
				if err := scoped(tx, since).Find(&rows).Error; err != nil {
					return nil, 0, err
				}
				raw, err := json.Marshal(rows)
				return raw, len(rows), err
			},
			restore: func(tx *gorm.DB, raw json.RawMessage) (int, error) {
				var rows []models.CertificateTemplate
				if err := json.Unmarshal(raw, &rows); err != nil {
					return 0, err
				}
				return len(rows), replaceAll(tx, &models.CertificateTemplate{}, rows)
			},
		},
		{
			name: "access_codes",
			collect: func(tx *gorm.DB, since *time.Time) (json.RawMessage, int, error) {
				var rows []models.AccessCode
				if err := scoped(tx, since).Find(&rows).Error; err != nil {
					return nil, 0, err
				}
				raw, err := json.Marshal(rows)
				return raw, len(rows), err
			},
			restore: func(tx *gorm.DB, raw json.RawMessage) (int, error) {
				var rows []models.AccessCode
				if err := json.Unmarshal(raw, &rows); err != nil {
					return 0, err
				}
				return len(rows), replaceAll(tx, &models.AccessCode{}, rows)
			},
		},
		{
			name: "certificates",
			collect: func(tx *gorm.DB, since *time.Time) (json.RawMessage, int, error) {
				var rows []models.Certificate
				if err := scoped(tx, since).Find(&rows).Error; err != nil {
					return nil, 0, err
				}
				raw, err := json.Marshal(rows)
				return raw, len(rows), err
			},
			restore: func(tx *gorm.DB, raw json.RawMessage) (int, error) {
				var rows []models.Certificate
				if err := json.Unmarshal(raw, &rows); err != nil {
					return 0, err
				}
				return len(rows), replaceAll(tx, &models.Certificate{}, rows)
			},
		},
	}
}

// scoped applies the incremental cutoff when one is set. The cutoff is
// inclusive so a row touched at exactly the checkpoint is never lost
// between consecutive incrementals.
func scoped(tx *gorm.DB, since *time.Time) *gorm.DB {
	if since != nil {
		return tx.Where("updated_at >= ?", *since)
	}
	return tx
}

// replaceAll wholesale-replaces a collection: hard delete then insert,
// keeping original primary keys.
func replaceAll[T any](tx *gorm.DB, model *T, rows []T) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// CreateFullBackup snapshots every collection.
func (m *Manager) CreateFullBackup() (*models.BackupOperation, error) {
	return m.createBackup(models.BackupTypeFull, nil)
}

// CreateIncrementalBackup snapshots rows modified at or after since. An
// empty delta is a valid completed operation with entityCount 0.
func (m *Manager) CreateIncrementalBackup(since time.Time) (*models.BackupOperation, error) {
	return m.createBackup(models.BackupTypeIncremental, &since)
}

func (m *Manager) createBackup(backupType models.BackupType, since *time.Time) (*models.BackupOperation, error) {
	op := models.BackupOperation{
		OperationID: uuid.NewString(),
		Type:        backupType,
		Status:      models.BackupStatusPending,
	}
	if err := m.db.Create(&op).Error; err != nil {
		return nil, err
	}

	m.db.Model(&op).Update("status", models.BackupStatusRunning)
	start := time.Now()

	finalBytes, entityCount, ratio, err := m.buildSnapshot(backupType, since)
	if err != nil {
		return m.fail(&op, start, err)
	}

	filename := fmt.Sprintf("backup_%s_%d.json", op.OperationID, start.UnixMilli())
	if _, err := m.blobs.Put(filename, finalBytes); err != nil {
		return m.fail(&op, start, err)
	}

	updates := map[string]interface{}{
		"status":            models.BackupStatusCompleted,
		"size_bytes":        int64(len(finalBytes)),
		"duration_seconds":  time.Since(start).Seconds(),
		"entity_count":      entityCount,
		"compression_ratio": ratio,
		"storage_location":  filename,
		"checksum":          security.Checksum(finalBytes),
		"encrypted":         m.settings.Encrypt,
	}
	if err := m.db.Model(&op).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := m.db.First(&op, op.ID).Error; err != nil {
		return nil, err
	}
	log.Printf("Backup %s (%s) completed: %d entities, %d bytes", op.OperationID, backupType, entityCount, op.SizeBytes)
	return &op, nil
}

// buildSnapshot reads all collections inside one transaction so the
// document is internally consistent, then compresses and optionally
// encrypts it. Returns the bytes to persist, the entity count and the
// compression ratio.
func (m *Manager) buildSnapshot(backupType models.BackupType, since *time.Time) ([]byte, int, float64, error) {
	doc := snapshotDocument{
		Version:     snapshotVersion,
		Type:        backupType,
		CreatedAt:   time.Now().UTC(),
		Since:       since,
		Collections: make(map[string]json.RawMessage),
	}
	entityCount := 0

	err := m.db.Transaction(func(tx *gorm.DB) error {
		for _, col := range m.collections() {
			raw, n, err := col.collect(tx, since)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", col.name, err)
			}
			doc.Collections[col.name] = raw
			entityCount += n
		}
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, 0, err
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(docBytes); err != nil {
		return nil, 0, 0, err
	}
	if err := gw.Close(); err != nil {
		return nil, 0, 0, err
	}
	compressed := buf.Bytes()
	ratio := float64(len(compressed)) / float64(len(docBytes))

	file := backupFile{Payload: compressed}
	if m.settings.Encrypt {
		env, err := security.Encrypt(compressed, m.settings.Passphrase, m.settings.Crypto)
		if err != nil {
			return nil, 0, 0, err
		}
		file = backupFile{Encrypted: true, Envelope: env}
	}
	finalBytes, err := json.Marshal(file)
	if err != nil {
		return nil, 0, 0, err
	}

	return finalBytes, entityCount, ratio, nil
}

// fail marks the operation terminal-failed and returns the original error.
func (m *Manager) fail(op *models.BackupOperation, start time.Time, cause error) (*models.BackupOperation, error) {
	log.Printf("Backup %s failed: %v", op.OperationID, cause)
	m.db.Model(op).Updates(map[string]interface{}{
		"status":           models.BackupStatusFailed,
		"duration_seconds": time.Since(start).Seconds(),
		"error_message":    cause.Error(),
	})
	return op, cause
}

// unwrapSnapshot reverses the storage pipeline: decrypt when needed,
// then decompress and decode the document.
func (m *Manager) unwrapSnapshot(data []byte) (*snapshotDocument, error) {
	var file backupFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, security.ErrIntegrity
	}

	if file.Encrypted {
		if file.Envelope == nil {
			return nil, security.ErrIntegrity
		}
		plain, err := security.Decrypt(file.Envelope, m.settings.Passphrase)
		if err != nil {
			return nil, err
		}
		data = plain
	} else {
		if file.Payload == nil {
			return nil, security.ErrIntegrity
		}
		data = file.Payload
	}

	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("backup: decompress: %w", err)
	}
	defer gr.Close()
	docBytes, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("backup: decompress: %w", err)
	}

	var doc snapshotDocument
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return nil, fmt.Errorf("backup: decode snapshot: %w", err)
	}
	return &doc, nil
}
