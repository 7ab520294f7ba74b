package backupController

import (
	"errors"
	"log"
	"time"

	"shahadati/backup"
	"shahadati/config"
	"shahadati/middleware"
	"shahadati/security"

	"github.com/gofiber/fiber/v2"
)

// manager is wired once at startup from main
var manager *backup.Manager

// Init injects the backup manager used by the handlers
func Init(m *backup.Manager) {
	manager = m
}

// TriggerFullBackup runs a full snapshot synchronously
func TriggerFullBackup(c *fiber.Ctx) error {
	op, err := manager.CreateFullBackup()
	if err != nil {
		log.Printf("Full backup failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Backup failed!", op)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Full backup completed successfully!", op)
}

// TriggerIncrementalBackup runs an incremental snapshot since the last
// completed backup, or since an explicit timestamp when provided
func TriggerIncrementalBackup(c *fiber.Ctx) error {
	since, err := manager.LatestCompletedAt()
	if err != nil {
		log.Printf("Incremental backup checkpoint lookup failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Backup failed!", nil)
	}

	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid since timestamp, want RFC3339!", nil)
		}
		since = parsed
	}

	op, err := manager.CreateIncrementalBackup(since)
	if err != nil {
		log.Printf("Incremental backup failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Backup failed!", op)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Incremental backup completed successfully!", op)
}

// ListBackups returns recent backup operations
func ListBackups(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	ops, err := manager.ListOperations(limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch backups!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Backups fetched successfully!", fiber.Map{
		"operations": ops,
		"total":      len(ops),
	})
}

// RestoreBackup replaces the store's collections from a named snapshot
func RestoreBackup(c *fiber.Ctx) error {
	operationID := c.Params("operationId")
	verify := c.QueryBool("verifyIntegrity", true)

	result, err := manager.Restore(operationID, verify)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrOperationNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Backup operation not found!", nil)
		case errors.Is(err, security.ErrIntegrity):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Backup integrity check failed, restore aborted!", nil)
		default:
			log.Printf("Restore %s failed: %v", operationID, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Restore failed!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Restore completed.", result)
}

// CleanupBackups prunes completed backups past the retention window
func CleanupBackups(c *fiber.Ctx) error {
	retentionDays := c.QueryInt("retentionDays", config.AppConfig.BackupRetentionDays)
	if retentionDays <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "retentionDays must be positive!", nil)
	}

	result, err := manager.CleanupOldBackups(retentionDays)
	if err != nil {
		log.Printf("Backup cleanup failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Cleanup failed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cleanup completed.", result)
}
