package utils

import (
	"log"
	"strconv"
	"time"

	"shahadati/backup"
	"shahadati/config"
	"shahadati/database"
	"shahadati/ledger"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[BACKUP-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// runFullBackup snapshots the entire store
func runFullBackup(manager *backup.Manager) {
	logScheduler("Starting scheduled full backup")
	op, err := manager.CreateFullBackup()
	if err != nil {
		logScheduler("Full backup failed: " + err.Error())
		return
	}
	logScheduler("Full backup completed: " + op.OperationID)
}

// runIncrementalBackup snapshots changes since the last completed backup
func runIncrementalBackup(manager *backup.Manager) {
	since, err := manager.LatestCompletedAt()
	if err != nil {
		logScheduler("Incremental checkpoint lookup failed: " + err.Error())
		return
	}
	if since.IsZero() {
		logScheduler("No completed backup yet, skipping incremental")
		return
	}

	op, err := manager.CreateIncrementalBackup(since)
	if err != nil {
		logScheduler("Incremental backup failed: " + err.Error())
		return
	}
	logScheduler("Incremental backup completed: " + op.OperationID)
}

// runRetentionCleanup prunes completed backups past the retention window
func runRetentionCleanup(manager *backup.Manager) {
	result, err := manager.CleanupOldBackups(config.AppConfig.BackupRetentionDays)
	if err != nil {
		logScheduler("Retention cleanup failed: " + err.Error())
		return
	}
	if result.DeletedCount > 0 {
		logScheduler("Retention cleanup deleted " + strconv.Itoa(result.DeletedCount) + " backups")
	}
}

// runExpirySweep flips overdue active access codes to expired
func runExpirySweep() {
	l := ledger.New(database.Database.Db)
	swept, err := l.ExpireOverdue()
	if err != nil {
		logScheduler("Access code expiry sweep failed: " + err.Error())
		return
	}
	if swept > 0 {
		logScheduler("Expired " + strconv.FormatInt(swept, 10) + " overdue access codes")
	}
}

// StartSchedulers wires the periodic housekeeping jobs: nightly full
// backup, hourly incremental, daily retention pruning, and the access
// code expiry sweep.
func StartSchedulers(manager *backup.Manager) *cron.Cron {
	c := cron.New()

	c.AddFunc("0 2 * * *", func() { runFullBackup(manager) })        // nightly at 02:00
	c.AddFunc("30 * * * *", func() { runIncrementalBackup(manager) }) // hourly at :30
	c.AddFunc("0 4 * * *", func() { runRetentionCleanup(manager) })  // daily at 04:00
	c.AddFunc("*/15 * * * *", runExpirySweep)                        // every 15 minutes

	c.Start()
	logScheduler("Schedulers started")
	return c
}
