package backupRoutes

import (
	controllers "shahadati/controllers/backup"
	"shahadati/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupBackupRoutes sets up admin-only backup management routes
func SetupBackupRoutes(app *fiber.App) {
	group := app.Group("/admin/backups", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"))

	group.Post("/full", controllers.TriggerFullBackup)
	group.Post("/incremental", controllers.TriggerIncrementalBackup)
	group.Get("/", controllers.ListBackups)
	group.Post("/:operationId/restore", controllers.RestoreBackup)
	group.Post("/cleanup", controllers.CleanupBackups)
}
