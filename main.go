package main

import (
	"log"

	"shahadati/backup"
	"shahadati/config"
	backupController "shahadati/controllers/backup"
	certificateController "shahadati/controllers/certificate"
	"shahadati/database"
	"shahadati/issuance"
	"shahadati/ledger"
	"shahadati/minter"
	"shahadati/renderer"
	authRoutes "shahadati/routers/authRoutes"
	backupRoutes "shahadati/routers/backupRoutes"
	certificateRoutes "shahadati/routers/certificateRoutes"
	instructorRoutes "shahadati/routers/instructorRoutes"
	"shahadati/security"
	"shahadati/storage"
	"shahadati/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	db := database.Database.Db

	// Blob stores: certificate artifacts under the upload dir, backup
	// files under their own root
	artifactStore, err := storage.NewLocalStore(config.AppConfig.UploadDir, "/uploads")
	if err != nil {
		log.Fatalf("Failed to init artifact store: %v", err)
	}
	backupStore, err := storage.NewLocalStore(config.AppConfig.BackupDir, "/backups")
	if err != nil {
		log.Fatalf("Failed to init backup store: %v", err)
	}

	// Issuance pipeline
	issuanceService := issuance.New(
		db,
		ledger.New(db),
		minter.New(db),
		renderer.NewHTTPRenderer(config.AppConfig.RendererURL, config.AppConfig.RendererApiKey),
		artifactStore,
	).WithNotifier(utils.SendCertificateEmail)
	certificateController.Init(issuanceService)

	// Backup manager
	backupManager := backup.New(db, backupStore, backup.Settings{
		Encrypt:    config.AppConfig.BackupEncrypt,
		Passphrase: config.AppConfig.BackupPassphrase,
		Crypto: security.Settings{
			KeyLength:  config.AppConfig.BackupKeyLength,
			Iterations: config.AppConfig.BackupKDFIterations,
		},
	})
	backupController.Init(backupManager)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve issued certificates and uploaded templates
	app.Static("/uploads", config.AppConfig.UploadDir)

	authRoutes.SetupAuthRoutes(app)
	certificateRoutes.SetupCertificateRoutes(app)
	instructorRoutes.SetupInstructorRoutes(app)
	backupRoutes.SetupBackupRoutes(app)

	// Periodic housekeeping: backups, retention pruning, expiry sweep
	utils.StartSchedulers(backupManager)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
