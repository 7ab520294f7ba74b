package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	// Storage
	UploadDir string // local blob store root, served under /uploads

	// Template renderer service
	RendererURL    string
	RendererApiKey string

	// Backup settings
	BackupDir           string
	BackupRetentionDays int
	BackupEncrypt       bool
	BackupPassphrase    string
	BackupKeyLength     int
	BackupKDFIterations int

	EmailSender string
	Password    string // SMTP app password
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),

		RendererURL:    getEnv("RENDERER_URL", "http://localhost:8090"),
		RendererApiKey: getEnv("RENDERER_API_KEY", ""),

		BackupDir:           getEnv("BACKUP_DIR", "./backups"),
		BackupRetentionDays: getEnvInt("BACKUP_RETENTION_DAYS", 30),
		BackupEncrypt:       getEnvBool("BACKUP_ENCRYPT", false),
		BackupPassphrase:    getEnv("BACKUP_PASSPHRASE", ""),
		BackupKeyLength:     getEnvInt("BACKUP_KEY_LENGTH", 32),
		BackupKDFIterations: getEnvInt("BACKUP_KDF_ITERATIONS", 100000),

		EmailSender: getEnv("EMAIL_SENDER", ""),
		Password:    getEnv("PASSWORD", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.BackupEncrypt && AppConfig.BackupPassphrase == "" {
		log.Println("Warning: BACKUP_ENCRYPT is on but BACKUP_PASSPHRASE is empty. Backups will fail until it is set.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvBool retrieves an environment variable as a boolean or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
