package config

import (
	"crypto/rand"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string
	LogLevel    string
	LogFormat   string

	// Redis configuration
	RedisAddress  string
	RedisPassword string

	// Session configuration
	JWTSecret  string
	SessionTTL time.Duration

	FrontendAddress string

	// Object storage: "s3", "minio", "postgres" or "memory"
	StorageDriver      string
	AWSRegion          string
	S3Endpoint         string
	S3ForcePathStyle   bool
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	MinioEndpoint      string
	MinioUseSSL        bool

	// Database configuration (postgres storage driver)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Template dataset locations
	TemplatesBucket    string
	TemplatesKey       string
	TemplatesOverlay   string
	TemplatesColorsKey string
	// "buffer" downloads the parquet file, "url" reads it through a presigned URL
	DatasetSource string
	PresignExpiry time.Duration

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Mail: "gmail" or "ses"
	MailDriver string
	SESRegion  string
	SESFrom    string

	SendRateLimit  int
	SendRateWindow time.Duration
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32) // Generate a 32-byte random secret if not declared
		log.Println("Generated random JWT secret")
	}

	AppConfig = Config{
		ServerPort:         getEnv("PORT", "8080"),
		Environment:        getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		RedisAddress:       getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		JWTSecret:          jwtSecret,
		SessionTTL:         getDuration("SESSION_TTL", 7*24*time.Hour),
		FrontendAddress:    getEnv("FRONTEND_ADDRESS", "http://localhost:3000"),
		StorageDriver:      getEnv("STORAGE_DRIVER", "s3"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         getEnv("AWS_S3_ENDPOINT", ""),
		S3ForcePathStyle:   getBool("AWS_S3_FORCE_PATH_STYLE", false),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioUseSSL:        getBool("MINIO_USE_SSL", false),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "template_mailer"),
		TemplatesBucket:    getEnv("TEMPLATES_BUCKET", "templates"),
		TemplatesKey:       getEnv("TEMPLATES_KEY", "templates.parquet"),
		TemplatesOverlay:   getEnv("TEMPLATES_OVERLAY_KEY", "templates_overlay.json"),
		TemplatesColorsKey: getEnv("TEMPLATES_COLORS_KEY", "templates_colors.json"),
		DatasetSource:      getEnv("DATASET_SOURCE", "buffer"),
		PresignExpiry:      getDuration("PRESIGN_EXPIRY", 5*time.Minute),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		MailDriver:         getEnv("MAIL_DRIVER", "gmail"),
		SESRegion:          getEnv("SES_REGION", "us-east-1"),
		SESFrom:            getEnv("SES_FROM", ""),
		SendRateLimit:      getInt("SEND_RATE_LIMIT", 20),
		SendRateWindow:     getDuration("SEND_RATE_WINDOW", time.Minute),
	}

	return &AppConfig
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getDuration accepts Go duration strings ("90s", "15m")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// generateRandomSecret generates a random secret of the specified length
func generateRandomSecret(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secret := make([]byte, length)
	for i := range secret {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic(err)
		}
		secret[i] = charset[n.Int64()]
	}
	return string(secret)
}
