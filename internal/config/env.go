package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Persistence
	DBPath         string
	WhatsAppDBPath string

	// HTTP
	HTTPPort int

	// All appointment dates and times are interpreted in this zone.
	SalonTimezone string

	// Google Calendar
	GoogleCredentialsFile string
	GoogleTokenFile       string

	// Admin notification channels
	ResendAPIKey      string
	ResendFromAddress string
	AppURL            string
	AdminEmail        string

	TelegramAPIID       int
	TelegramAPIHash     string
	TelegramSessionPath string
	TelegramAdminChat   string
}

func LoadFromEnv() *Config {
	return &Config{
		DBPath:         getEnvOrDefault("SALONBOOK_DB_PATH", "./salonbook.db"),
		WhatsAppDBPath: getEnvOrDefault("SALONBOOK_WHATSAPP_DB_PATH", "./whatsapp.db"),

		HTTPPort: getEnvAsIntOrDefault("SALONBOOK_HTTP_PORT", 8080),

		SalonTimezone: getEnvOrDefault("SALONBOOK_TIMEZONE", "Asia/Jerusalem"),

		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),

		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		ResendFromAddress: getEnvOrDefault("RESEND_FROM_ADDRESS", "Salonbook <notifications@salonbook.app>"),
		AppURL:            getEnvOrDefault("SALONBOOK_APP_URL", "http://localhost:8080"),
		AdminEmail:        os.Getenv("SALONBOOK_ADMIN_EMAIL"),

		TelegramAPIID:       getEnvAsIntOrDefault("TELEGRAM_API_ID", 0),
		TelegramAPIHash:     os.Getenv("TELEGRAM_API_HASH"),
		TelegramSessionPath: getEnvOrDefault("TELEGRAM_SESSION_PATH", "./telegram.session"),
		TelegramAdminChat:   os.Getenv("TELEGRAM_ADMIN_CHAT"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
