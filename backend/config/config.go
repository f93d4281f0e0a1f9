package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	JWTSecret   string
	JWTTTLHours int
	ServerPort  string
	CORSOrigins string

	// BootstrapAdminEmail gets the admin role when its profile is first created.
	BootstrapAdminEmail string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleUserInfoURL  string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// AuditSchedule is a cron spec for the progress audit job. Empty disables it.
	AuditSchedule string

	LogFormat string
	LogColors bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	ttl, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "72"))
	if err != nil || ttl <= 0 {
		ttl = 72
	}

	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "skillsync"),
		SQLitePath: getEnv("SQLITE_PATH", "skillsync.db"),

		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		JWTTTLHours: ttl,
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		BootstrapAdminEmail: strings.TrimSpace(getEnv("BOOTSTRAP_ADMIN_EMAIL", "")),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		GoogleUserInfoURL:  getEnv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@skillsync.local"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "SkillSync"),

		AuditSchedule: getEnv("AUDIT_SCHEDULE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogColors: getEnv("LOG_COLORS", "false") == "true",
	}, nil
}

// GoogleEnabled reports whether federated sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
