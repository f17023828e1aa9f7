package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig holds outbound mail settings for contact-form notifications.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string // Inbox that receives new leads
}

// Enabled reports whether enough settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.To != ""
}

// DefaultJWTSecret signs admin tokens when JWT_SECRET is unset. Production
// refuses to start with it.
const DefaultJWTSecret = "dev-secret-change-in-production"

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Site
	SiteURL      string
	ContactPhone string

	// Snapshot store
	SnapshotBackend string // "file" or "postgres"
	SnapshotDir     string
	DatabaseURL     string
	DefaultRegion   string
	HistoryKeep     int // Postgres revisions kept per region; 0 keeps all

	// Rates
	StaleAfter        time.Duration // Snapshot age that gets flagged stale
	FetchCacheTTL     time.Duration // Pre-render fetch cache lifetime
	RatesAPIBaseURL   string
	CachePath         string // SQLite file for the pre-render cache
	PaymentPrincipal  int64  // Reference loan used when a source omits payments
	AmortizationYears int

	// Admin
	JWTSecret         string
	AdminPasswordHash string // bcrypt hash; empty disables admin login

	// CORS
	AllowedOrigins []string

	// Contact
	SMTP SMTPConfig

	// Scraper
	ScraperEnabled  bool
	ScraperSchedule string        // Cron expression (e.g., "0 6 * * *" for daily at 06:00)
	ScraperTimeout  time.Duration // Timeout for complete scrape cycle
	ProducersFile   string
	ScrapingAPIURL  string
	ScrapingAPIKey  string
}

func Load() *Config {
	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Site
		SiteURL:      strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		ContactPhone: getEnv("CONTACT_PHONE", "1-800-555-0199"),

		// Snapshot store
		SnapshotBackend: getEnv("SNAPSHOT_BACKEND", "file"),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", "./data/rates"),
		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/keystone?sslmode=disable"),
		DefaultRegion:   getEnv("DEFAULT_REGION", "toronto"),
		HistoryKeep:     getIntEnv("SNAPSHOT_HISTORY_KEEP", 30),

		// Rates
		StaleAfter:        getDurationEnv("RATES_STALE_AFTER", 96*time.Hour),
		FetchCacheTTL:     getDurationEnv("RATES_FETCH_CACHE_TTL", 4*time.Hour),
		RatesAPIBaseURL:   strings.TrimRight(getEnv("RATES_API_BASE_URL", "http://localhost:8080"), "/"),
		CachePath:         getEnv("RATES_CACHE_PATH", "./data/rates-cache.db"),
		PaymentPrincipal:  int64(getIntEnv("PAYMENT_PRINCIPAL", 400000)),
		AmortizationYears: getIntEnv("AMORTIZATION_YEARS", 25),

		// Admin
		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		// Contact
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("CONTACT_FROM_EMAIL", "noreply@keystonemortgage.ca"),
			To:       getEnv("CONTACT_TO_EMAIL", "leads@keystonemortgage.ca"),
		},

		// Scraper
		ScraperEnabled:  getBoolEnv("SCRAPER_ENABLED", false),
		ScraperSchedule: getEnv("SCRAPER_SCHEDULE", "0 6 * * *"), // Default: daily at 06:00
		ScraperTimeout:  getDurationEnv("SCRAPER_TIMEOUT", 5*time.Minute),
		ProducersFile:   getEnv("PRODUCERS_FILE", "./producers.yaml"),
		ScrapingAPIURL:  os.Getenv("SCRAPING_API_URL"),
		ScrapingAPIKey:  os.Getenv("SCRAPING_API_KEY"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// UsePostgres reports whether snapshots live in Postgres rather than on disk.
func (c *Config) UsePostgres() bool {
	return c.SnapshotBackend == "postgres"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
