package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken    string
	TransportMode    string
	WebhookSecret    string
	WebhookPublicURL string
	HTTPAddr         string

	StoreDriver      string
	DatabaseURL      string
	DBAutoMigrate    bool
	DBTxMaxAttempts  int
	SendgridAPIKey   string
	MailFromAddress  string
	MailFromName     string
	TeacherCommand   string
	Location         *time.Location
	StickerFileIDs   map[string]string
	ActionTTL        time.Duration
	ResponderMinimum float64

	CronSpecDigest string // daily summary mail to staff
	CronSpecSweep  string // removal of abandoned in-flight actions

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.TransportMode = strings.ToLower(getenv("TRANSPORT_MODE", TransportPolling))
	switch cfg.TransportMode {
	case TransportPolling:
	case TransportWebhook:
		cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
		if cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("WEBHOOK_SECRET is not set")
		}
		cfg.WebhookPublicURL = os.Getenv("WEBHOOK_PUBLIC_URL")
	default:
		return nil, fmt.Errorf("invalid TRANSPORT_MODE %q", cfg.TransportMode)
	}
	cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")

	cfg.StoreDriver = strings.ToLower(getenv("STORE_DRIVER", StorePostgres))
	switch cfg.StoreDriver {
	case StorePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.DBAutoMigrate, err = strconv.ParseBool(getenv("DB_AUTO_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}
	cfg.DBTxMaxAttempts, err = strconv.Atoi(getenv("DB_TX_MAX_ATTEMPTS", "3"))
	if err != nil || cfg.DBTxMaxAttempts < 1 {
		return nil, fmt.Errorf("invalid DB_TX_MAX_ATTEMPTS %q", os.Getenv("DB_TX_MAX_ATTEMPTS"))
	}

	cfg.SendgridAPIKey = os.Getenv("SENDGRID_API_KEY")
	cfg.MailFromAddress = getenv("MAIL_FROM_ADDRESS", "noreply@example.com")
	cfg.MailFromName = getenv("MAIL_FROM_NAME", "Attendance Notice Bot")
	cfg.TeacherCommand = getenv("TEACHER_COMMAND", "Teacher on")

	cfg.Location, err = time.LoadLocation(getenv("TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.StickerFileIDs, err = parsePairs(os.Getenv("STICKER_FILE_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid STICKER_FILE_IDS: %w", err)
	}

	cfg.ActionTTL, err = time.ParseDuration(getenv("ACTION_TTL", "48h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTION_TTL: %w", err)
	}
	cfg.ResponderMinimum, err = strconv.ParseFloat(getenv("RESPONDER_THRESHOLD", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RESPONDER_THRESHOLD: %w", err)
	}

	cfg.CronSpecDigest = getenv("CRON_SPEC_DIGEST", "0 18 * * 1-5") // Default: 18:00 on weekdays
	cfg.CronSpecSweep = getenv("CRON_SPEC_SWEEP", "0 3 * * *")      // Default: 03:00 daily

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parsePairs reads "a=1,b=2" lists.
func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, item := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("malformed entry %q", item)
		}
		out[k] = v
	}
	return out, nil
}
