// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultRegistrationFee = 500
	defaultReferralReward  = 30
	defaultCurrency        = "ETB"
	defaultPort            = "8080"
	UpdateModePolling      = "polling"
	UpdateModeWebhook      = "webhook"
)

// PayeeAccount is where students send the registration fee for one payment method.
type PayeeAccount struct {
	Number string
	Name   string
}

// Config holds every application setting.
// It is built once in main and passed to every component.
type Config struct {
	TelegramToken string
	BotUsername   string
	AppEnv        string
	DatabaseURL   string
	AdminChatIDs  []int64

	// Hex AES-256 key for payout account numbers stored in Postgres.
	AccountEncryptionKeyHex string

	RegistrationFee decimal.Decimal
	ReferralReward  decimal.Decimal
	Currency        string

	TeleBirr PayeeAccount
	CBEBirr  PayeeAccount

	Port          string
	UpdateMode    string
	WebhookURL    string
	WebhookSecret string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// LoadConfig reads the configuration from environment variables.
// Bad numeric values are logged and replaced by defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_APITOKEN"),
		BotUsername:   strings.TrimPrefix(os.Getenv("BOT_USERNAME"), "@"),
		AppEnv:        os.Getenv("ENV"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Currency:      fallback(os.Getenv("CURRENCY"), defaultCurrency),
		TeleBirr: PayeeAccount{
			Number: fallback(os.Getenv("TELEBIRR_ACCOUNT"), "0900000000"),
			Name:   fallback(os.Getenv("TELEBIRR_NAME"), "Tutorial Registration"),
		},
		CBEBirr: PayeeAccount{
			Number: fallback(os.Getenv("CBE_ACCOUNT"), "1000000000000"),
			Name:   fallback(os.Getenv("CBE_NAME"), "Tutorial Registration"),
		},
		Port:       fallback(os.Getenv("PORT"), defaultPort),
		UpdateMode: strings.ToLower(fallback(os.Getenv("UPDATE_MODE"), UpdateModePolling)),
		WebhookURL: strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		LogFile:    strings.TrimSpace(os.Getenv("LOG_FILE")),

		WebhookSecret:           strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		AccountEncryptionKeyHex: strings.TrimSpace(os.Getenv("ACCOUNT_ENCRYPTION_KEY_HEX")),
	}

	cfg.RegistrationFee = parseAmount("REGISTRATION_FEE", defaultRegistrationFee)
	cfg.ReferralReward = parseAmount("REFERRAL_REWARD", defaultReferralReward)
	cfg.AdminChatIDs = parseIDs("ADMIN_CHAT_IDS")
	cfg.LogMaxSizeMB = parseInt("LOG_MAX_SIZE_MB", 50)
	cfg.LogMaxBackups = parseInt("LOG_MAX_BACKUPS", 5)
	cfg.LogMaxAgeDays = parseInt("LOG_MAX_AGE_DAYS", 30)

	if cfg.UpdateMode != UpdateModePolling && cfg.UpdateMode != UpdateModeWebhook {
		log.Printf("Warning: unknown UPDATE_MODE %q, using %s.", cfg.UpdateMode, UpdateModePolling)
		cfg.UpdateMode = UpdateModePolling
	}
	if cfg.UpdateMode == UpdateModeWebhook && cfg.WebhookURL == "" {
		log.Println("Warning: UPDATE_MODE=webhook but WEBHOOK_URL is empty; Telegram will not deliver updates until it is set.")
	}
	if cfg.TelegramToken == "" {
		log.Println("Critical: TELEGRAM_APITOKEN is not set.")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL is not set, using the in-memory store. Data is lost on restart.")
	}
	if len(cfg.AdminChatIDs) == 0 {
		log.Println("Warning: ADMIN_CHAT_IDS is empty, nobody can approve payments.")
	}
	if cfg.BotUsername == "" {
		log.Println("Warning: BOT_USERNAME is not set, referral links are unavailable.")
	}

	log.Println("Configuration loaded.")
	return cfg, nil
}

// IsAdmin reports whether chatID is listed in ADMIN_CHAT_IDS.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// Payee returns the fee account for a payment method.
func (c *Config) Payee(method string) (PayeeAccount, bool) {
	switch method {
	case "TeleBirr":
		return c.TeleBirr, true
	case "CBE Birr":
		return c.CBEBirr, true
	}
	return PayeeAccount{}, false
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseAmount(key string, def int64) decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return decimal.NewFromInt(def)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		log.Printf("Warning: invalid %s (%q): %v. Using default %d.", key, raw, err, def)
		return decimal.NewFromInt(def)
	}
	return v
}

func parseInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("Warning: invalid %s (%q): %v. Using default %d.", key, raw, err, def)
		return def
	}
	return v
}

func parseIDs(key string) []int64 {
	var out []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Warning: could not parse %s entry %q: %v. Skipped.", key, part, err)
			continue
		}
		out = append(out, id)
	}
	return out
}
