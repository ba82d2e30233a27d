// Package config loads application configuration from environment
// variables.  Required settings halt startup when missing; optional
// subsystems (payments, mail, broker) are disabled by leaving their
// variables empty.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field maps to
// one environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	SiteURL        string // public base URL, used in emails and payment return URLs
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Optional subsystems.  Empty values disable the feature and the
	// application degrades gracefully.
	MPAccessToken string // Mercado Pago access token; empty disables checkout
	RabbitURL     string // AMQP broker URL; empty falls back to the local default
	SMTPHost      string // SMTP server; empty disables outgoing mail
	SMTPPort      int    // SMTP port (default 587)
	SMTPUser      string // SMTP auth user
	SMTPPass      string // SMTP auth password
	MailFrom      string // sender address on outgoing mail
}

// Load reads configuration from the environment.  Missing required
// variables cause a fatal log and exit.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		SiteURL:        must("SITE_URL"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		MPAccessToken: os.Getenv("MP_ACCESS_TOKEN"),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      atoi(getenv("SMTP_PORT", "587")),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		MailFrom:      getenv("MAIL_FROM", "agenda@example.com"),
	}
}

// must retrieves a required environment variable.  If the variable is
// unset or empty the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
