package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	DBMaxOpenConns   int    // connection pool: max open connections
	DBMaxIdleConns   int    // connection pool: max idle connections
	DBConnLifeMin    int    // connection pool: max connection lifetime in minutes
	JWTSecret        string // secret used to sign JWTs
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing
	CodeTTLMin       int    // verification code time-to-live in minutes
	ResendThrottleS  int    // minimum seconds between verification-code resends
	SweepIntervalMin int    // minutes between booking completion sweeps
	SMTPHost         string // SMTP relay host; empty disables real delivery
	SMTPPort         string // SMTP relay port
	SMTPUser         string // SMTP auth username (optional)
	SMTPPass         string // SMTP auth password (optional)
	MailFrom         string // From address on verification mail
}

// Load reads configuration from the environment. Auth/booking policy
// knobs have design defaults (15-minute codes and access tokens, 7-day
// refresh tokens, 60-second resend throttle, 30-minute sweep) and only
// the core server/database/JWT settings are mandatory.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		DBMaxOpenConns:   intDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:   intDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnLifeMin:    intDefault("DB_CONN_MAX_LIFETIME_MIN", 30),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     intDefault("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays:   intDefault("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:       intDefault("BCRYPT_COST", 12),
		CodeTTLMin:       intDefault("VERIFICATION_CODE_TTL_MIN", 15),
		ResendThrottleS:  intDefault("RESEND_CODE_THROTTLE_SECONDS", 60),
		SweepIntervalMin: intDefault("BOOKING_SWEEP_INTERVAL_MIN", 30),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getenv("SMTP_PORT", "587"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		MailFrom:         getenv("MAIL_FROM", "no-reply@tourly.com"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
