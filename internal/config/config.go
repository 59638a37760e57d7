package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The user and admin token secrets are kept as
// four independent values so that an admin token can never be replayed as a
// user token or the other way around.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	UserAccessSecret   string // secret for user access tokens
	UserRefreshSecret  string // secret for user refresh tokens
	AdminAccessSecret  string // secret for admin access tokens
	AdminRefreshSecret string // secret for admin refresh tokens

	AccessTTLMin       int // user access token time-to-live in minutes
	AdminAccessTTLHour int // admin access token time-to-live in hours
	RefreshTTLDays     int // refresh token time-to-live in days (both principal types)
	BcryptCost         int // bcrypt cost for password hashing

	SMTPHost string // SMTP server host
	SMTPPort int    // SMTP server port
	SMTPUser string // SMTP username / from address account
	SMTPPass string // SMTP password or app password
	MailFrom string // display name used in the From header

	PredictScript string // path to the classifier script invoked per prediction
	UploadDir     string // directory where uploaded images are stored
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
//
// All four signing secrets are mandatory and the admin pair must differ
// from the user pair; letting admin tokens fall back to the user secrets
// would collapse the two principal types into one trust domain.
func Load() Config {
	cfg := Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		UserAccessSecret:   must("ACCESS_TOKEN_SECRET"),
		UserRefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		AdminAccessSecret:  must("ADMIN_ACCESS_TOKEN_SECRET"),
		AdminRefreshSecret: must("ADMIN_REFRESH_TOKEN_SECRET"),

		AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),
		AdminAccessTTLHour: mustInt("ADMIN_ACCESS_TOKEN_TTL_HOURS"),
		RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:         mustInt("BCRYPT_COST"),

		SMTPHost: must("SMTP_HOST"),
		SMTPPort: mustInt("SMTP_PORT"),
		SMTPUser: must("SMTP_USER"),
		SMTPPass: must("SMTP_PASS"),
		MailFrom: envStr("MAIL_FROM", "Fishmap AI"),

		PredictScript: envStr("PREDICT_SCRIPT", "scripts/predict.py"),
		UploadDir:     envStr("UPLOAD_DIR", "uploads"),
	}
	if cfg.AdminAccessSecret == cfg.UserAccessSecret || cfg.AdminRefreshSecret == cfg.UserRefreshSecret {
		log.Fatal("admin token secrets must differ from user token secrets")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
