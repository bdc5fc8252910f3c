package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime settings for the server, the database and
// the token/credential machinery. Rate-limit and cache tunables have their
// own loaders in ratelimit.go and cache.go.
type Config struct {
	Env  string // deployment environment (dev, test, prod)
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	// AccessSecret and RefreshSecret sign the two token classes. They are
	// independent keys: leaking one must never compromise the other class.
	AccessSecret  string
	RefreshSecret string

	AccessTTL  time.Duration // access token lifetime (minutes in env)
	RefreshTTL time.Duration // refresh token lifetime (days in env)
	BcryptCost int           // bcrypt cost for password hashing

	// CookieSecure is the Secure flag on the refresh-token cookie.
	// Production always forces it on.
	CookieSecure bool
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the process to exit with a fatal log message, so a misconfigured instance
// never starts serving.
func Load() Config {
	cfg := Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		AccessSecret:  must("ACCESS_TOKEN_SECRET"),
		RefreshSecret: must("REFRESH_TOKEN_SECRET"),
		AccessTTL:     time.Duration(mustInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
		RefreshTTL:    time.Duration(mustInt("REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		BcryptCost:    mustInt("BCRYPT_COST"),
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		log.Fatal("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be distinct")
	}
	cfg.CookieSecure = cfg.Env == "prod" || cfg.Env == "production"
	return cfg
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

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
