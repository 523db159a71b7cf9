package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "dev-session-secret"

type Config struct {
	// WebPort is the port the web UI listens on (default 3000).
	WebPort string

	// APIURL is the base address of the remote blog API.
	APIURL string
	// APITimeout bounds each call to the blog API (default 15s).
	APITimeout time.Duration

	// AuthHeader and AuthScheme control how the session token is attached.
	// An empty scheme sends the bare token.
	AuthHeader string
	AuthScheme string

	// LoginPath is the API endpoint that exchanges credentials for a token.
	LoginPath string

	// SessionSecret signs the session cookie. Required when Env is "prod".
	SessionSecret string
	SessionCookie string
	// SessionMaxAgeHours is the cookie lifetime (default 24).
	SessionMaxAgeHours int
	// CookieSecure marks the session cookie Secure; set it when serving HTTPS.
	CookieSecure bool

	// Env is "dev" (default) or "prod".
	Env string

	// LogFormat is "text" (default) or "json". LogLevel is debug, info, warn or error.
	LogFormat string
	LogLevel  string

	// LoginRatePerMinute limits login and register attempts per client IP (default 10).
	LoginRatePerMinute int
	// MaxFormBytes caps form submissions (default 1 MiB).
	MaxFormBytes int64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: could not read .env", "error", err)
	}

	return Config{
		WebPort: getEnv("WEB_PORT", "3000"),

		APIURL:     strings.TrimRight(getEnv("BLOGSTER_API_URL", "http://localhost:5000"), "/"),
		APITimeout: getEnvDuration("API_TIMEOUT", 15*time.Second),

		AuthHeader: getEnv("AUTH_HEADER", "Authorization"),
		AuthScheme: getEnvAllowEmpty("AUTH_SCHEME", "Bearer"),
		LoginPath:  getEnv("LOGIN_PATH", "/Auth/Login"),

		SessionSecret:      getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionCookie:      getEnv("SESSION_COOKIE", "blogster_session"),
		SessionMaxAgeHours: getEnvInt("SESSION_MAX_AGE_HOURS", 24),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),

		Env: getEnv("ENV", "dev"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		MaxFormBytes:       int64(getEnvInt("MAX_FORM_BYTES", 1<<20)),
	}
}

// Validate rejects settings that are unsafe outside development.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("BLOGSTER_API_URL must be set")
	}
	if c.Env == "prod" && (c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret) {
		return errors.New("SESSION_SECRET must be set when ENV=prod")
	}
	return nil
}

// SessionMaxAge returns SessionMaxAgeHours as a duration.
func (c Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeHours) * time.Hour
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty returns the variable even when it is set to "".
func getEnvAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
