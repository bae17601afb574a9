package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
    "time"
)

// Blacklist backends accepted in BLACKLIST_BACKEND.
const (
    BlacklistSQL   = "sql"
    BlacklistRedis = "redis"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables are enforced by must(); the
// rest fall back to defaults.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing

    LogLevel            string        // debug, info, warn or error
    PageSize            int           // page size for paginated listings
    AutoMigrate         bool          // create tables on startup
    BlacklistBackend    string        // "sql" or "redis"
    BlacklistGCInterval time.Duration // purge interval for the sql blacklist; 0 disables
    AMQPURL             string        // RabbitMQ URL for book events; empty disables publishing
}

// AccessTTL returns the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL returns the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
    return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required values cause the program to exit with a fatal
// log message.
func Load() Config {
    cfg := Config{
        Env:            must("APP_ENV"),                   // environment (dev/test/prod)
        Port:           must("APP_PORT"),                  // port to bind the HTTP server
        DBUser:         must("DB_USER"),                   // database user
        DBPass:         os.Getenv("DB_PASS"),              // database password (empty allowed)
        DBHost:         must("DB_HOST"),                   // database host
        DBPort:         must("DB_PORT"),                   // database port
        DBName:         must("DB_NAME"),                   // database name
        JWTSecret:      must("JWT_SECRET"),                // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        BcryptCost:     envInt("BCRYPT_COST", 10),

        LogLevel:            envStr("LOG_LEVEL", "info"),
        PageSize:            envInt("PAGE_SIZE", 10),
        AutoMigrate:         envBool("AUTO_MIGRATE", false),
        BlacklistBackend:    strings.ToLower(envStr("BLACKLIST_BACKEND", BlacklistSQL)),
        BlacklistGCInterval: envDur("BLACKLIST_GC_INTERVAL", time.Hour),
        AMQPURL:             envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
    }
    if cfg.PageSize < 1 {
        cfg.PageSize = 10
    }
    if cfg.BlacklistBackend != BlacklistSQL && cfg.BlacklistBackend != BlacklistRedis {
        log.Fatalf("invalid BLACKLIST_BACKEND: %q", cfg.BlacklistBackend)
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
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
