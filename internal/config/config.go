package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strings"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env               string   // application environment (local, dev, prod)
    Port              string   // HTTP port to listen on
    LogLevel          string   // zerolog level name
    DBDriver          string   // mysql | postgres | sqlite
    DBUser            string   // database username
    DBPass            string   // database password (optional)
    DBHost            string   // database host address
    DBPort            string   // database port number
    DBName            string   // database name
    DBPath            string   // sqlite file path
    JWTSecret         string   // secret used to sign admin JWTs
    AccessTTLMin      int      // admin access token time-to-live in minutes
    AdminUsername     string   // admin login name
    AdminPasswordHash string   // bcrypt hash of the admin password
    BcryptCost        int      // bcrypt cost used by the hash-password helper
    ConsentVersion    string   // version of the privacy notice the consent refers to
    RabbitURL         string   // broker URL; empty disables queued mail
    CORSOrigins       []string // allowed browser origins
    TrustedProxies    []string // CIDRs or IPs allowed to set X-Forwarded-For; empty means use the peer address
}

// Load reads an optional .env file and then the environment.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // .env is optional; real env vars win

    driver := getenv("DB_DRIVER", "mysql")
    cfg := Config{
        Env:               getenv("APP_ENV", "local"),
        Port:              getenv("APP_PORT", "8080"),
        LogLevel:          getenv("LOG_LEVEL", "info"),
        DBDriver:          driver,
        DBPass:            os.Getenv("DB_PASS"),
        DBPath:            getenv("DB_PATH", "data/reservations.db"),
        JWTSecret:         must("JWT_SECRET"),
        AccessTTLMin:      envInt("ACCESS_TOKEN_TTL_MIN", 60),
        AdminUsername:     getenv("ADMIN_USERNAME", "admin"),
        AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
        BcryptCost:        BcryptCost(),
        ConsentVersion:    getenv("CONSENT_VERSION", "1.0"),
        RabbitURL:         rabbitURL(),
        CORSOrigins:       splitList(getenv("CORS_ORIGINS", "*")),
        TrustedProxies:    splitList(os.Getenv("TRUSTED_PROXIES")),
    }
    // sqlite needs no network coordinates
    if driver != "sqlite" {
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
}

// DatabaseConfigured reports whether enough settings are present to reach
// the database.
func (c Config) DatabaseConfigured() bool {
    if c.DBDriver == "sqlite" {
        return c.DBPath != ""
    }
    return c.DBHost != "" && c.DBName != "" && c.DBUser != ""
}

// BcryptCost reads BCRYPT_COST without requiring the rest of the config.
func BcryptCost() int { return envInt("BCRYPT_COST", 12) }

// rabbitURL reads RABBITMQ_URL, falling back to AMQP_URL.
func rabbitURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
    out := make([]string, 0)
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
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
