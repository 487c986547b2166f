package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The struct is built once in main and passed by
// value to every component that needs it; nothing mutates it afterwards.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    LoginLimit     int    // consecutive failed logins before an account is deactivated

    SMTPHost     string // SMTP server address
    SMTPPort     int    // SMTP server port
    SMTPUser     string // SMTP username (empty disables outbound mail)
    SMTPPass     string // SMTP password
    SMTPFrom     string // sender address used on all outgoing mail
    SMTPStartTLS bool   // use STARTTLS instead of implicit TLS

    OAuthClientID     string // client id for the external calendar provider
    OAuthClientSecret string // client secret for the external calendar provider
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Token lifetimes and
// the login-attempt limit fall back to their documented defaults.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   intOr("ACCESS_TOKEN_TTL_MIN", 60),
        RefreshTTLDays: intOr("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:     intOr("BCRYPT_COST", 12),
        LoginLimit:     intOr("LOGIN_ATTEMPT_LIMIT", 5),

        SMTPHost:     os.Getenv("SMTP_HOST"),
        SMTPPort:     intOr("SMTP_PORT", 587),
        SMTPUser:     os.Getenv("SMTP_USERNAME"),
        SMTPPass:     os.Getenv("SMTP_PASSWORD"),
        SMTPFrom:     os.Getenv("SMTP_FROM"),
        SMTPStartTLS: boolOr("SMTP_STARTTLS", true),

        OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
        OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
    }
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

// intOr converts an optional environment variable to an integer, falling
// back to def when the variable is unset.  An unparseable value is fatal.
func intOr(key string, def int) int {
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

// boolOr converts an optional environment variable to a bool, falling back
// to def when the variable is unset or unrecognised.
func boolOr(key string, def bool) bool {
    switch os.Getenv(key) {
    case "1", "true", "TRUE", "True", "yes", "on":
        return true
    case "0", "false", "FALSE", "False", "no", "off":
        return false
    }
    return def
}
