package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time expresses durations derived from integer settings
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, and a slice for the authentication bypass path list.
type Config struct {
	Env                 string   // application environment (e.g. "dev", "prod")
	Port                string   // HTTP port to listen on
	DBUser              string   // database username
	DBPass              string   // database password (optional)
	DBHost              string   // database host address
	DBPort              string   // database port number
	DBName              string   // database name
	JWTSecret           string   // secret used to sign access tokens
	SessionTTLDays      int      // validity of a session record and its token, in days
	RevalidateWindowMin int      // minimum minutes between last-validated-at refreshes
	BcryptCost          int      // bcrypt cost for password hashing
	AuthBypassPaths     []string // exact request paths the session gate skips entirely
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Session tuning
// values fall back to the defaults the auth subsystem was designed around:
// a 7-day session window and a 5-minute re-validation debounce.
func Load() Config {
	return Config{
		Env:                 must("APP_ENV"),
		Port:                must("APP_PORT"),
		DBUser:              must("DB_USER"),
		DBPass:              os.Getenv("DB_PASS"), // empty allowed
		DBHost:              must("DB_HOST"),
		DBPort:              must("DB_PORT"),
		DBName:              must("DB_NAME"),
		JWTSecret:           must("JWT_SECRET"),
		SessionTTLDays:      intDefault("SESSION_TTL_DAYS", 7),
		RevalidateWindowMin: intDefault("REVALIDATE_WINDOW_MIN", 5),
		BcryptCost:          mustInt("BCRYPT_COST"),
		AuthBypassPaths:     parsePaths(getenv("AUTH_BYPASS_PATHS", "/api/v1/auth/logout")),
	}
}

// SessionTTL returns the configured session validity as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

// RevalidateWindow returns the re-validation debounce as a duration.
func (c Config) RevalidateWindow() time.Duration {
	return time.Duration(c.RevalidateWindowMin) * time.Minute
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
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intDefault reads an optional integer variable, falling back to def when
// the variable is unset and exiting when it is set but not a number.
func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// parsePaths splits a comma-separated path list, trimming whitespace and
// dropping empty entries. Matching against the result is exact, so each
// entry must be a full request path.
func parsePaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
