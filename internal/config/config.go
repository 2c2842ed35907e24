package config // package config loads application configuration from environment variables

import (
	"errors"  // errors distinguishes a missing .env file from a broken one
	"io/fs"   // fs.ErrNotExist for the optional .env file
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses interval settings

	"github.com/joho/godotenv" // godotenv loads KEY=VALUE pairs from .env files
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
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

	Reservation ReservationConfig // booking policy
	Queue       QueueConfig       // RabbitMQ publisher / consumer settings

	TokenPurgeInterval time.Duration // how often expired refresh tokens are deleted
	AutoMigrate        bool          // apply the embedded schema on start
}

// ReservationConfig tunes the booking service.
type ReservationConfig struct {
	AllowEmpty  bool // accept reservations without tickets
	PageSize    int  // default page size of reservation listings
	MaxPageSize int  // upper bound for ?page_size
}

// QueueConfig describes the RabbitMQ connection and the booking log
// consumer.  An empty URL disables publishing.
type QueueConfig struct {
	URL             string // amqp:// connection string
	Queue           string // durable queue reservation events are published to
	ConsumerEnabled bool   // run the booking consumer inside the server process
	LogDir          string // directory holding booking.log
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding values already present in the environment.  A missing file
// is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	if err := LoadDotEnv(); err != nil {
		log.Fatalf("config: load .env: %v", err)
	}
	return Config{
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
		BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor

		Reservation:        LoadReservationConfig(),
		Queue:              LoadQueueConfig(),
		TokenPurgeInterval: envDur("TOKEN_PURGE_INTERVAL", time.Hour),
		AutoMigrate:        envBool("DB_AUTO_MIGRATE", false),
	}
}

// LoadReservationConfig reads the booking policy.  Page sizes are
// clamped so that 1 <= PageSize <= MaxPageSize.
func LoadReservationConfig() ReservationConfig {
	rc := ReservationConfig{
		AllowEmpty:  envBool("RESERVATION_ALLOW_EMPTY", false),
		PageSize:    envInt("RESERVATION_PAGE_SIZE", 10),
		MaxPageSize: envInt("RESERVATION_MAX_PAGE_SIZE", 100),
	}
	if rc.MaxPageSize < 1 {
		rc.MaxPageSize = 100
	}
	if rc.PageSize < 1 {
		rc.PageSize = 10
	}
	if rc.PageSize > rc.MaxPageSize {
		rc.PageSize = rc.MaxPageSize
	}
	return rc
}

// LoadQueueConfig reads RABBITMQ_URL (or the older AMQP_URL) and the
// consumer switches.
func LoadQueueConfig() QueueConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return QueueConfig{
		URL:             url,
		Queue:           envStr("RABBITMQ_QUEUE", "reservation_created"),
		ConsumerEnabled: envBool("BOOKING_CONSUMER_ENABLED", false),
		LogDir:          envStr("BOOKING_LOG_DIR", "logs"),
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
