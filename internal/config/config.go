package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported authentication providers.
const (
	AuthProviderFirebase = "firebase"
	AuthProviderLocal    = "local"
)

// Supported directory backends for staff and owner records.
const (
	DirectoryFirestore = "firestore"
	DirectoryPostgres  = "postgres"
	DirectoryMemory    = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Firebase     FirebaseConfig
	Directory    DirectoryConfig
	Identity     IdentityConfig
	Events       EventsConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication and session cookie parameters.
type AuthConfig struct {
	Provider             string
	SessionCookieName    string
	SessionTTLHours      int
	CookieSecure         bool
	LocalSecret          string
	LocalAccounts        string
	LocalTokenTTLMinutes int
}

// FirebaseConfig points at the Firebase project used for auth and Firestore.
type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
}

// DirectoryConfig selects where staff and owner records are read from.
type DirectoryConfig struct {
	Backend         string
	StaffCollection string
	OwnerCollection string
	SeedFile        string
}

// IdentityConfig tunes role resolution.
type IdentityConfig struct {
	LookupTimeoutSeconds int
	CacheTTLSeconds      int
	// RefreshSeconds is how long a published identity serves page loads
	// before it is resolved again. Negative keeps it until the next sign-in.
	RefreshSeconds int
}

// EventsConfig names the pub/sub channel used to fan out identity events.
type EventsConfig struct {
	RedisChannel string
}

// NotificationConfig controls sign-in push notifications sent through FCM.
type NotificationConfig struct {
	PushEnabled bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "restaurant-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Provider:             strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderFirebase)),
			SessionCookieName:    getEnv("AUTH_SESSION_COOKIE_NAME", "__session"),
			SessionTTLHours:      getEnvAsInt("AUTH_SESSION_TTL_HOURS", 24),
			CookieSecure:         getEnvAsBool("AUTH_COOKIE_SECURE", true),
			LocalSecret:          getEnv("AUTH_LOCAL_SECRET", "dev-secret"),
			LocalAccounts:        os.Getenv("AUTH_LOCAL_ACCOUNTS"),
			LocalTokenTTLMinutes: getEnvAsInt("AUTH_LOCAL_TOKEN_TTL_MINUTES", 60),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		},
		Directory: DirectoryConfig{
			Backend:         strings.ToLower(getEnv("DIRECTORY_BACKEND", DirectoryFirestore)),
			StaffCollection: getEnv("DIRECTORY_STAFF_COLLECTION", "users"),
			OwnerCollection: getEnv("DIRECTORY_OWNER_COLLECTION", "restaurants"),
			SeedFile:        os.Getenv("DIRECTORY_SEED_FILE"),
		},
		Identity: IdentityConfig{
			LookupTimeoutSeconds: getEnvAsInt("IDENTITY_LOOKUP_TIMEOUT_SECONDS", 10),
			CacheTTLSeconds:      getEnvAsInt("IDENTITY_CACHE_TTL_SECONDS", 300),
			RefreshSeconds:       getEnvAsInt("IDENTITY_REFRESH_SECONDS", 0),
		},
		Events: EventsConfig{
			RedisChannel: getEnv("EVENTS_REDIS_CHANNEL", "restaurant-console:identity"),
		},
		Notification: NotificationConfig{
			PushEnabled: getEnvAsBool("NOTIFY_PUSH_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Auth.Provider {
	case AuthProviderFirebase, AuthProviderLocal:
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.Auth.Provider)
	}
	switch c.Directory.Backend {
	case DirectoryFirestore:
	case DirectoryPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres directory")
		}
	case DirectoryMemory:
	default:
		return fmt.Errorf("unsupported DIRECTORY_BACKEND %q", c.Directory.Backend)
	}
	if c.Auth.SessionCookieName == "" {
		return fmt.Errorf("AUTH_SESSION_COOKIE_NAME is required")
	}
	if c.Auth.Provider == AuthProviderLocal && c.Auth.LocalSecret == "" {
		return fmt.Errorf("AUTH_LOCAL_SECRET is required for the local provider")
	}
	return nil
}

// NeedsFirebase reports whether any component talks to the Firebase project.
func (c *Config) NeedsFirebase() bool {
	return c.Auth.Provider == AuthProviderFirebase ||
		c.Directory.Backend == DirectoryFirestore ||
		c.Notification.PushEnabled
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL is the lifetime of the session cookie.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// LookupTimeout bounds a single role resolution.
func (i IdentityConfig) LookupTimeout() time.Duration {
	if i.LookupTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(i.LookupTimeoutSeconds) * time.Second
}

// CacheTTL is how long a successful resolution is reused. Zero disables caching.
func (i IdentityConfig) CacheTTL() time.Duration {
	if i.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(i.CacheTTLSeconds) * time.Second
}

// SessionMaxAge is the age after which a page load re-resolves the session.
// Zero re-resolves on every load; negative never does.
func (i IdentityConfig) SessionMaxAge() time.Duration {
	if i.RefreshSeconds < 0 {
		return -1
	}
	return time.Duration(i.RefreshSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
