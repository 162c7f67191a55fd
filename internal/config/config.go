package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BradenHooton/calcvault/internal/gate"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Session  SessionConfig
	Vault    VaultConfig
}

type DatabaseConfig struct {
	Driver            string
	SQLitePath        string
	Table             string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port               string
	Env                string
	LogLevel           string
	AllowedOrigins     []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	StaticDir          string
	RateLimitPerMinute int
	AdminRoutesEnabled bool
	TrustedProxies     []string
}

type SessionConfig struct {
	Secret         string
	TTL            time.Duration
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
	CookieSecure   bool
	CookieSameSite string
}

type VaultConfig struct {
	DefaultPIN    string
	SuccessDelay  time.Duration
	FailureDelay  time.Duration
	MaxViolations int
}

// Load reads the full server configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := getEnv("SESSION_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	cfg, err := loadStore()
	if err != nil {
		return nil, err
	}
	env := cfg.Server.Env

	cfg.Server = ServerConfig{
		Port:               getEnv("PORT", "8080"),
		Env:                env,
		LogLevel:           cfg.Server.LogLevel,
		AllowedOrigins:     parseAllowedOrigins(env),
		ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		StaticDir:          getEnv("STATIC_DIR", ""),
		RateLimitPerMinute: getEnvAsInt("API_RATE_LIMIT_PER_MINUTE", 120),
		AdminRoutesEnabled: getEnvAsBool("ADMIN_ROUTES_ENABLED", true),
		TrustedProxies:     parseList(getEnv("TRUSTED_PROXIES", "")),
	}
	cfg.Session = SessionConfig{
		Secret:         secret,
		TTL:            getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		IdleTimeout:    getEnvAsDuration("SESSION_IDLE_TIMEOUT", 15*time.Minute),
		SweepInterval:  getEnvAsDuration("SESSION_SWEEP_INTERVAL", 1*time.Minute),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", env == "production"),
		CookieSameSite: getEnv("COOKIE_SAMESITE", "strict"),
	}

	if err := validateSessionSecret(secret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStore reads only what the admin CLI needs to open the store: the
// database, vault, env and log level settings. No session secret is required.
func LoadStore() (*Config, error) {
	_ = godotenv.Load()
	return loadStore()
}

func loadStore() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver:            strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			SQLitePath:        getEnv("SQLITE_PATH", "vault.db"),
			Table:             getEnv("KV_TABLE", "vault_kv"),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "calcvault"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 1)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Vault: VaultConfig{
			DefaultPIN:    getEnv("VAULT_DEFAULT_PIN", "1234"),
			SuccessDelay:  getEnvAsDuration("VAULT_SUCCESS_DELAY", 500*time.Millisecond),
			FailureDelay:  getEnvAsDuration("VAULT_FAILURE_DELAY", 1*time.Second),
			MaxViolations: getEnvAsInt("VAULT_MAX_VIOLATIONS", 3),
		},
	}

	switch cfg.Database.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres (got %q)", cfg.Database.Driver)
	}

	if !gate.ValidPIN(cfg.Vault.DefaultPIN) {
		return nil, fmt.Errorf("VAULT_DEFAULT_PIN must be exactly 4 digits")
	}

	if cfg.Vault.MaxViolations < 1 {
		return nil, fmt.Errorf("VAULT_MAX_VIOLATIONS must be at least 1")
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum standards for the session signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if origins := parseList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		return origins
	}

	if env == "production" {
		return []string{}
	}

	return []string{
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
