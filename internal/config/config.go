package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort     string        `yaml:"port"`
	DatabaseType   string        `yaml:"database_type"`
	DatabasePath   string        `yaml:"database_path"`
	DatabaseURL    string        `yaml:"database_url"`
	MigrationsPath string        `yaml:"migrations_path"`
	JWTSecret      string        `yaml:"jwt_secret"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	TokenTTL       time.Duration `yaml:"token_ttl"`

	// MaxAnswerDuration caps the time a client may report for a single answer.
	MaxAnswerDuration time.Duration `yaml:"max_answer_duration"`

	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	Debug           bool          `yaml:"debug"`
}

// MaxAnswerDurationCeiling is the largest per-answer duration the engine
// records. MaxAnswerDuration may lower it but never raise it.
const MaxAnswerDurationCeiling = 5 * time.Minute

// databaseTypes maps every accepted DB_TYPE spelling to its canonical name
var databaseTypes = map[string]string{
	"sqlite":        "sqlite",
	"sqlite3":       "sqlite",
	"sqlite-purego": "sqlite-purego",
	"postgres":      "postgres",
	"postgresql":    "postgres",
	"pgx":           "pgx",
	"mysql":         "mysql",
}

// CanonicalDatabaseType resolves an accepted DB_TYPE spelling. The empty
// string selects SQLite.
func CanonicalDatabaseType(databaseType string) (string, bool) {
	databaseType = strings.ToLower(strings.TrimSpace(databaseType))
	if databaseType == "" {
		return "sqlite", true
	}
	canonical, ok := databaseTypes[databaseType]
	return canonical, ok
}

// DatabaseTypes lists every accepted DB_TYPE spelling
func DatabaseTypes() []string {
	types := make([]string, 0, len(databaseTypes))
	for t := range databaseTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		ServerPort:        "8080",
		DatabaseType:      "sqlite",
		DatabasePath:      "./quizengine.db",
		JWTIssuer:         "quizengine",
		TokenTTL:          24 * time.Hour,
		MaxAnswerDuration: MaxAnswerDurationCeiling,
		RateLimit:         120,
		RateLimitWindow:   time.Minute,
		CORSOrigins:       []string{"*"},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A .env file in the working directory is loaded
// into the environment first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.DatabaseType = strings.ToLower(getEnv("DB_TYPE", c.DatabaseType))
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimitWindow)
	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit)
	c.Debug = getEnvBool("DEBUG", c.Debug)

	if ms := os.Getenv("MAX_ANSWER_DURATION_MS"); ms != "" {
		if n, err := strconv.ParseInt(ms, 10, 64); err == nil && n > 0 {
			c.MaxAnswerDuration = time.Duration(n) * time.Millisecond
		}
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
}

// Validate checks settings that every command depends on
func (c *Config) Validate() error {
	canonical, ok := CanonicalDatabaseType(c.DatabaseType)
	if !ok {
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
	c.DatabaseType = canonical

	switch c.DatabaseType {
	case "postgres", "pgx", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	default:
		if c.DatabasePath == "" {
			return fmt.Errorf("DB_PATH is required for database type %s", c.DatabaseType)
		}
	}
	if c.MaxAnswerDuration <= 0 || c.MaxAnswerDuration > MaxAnswerDurationCeiling {
		return fmt.Errorf("max answer duration must be within (0, %s], got %s", MaxAnswerDurationCeiling, c.MaxAnswerDuration)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	return nil
}

// RequireSecret reports an error when no token signing secret is configured
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
