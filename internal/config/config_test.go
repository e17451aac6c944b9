package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_TYPE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 5*time.Minute, cfg.MaxAnswerDuration)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quizengine.yaml")
	content := `
port: "9090"
database_type: sqlite
database_path: /tmp/from-file.db
token_ttl: 2h
max_answer_duration: 90s
cors_origins:
  - https://quiz.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("MAX_ANSWER_DURATION_MS", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.ServerPort, "env overrides file")
	assert.Equal(t, "/tmp/from-file.db", cfg.DatabasePath)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 90*time.Second, cfg.MaxAnswerDuration)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown type", mutate: func(c *Config) { c.DatabaseType = "oracle" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseType = "postgres" }, wantErr: true},
		{name: "pgx with url", mutate: func(c *Config) {
			c.DatabaseType = "pgx"
			c.DatabaseURL = "postgres://localhost/quiz"
		}},
		{name: "sqlite without path", mutate: func(c *Config) { c.DatabasePath = "" }, wantErr: true},
		{name: "zero answer cap", mutate: func(c *Config) { c.MaxAnswerDuration = 0 }, wantErr: true},
		{name: "answer cap lowered", mutate: func(c *Config) { c.MaxAnswerDuration = time.Minute }},
		{name: "answer cap above ceiling", mutate: func(c *Config) { c.MaxAnswerDuration = MaxAnswerDurationCeiling + time.Millisecond }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimit = 0 }, wantErr: true},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimit = -5 }, wantErr: true},
		{name: "zero rate window", mutate: func(c *Config) { c.RateLimitWindow = 0 }, wantErr: true},
		{name: "negative rate window", mutate: func(c *Config) { c.RateLimitWindow = -time.Second }, wantErr: true},
		{name: "sqlite3 alias", mutate: func(c *Config) { c.DatabaseType = "sqlite3" }},
		{name: "postgresql alias", mutate: func(c *Config) {
			c.DatabaseType = "postgresql"
			c.DatabaseURL = "postgres://localhost/quiz"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireSecret(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireSecret())
	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.RequireSecret())
}

func TestLoadRejectsUnusableRateLimit(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_TYPE", "")

	t.Setenv("RATE_LIMIT", "0")
	_, err := Load("")
	assert.Error(t, err, "a zero budget would reject every request")

	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "-1m")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadRejectsAnswerCapAboveCeiling(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("MAX_ANSWER_DURATION_MS", "600000")

	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("MAX_ANSWER_DURATION_MS", "60000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.MaxAnswerDuration)
}

func TestLoadCanonicalizesDatabaseType(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_TYPE", "SQLite3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
}

func TestCanonicalDatabaseType(t *testing.T) {
	for _, name := range DatabaseTypes() {
		canonical, ok := CanonicalDatabaseType(name)
		require.True(t, ok, name)
		again, ok := CanonicalDatabaseType(canonical)
		assert.True(t, ok)
		assert.Equal(t, canonical, again, "canonical names map to themselves")
	}

	_, ok := CanonicalDatabaseType("oracle")
	assert.False(t, ok)
}
