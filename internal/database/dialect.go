package database

import (
	"database/sql"
	"regexp"
	"strconv"

	"quizengine/internal/config"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// LockSuffix is appended to a SELECT to take a row lock inside a transaction.
	// Empty for engines that lock the whole database on write (SQLite).
	LockSuffix() string

	// IsUniqueViolation reports whether err is a unique constraint failure
	IsUniqueViolation(err error) bool

	// DayExpr formats a UTC timestamp column as YYYY-MM-DD
	DayExpr(column string) string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// NewDialect returns the dialect for a configured database type. Any spelling
// config accepts is resolved here.
func NewDialect(databaseType string) (Dialect, bool) {
	canonical, ok := config.CanonicalDatabaseType(databaseType)
	if !ok {
		return nil, false
	}
	switch canonical {
	case "sqlite":
		return NewSQLiteDialect(), true
	case "sqlite-purego":
		return NewPureGoSQLiteDialect(), true
	case "postgres":
		return NewPostgresDialect(), true
	case "pgx":
		return NewPgxDialect(), true
	case "mysql":
		return NewMySQLDialect(), true
	}
	return nil, false
}
