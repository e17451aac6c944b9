package database

import (
	"database/sql"
	"errors"
	"net/url"
	"time"

	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// PureGoSQLiteDialect implements Dialect for SQLite using the cgo-free
// modernc.org/sqlite driver. Schema and migrations are shared with SQLiteDialect.
type PureGoSQLiteDialect struct{}

// NewPureGoSQLiteDialect creates a new cgo-free SQLite dialect
func NewPureGoSQLiteDialect() *PureGoSQLiteDialect {
	return &PureGoSQLiteDialect{}
}

func (d *PureGoSQLiteDialect) DriverName() string {
	return "sqlite"
}

func (d *PureGoSQLiteDialect) DSN(config DialectConfig) string {
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Set("_txlock", "immediate")
	params.Set("_time_format", "sqlite")
	return appendParams(config.Path, params)
}

func (d *PureGoSQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (d *PureGoSQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PureGoSQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *PureGoSQLiteDialect) CreateMigrationsTableQuery() string {
	return sqliteMigrationsTable
}

func (d *PureGoSQLiteDialect) LockSuffix() string {
	return ""
}

func (d *PureGoSQLiteDialect) DayExpr(column string) string {
	return "substr(" + column + ", 1, 10)"
}

func (d *PureGoSQLiteDialect) IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
