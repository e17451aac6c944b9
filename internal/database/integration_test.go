package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func openTestDB(t *testing.T, dialect Dialect) *DB {
	t.Helper()

	db, err := Open(dialect, DialectConfig{Path: filepath.Join(t.TempDir(), "quiz.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background(), ""); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	for _, dialect := range []Dialect{NewSQLiteDialect(), NewPureGoSQLiteDialect()} {
		t.Run(dialect.DriverName(), func(t *testing.T) {
			db := openTestDB(t, dialect)
			ctx := context.Background()

			tables := []string{"quizzes", "questions", "question_options", "quiz_sessions", "session_items"}
			for _, table := range tables {
				var name string
				err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
				if err != nil {
					t.Errorf("Table %s not found: %v", table, err)
				}
			}

			// Running again is a no-op
			if err := db.RunMigrations(ctx, ""); err != nil {
				t.Fatalf("Second migration run failed: %v", err)
			}
			var count int
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
				t.Fatalf("Failed to count migrations: %v", err)
			}
			if count != 1 {
				t.Errorf("Expected 1 recorded migration, got %d", count)
			}
		})
	}
}

// TestWithTx tests commit and rollback through WithTx
func TestWithTx(t *testing.T) {
	db := openTestDB(t, NewSQLiteDialect())
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO quizzes (id, owner_id, title) VALUES (?, ?, ?)", "q1", "alice", "Go basics")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	errBoom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO quizzes (id, owner_id, title) VALUES (?, ?, ?)", "q2", "alice", "Rolled back"); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx error = %v, want %v", err, errBoom)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quizzes").Scan(&count); err != nil {
		t.Fatalf("Failed to count quizzes: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 quiz after rollback, got %d", count)
	}
}

// TestConcurrentWriters checks that immediate transactions serialize instead of failing
func TestConcurrentWriters(t *testing.T) {
	db := openTestDB(t, NewSQLiteDialect())
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "INSERT INTO quizzes (id, owner_id, title) VALUES (?, ?, ?)", "q1", "alice", "Counter"); err != nil {
		t.Fatalf("Failed to create quiz: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithTx(ctx, func(tx *Tx) error {
				var title string
				if err := tx.QueryRowContext(ctx, "SELECT title FROM quizzes WHERE id = ?", "q1").Scan(&title); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, "UPDATE quizzes SET title = ? WHERE id = ?", title+"+", "q1")
				return err
			})
			if err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
		}()
	}
	wg.Wait()

	var title string
	if err := db.QueryRowContext(ctx, "SELECT title FROM quizzes WHERE id = ?", "q1").Scan(&title); err != nil {
		t.Fatalf("Failed to read quiz: %v", err)
	}
	if title != "Counter++++++++++" {
		t.Errorf("Expected 10 serialized updates, got title %q", title)
	}
}
