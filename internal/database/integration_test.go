package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "village_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDatabaseIntegration checks that migrations create every table
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	tables := []string{
		"users", "sessions", "password_reset_tokens", "families", "family_members",
		"children", "child_sessions", "school_years", "school_breaks", "courses",
		"attendance", "assignments", "reading_logs", "goals", "portfolio_items",
		"earned_achievements", "settings",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	pending, err := db.PendingMigrations()
	if err != nil {
		t.Fatalf("PendingMigrations failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending migrations, got %v", pending)
	}
}

// TestDatabaseTransactions tests commit and rollback through WithTx
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	err := db.WithTx(func(tx *Tx) error {
		_, err := tx.ExecReturningID("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
			"test@example.com", "hashedpass", "Test Parent")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to insert in transaction: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", "test@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	err = db.WithTx(func(tx *Tx) error {
		if _, err := tx.Exec("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
			"test2@example.com", "hashedpass", "Other Parent"); err != nil {
			return err
		}
		return errRollbackForTest
	})
	if err != errRollbackForTest {
		t.Fatalf("expected rollback error, got %v", err)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", "test2@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

// TestDateColumnsRoundTrip checks civil dates survive storage and range queries
func TestDateColumnsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	familyID, err := db.ExecReturningID("INSERT INTO families (name, family_code) VALUES (?, ?)", "Test", "ABC123")
	if err != nil {
		t.Fatalf("insert family: %v", err)
	}

	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if _, err := db.Exec("INSERT INTO school_years (family_id, name, start_date, end_date) VALUES (?, ?, ?, ?)",
		familyID, "2024-25", start, end); err != nil {
		t.Fatalf("insert school year: %v", err)
	}

	var gotStart, gotEnd time.Time
	err = db.QueryRow("SELECT start_date, end_date FROM school_years WHERE family_id = ? AND start_date <= ? AND end_date >= ?",
		familyID, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)).Scan(&gotStart, &gotEnd)
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if !gotStart.Equal(start) || !gotEnd.Equal(end) {
		t.Errorf("got %v..%v, want %v..%v", gotStart, gotEnd, start, end)
	}
}

// TestConcurrentAccess tests concurrent database reads
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	if _, err := db.Exec("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"concurrent@example.com", "hashedpass", "concurrentuser"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			var name string
			err := db.QueryRow("SELECT name FROM users WHERE email = ?", "concurrent@example.com").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "concurrentuser" {
				t.Errorf("Expected name 'concurrentuser', got '%s'", name)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errRollbackForTest = testError("rollback")
