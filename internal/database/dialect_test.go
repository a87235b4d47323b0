package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if result {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO users (name, email) VALUES (?, ?)",
			expected: "INSERT INTO users (name, email) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET name = ?, email = ? WHERE id = ?",
			expected: "UPDATE users SET name = ?, email = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestInsertIgnoreQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{
			name:     "SQLite",
			dialect:  NewSQLiteDialect(),
			expected: "INSERT OR IGNORE INTO earned_achievements (child_id, achievement_key) VALUES (?, ?)",
		},
		{
			name:     "PostgreSQL",
			dialect:  NewPostgresDialect(),
			expected: "INSERT INTO earned_achievements (child_id, achievement_key) VALUES (?, ?) ON CONFLICT DO NOTHING",
		},
		{
			name:     "MySQL",
			dialect:  NewMySQLDialect(),
			expected: "INSERT IGNORE INTO earned_achievements (child_id, achievement_key) VALUES (?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.InsertIgnoreQuery("earned_achievements", "child_id", "achievement_key")
			if result != tt.expected {
				t.Errorf("InsertIgnoreQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestResetSequenceQuery(t *testing.T) {
	if q := NewSQLiteDialect().ResetSequenceQuery("courses"); q != "" {
		t.Errorf("SQLite ResetSequenceQuery() = %q, want empty", q)
	}
	if q := NewMySQLDialect().ResetSequenceQuery("courses"); q != "" {
		t.Errorf("MySQL ResetSequenceQuery() = %q, want empty", q)
	}
	want := "SELECT setval(pg_get_serial_sequence('courses', 'id'), COALESCE((SELECT MAX(id) FROM courses), 0) + 1, false)"
	if q := NewPostgresDialect().ResetSequenceQuery("courses"); q != want {
		t.Errorf("PostgreSQL ResetSequenceQuery() = %q, want %q", q, want)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		config   DialectConfig
		expected string
	}{
		{
			name:     "SQLite adds pragmas",
			dialect:  NewSQLiteDialect(),
			config:   DialectConfig{Path: "./village.db"},
			expected: "./village.db?_foreign_keys=on&_busy_timeout=5000",
		},
		{
			name:     "SQLite keeps explicit options",
			dialect:  NewSQLiteDialect(),
			config:   DialectConfig{Path: "file:test.db?mode=memory"},
			expected: "file:test.db?mode=memory",
		},
		{
			name:     "MySQL adds parseTime",
			dialect:  NewMySQLDialect(),
			config:   DialectConfig{URL: "user:pass@tcp(localhost:3306)/village"},
			expected: "user:pass@tcp(localhost:3306)/village?parseTime=true",
		},
		{
			name:     "MySQL appends to existing params",
			dialect:  NewMySQLDialect(),
			config:   DialectConfig{URL: "user:pass@tcp(localhost:3306)/village?charset=utf8mb4"},
			expected: "user:pass@tcp(localhost:3306)/village?charset=utf8mb4&parseTime=true",
		},
		{
			name:     "MySQL keeps parseTime",
			dialect:  NewMySQLDialect(),
			config:   DialectConfig{URL: "u@/village?parseTime=false"},
			expected: "u@/village?parseTime=false",
		},
		{
			name:     "PostgreSQL unchanged",
			dialect:  NewPostgresDialect(),
			config:   DialectConfig{URL: "postgres://localhost/village?sslmode=disable"},
			expected: "postgres://localhost/village?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.DSN(tt.config)
			if result != tt.expected {
				t.Errorf("DSN() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (id INTEGER);

-- another
CREATE INDEX idx_a ON a(id);
`
	stmts := splitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE INDEX idx_a ON a(id)" {
		t.Errorf("unexpected second statement %q", stmts[1])
	}
}

func TestEmbeddedMigrationsExistForEveryDialect(t *testing.T) {
	for _, d := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		content, err := migrationFiles.ReadFile("migrations/" + d.MigrationsSubdir() + "/001_init.sql")
		if err != nil {
			t.Fatalf("%s: %v", d.MigrationsSubdir(), err)
		}
		if len(splitStatements(string(content))) < 16 {
			t.Errorf("%s: expected at least one statement per table", d.MigrationsSubdir())
		}
	}
}
