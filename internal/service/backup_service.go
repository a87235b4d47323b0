package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"village/internal/database"
)

const backupVersion = "2.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                      `json:"version"`
	ExportedAt   time.Time                   `json:"exported_at"`
	DatabaseType string                      `json:"database_type"`
	Tables       map[string][]map[string]any `json:"tables"`
}

// Counts returns the number of rows per table
func (b *BackupData) Counts() map[string]int {
	counts := make(map[string]int, len(b.Tables))
	for name, rows := range b.Tables {
		counts[name] = len(rows)
	}
	return counts
}

type columnKind int

const (
	columnPlain columnKind = iota
	columnDate
	columnTime
	columnBool
)

type backupTable struct {
	name    string
	columns []string
	kinds   map[string]columnKind
	hasID   bool
}

// backupTables lists the exported tables in dependency order. Sessions are
// short-lived and are not exported.
var backupTables = []backupTable{
	{name: "users", hasID: true,
		columns: []string{"id", "email", "password_hash", "name", "oauth_provider", "oauth_subject", "is_admin", "created_at", "updated_at"},
		kinds:   map[string]columnKind{"is_admin": columnBool, "created_at": columnTime, "updated_at": columnTime}},
	{name: "families", hasID: true,
		columns: []string{"id", "name", "family_code", "created_at", "updated_at"},
		kinds:   map[string]columnKind{"created_at": columnTime, "updated_at": columnTime}},
	{name: "family_members", hasID: true,
		columns: []string{"id", "family_id", "user_id", "role", "joined_at"},
		kinds:   map[string]columnKind{"joined_at": columnTime}},
	{name: "children", hasID: true,
		columns: []string{"id", "family_id", "name", "username", "pin", "grade_level", "birth_date", "avatar_color", "created_at", "updated_at"},
		kinds:   map[string]columnKind{"birth_date": columnDate, "created_at": columnTime, "updated_at": columnTime}},
	{name: "school_years", hasID: true,
		columns: []string{"id", "family_id", "name", "start_date", "end_date", "created_at"},
		kinds:   map[string]columnKind{"start_date": columnDate, "end_date": columnDate, "created_at": columnTime}},
	{name: "school_breaks", hasID: true,
		columns: []string{"id", "school_year_id", "name", "start_date", "end_date"},
		kinds:   map[string]columnKind{"start_date": columnDate, "end_date": columnDate}},
	{name: "courses", hasID: true,
		columns: []string{"id", "child_id", "name", "subject", "total_lessons", "current_lesson", "grade_level", "credits", "start_date", "active_days", "last_lesson_date", "created_at", "updated_at"},
		kinds:   map[string]columnKind{"start_date": columnDate, "last_lesson_date": columnDate, "created_at": columnTime, "updated_at": columnTime}},
	{name: "attendance", hasID: true,
		columns: []string{"id", "child_id", "date", "status", "hours", "notes", "created_at"},
		kinds:   map[string]columnKind{"date": columnDate, "created_at": columnTime}},
	{name: "assignments", hasID: true,
		columns: []string{"id", "child_id", "course_id", "title", "description", "due_date", "status", "score", "max_score", "completed_at", "created_at", "updated_at"},
		kinds:   map[string]columnKind{"due_date": columnDate, "completed_at": columnTime, "created_at": columnTime, "updated_at": columnTime}},
	{name: "reading_logs", hasID: true,
		columns: []string{"id", "child_id", "title", "author", "date", "minutes", "pages", "finished", "notes", "created_at"},
		kinds:   map[string]columnKind{"date": columnDate, "finished": columnBool, "created_at": columnTime}},
	{name: "goals", hasID: true,
		columns: []string{"id", "child_id", "title", "description", "target_date", "progress", "completed_at", "created_at", "updated_at"},
		kinds:   map[string]columnKind{"target_date": columnDate, "completed_at": columnTime, "created_at": columnTime, "updated_at": columnTime}},
	{name: "portfolio_items", hasID: true,
		columns: []string{"id", "child_id", "course_id", "title", "description", "date", "file_key", "content_type", "created_at"},
		kinds:   map[string]columnKind{"date": columnDate, "created_at": columnTime}},
	{name: "earned_achievements", hasID: true,
		columns: []string{"id", "child_id", "achievement_key", "earned_at"},
		kinds:   map[string]columnKind{"earned_at": columnTime}},
	{name: "settings",
		columns: []string{"setting_key", "setting_value", "updated_at"},
		kinds:   map[string]columnKind{"updated_at": columnTime}},
}

const backupTimeLayout = "2006-01-02 15:04:05"

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Stats counts the rows of every backed-up table
func (s *BackupService) Stats() (map[string]int, error) {
	stats := make(map[string]int, len(backupTables))
	for _, t := range backupTables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + t.name).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t.name, err)
		}
		stats[t.name] = n
	}
	return stats, nil
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(file)
	if err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	for _, t := range backupTables {
		log.Printf("  %s: %d rows", t.name, len(backup.Tables[t.name]))
	}
	return nil
}

// ExportToWriter writes the backup as JSON to w and returns what was written
func (s *BackupService) ExportToWriter(w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
		Tables:       make(map[string][]map[string]any, len(backupTables)),
	}

	for _, t := range backupTables {
		rows, err := s.exportTable(t)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", t.name, err)
		}
		backup.Tables[t.name] = rows
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

func (s *BackupService) exportTable(t backupTable) ([]map[string]any, error) {
	query := "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name
	if t.hasID {
		query += " ORDER BY id"
	} else {
		query += " ORDER BY " + t.columns[0]
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(t.columns))
		ptrs := make([]any, len(t.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(t.columns))
		for i, col := range t.columns {
			row[col] = exportValue(values[i], t.kinds[col])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// exportValue normalises driver values so every database produces the same JSON
func exportValue(v any, kind columnKind) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch kind {
	case columnDate:
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02")
		}
		if s, ok := v.(string); ok && len(s) >= 10 {
			return s[:10]
		}
	case columnTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(backupTimeLayout)
		}
	case columnBool:
		return toBool(v)
	}
	return v
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader replaces the database contents with a backup read from reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if !strings.HasPrefix(backup.Version, "2.") {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		for i := len(backupTables) - 1; i >= 0; i-- {
			if _, err := tx.Exec("DELETE FROM " + backupTables[i].name); err != nil {
				return fmt.Errorf("failed to clear %s: %w", backupTables[i].name, err)
			}
		}
		// Child sessions and parent sessions reference rows that are being replaced
		for _, table := range []string{"child_sessions", "sessions", "password_reset_tokens"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, t := range backupTables {
			rows := backup.Tables[t.name]
			log.Printf("Importing %d %s...", len(rows), t.name)
			if err := importTable(tx, t, rows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Println("Database import completed successfully")
	return nil
}

func importTable(tx *database.Tx, t backupTable, rows []map[string]any) error {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" + marks + ")"

	for n, row := range rows {
		args := make([]any, len(t.columns))
		for i, col := range t.columns {
			args[i] = importValue(row[col], t.kinds[col])
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to import %s row %d: %w", t.name, n, err)
		}
	}

	if t.hasID && len(rows) > 0 {
		if q := tx.GetDialect().ResetSequenceQuery(t.name); q != "" {
			if _, err := tx.Exec(q); err != nil {
				return fmt.Errorf("failed to reset %s sequence: %w", t.name, err)
			}
		}
	}
	return nil
}

func importValue(v any, kind columnKind) any {
	if v == nil {
		return nil
	}
	if kind == columnBool {
		return toBool(v)
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return v
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case float64:
		return b != 0
	case json.Number:
		return b.String() != "0"
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}
