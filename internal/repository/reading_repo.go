package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// ReadingRepository handles database operations for reading logs
type ReadingRepository struct {
	db *database.DB
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *database.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

func scanReadingLog(row interface{ Scan(...interface{}) error }) (*models.ReadingLog, error) {
	l := &models.ReadingLog{}
	err := row.Scan(&l.ID, &l.ChildID, &l.Title, &l.Author, &l.Date, &l.Minutes, &l.Pages, &l.Finished, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.Date = models.CivilDate(l.Date)
	return l, nil
}

// Create inserts a reading log entry
func (r *ReadingRepository) Create(l *models.ReadingLog) (*models.ReadingLog, error) {
	query := `
		INSERT INTO reading_logs (child_id, title, author, date, minutes, pages, finished, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	day := models.CivilDate(l.Date)
	id, err := r.db.ExecReturningID(query, l.ChildID, l.Title, l.Author, day, l.Minutes, l.Pages, l.Finished, l.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create reading log: %w", err)
	}
	created := *l
	created.ID = id
	created.Date = day
	created.CreatedAt = time.Now()
	return &created, nil
}

// GetByID retrieves a reading log entry by ID
func (r *ReadingRepository) GetByID(id int64) (*models.ReadingLog, error) {
	l, err := scanReadingLog(r.db.QueryRow("SELECT id, child_id, title, author, date, minutes, pages, finished, notes, created_at FROM reading_logs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading log: %w", err)
	}
	return l, nil
}

// List returns a child's reading logs, newest first
func (r *ReadingRepository) List(childID int64, dr DateRange) ([]models.ReadingLog, error) {
	query, args := dr.apply("date", "SELECT id, child_id, title, author, date, minutes, pages, finished, notes, created_at FROM reading_logs WHERE child_id = ?", []interface{}{childID})
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ReadingLog
	for rows.Next() {
		l, err := scanReadingLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// Delete removes a reading log entry
func (r *ReadingRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM reading_logs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete reading log: %w", err)
	}
	return nil
}
