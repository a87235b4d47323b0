package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// AttendanceRepository handles database operations for attendance records
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func scanAttendance(row interface{ Scan(...interface{}) error }) (*models.Attendance, error) {
	a := &models.Attendance{}
	if err := row.Scan(&a.ID, &a.ChildID, &a.Date, &a.Status, &a.Hours, &a.Notes, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Date = models.CivilDate(a.Date)
	return a, nil
}

// Upsert records attendance for a child on a date, replacing any existing record for that date
func (r *AttendanceRepository) Upsert(a *models.Attendance) (*models.Attendance, error) {
	day := models.CivilDate(a.Date)
	saved := *a
	saved.Date = day

	err := r.db.WithTx(func(tx *database.Tx) error {
		var existingID int64
		err := tx.QueryRow("SELECT id FROM attendance WHERE child_id = ? AND date = ?", a.ChildID, day).Scan(&existingID)
		switch {
		case err == sql.ErrNoRows:
			id, err := tx.ExecReturningID(
				"INSERT INTO attendance (child_id, date, status, hours, notes) VALUES (?, ?, ?, ?, ?)",
				a.ChildID, day, a.Status, a.Hours, a.Notes,
			)
			if err != nil {
				return fmt.Errorf("failed to insert attendance: %w", err)
			}
			saved.ID = id
			saved.CreatedAt = time.Now()
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up attendance: %w", err)
		}

		_, err = tx.Exec("UPDATE attendance SET status = ?, hours = ?, notes = ? WHERE id = ?", a.Status, a.Hours, a.Notes, existingID)
		if err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		saved.ID = existingID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetByID retrieves an attendance record by ID
func (r *AttendanceRepository) GetByID(id int64) (*models.Attendance, error) {
	a, err := scanAttendance(r.db.QueryRow("SELECT id, child_id, date, status, hours, notes, created_at FROM attendance WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

// List returns a child's attendance in date order, optionally limited to a range
func (r *AttendanceRepository) List(childID int64, dr DateRange) ([]models.Attendance, error) {
	query, args := dr.apply("date", "SELECT id, child_id, date, status, hours, notes, created_at FROM attendance WHERE child_id = ?", []interface{}{childID})
	query += " ORDER BY date ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []models.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, *a)
	}
	return records, rows.Err()
}

// Delete removes an attendance record
func (r *AttendanceRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM attendance WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	return nil
}
