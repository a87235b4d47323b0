package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

const assignmentColumns = "id, child_id, course_id, title, description, due_date, status, score, max_score, completed_at, created_at, updated_at"

// AssignmentRepository handles database operations for assignments
type AssignmentRepository struct {
	db *database.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *database.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AssignmentFilter narrows assignment list queries
type AssignmentFilter struct {
	CourseID *int64
	Status   string
	Due      DateRange
}

func scanAssignment(row interface{ Scan(...interface{}) error }) (*models.Assignment, error) {
	a := &models.Assignment{}
	var courseID sql.NullInt64
	var dueDate, completedAt sql.NullTime
	var score sql.NullFloat64
	err := row.Scan(
		&a.ID,
		&a.ChildID,
		&courseID,
		&a.Title,
		&a.Description,
		&dueDate,
		&a.Status,
		&score,
		&a.MaxScore,
		&completedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.CourseID = int64Ptr(courseID)
	a.DueDate = datePtr(dueDate)
	a.Score = floatPtr(score)
	a.CompletedAt = timePtr(completedAt)
	return a, nil
}

// Create inserts an assignment
func (r *AssignmentRepository) Create(a *models.Assignment) (*models.Assignment, error) {
	query := `
		INSERT INTO assignments (child_id, course_id, title, description, due_date, status, score, max_score, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		a.ChildID, nullableInt64(a.CourseID), a.Title, a.Description, nullableDate(a.DueDate),
		a.Status, nullableFloat(a.Score), a.MaxScore, nullableTime(a.CompletedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	created := *a
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(id int64) (*models.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow("SELECT "+assignmentColumns+" FROM assignments WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// List returns a child's assignments matching the filter, earliest due first
func (r *AssignmentRepository) List(childID int64, filter AssignmentFilter) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE child_id = ?"
	args := []interface{}{childID}
	if filter.CourseID != nil {
		query += " AND course_id = ?"
		args = append(args, *filter.CourseID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query, args = filter.Due.apply("due_date", query, args)
	query += " ORDER BY CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// Update writes all editable assignment fields
func (r *AssignmentRepository) Update(a *models.Assignment) error {
	query := `
		UPDATE assignments
		SET course_id = ?, title = ?, description = ?, due_date = ?, status = ?, score = ?,
			max_score = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		nullableInt64(a.CourseID), a.Title, a.Description, nullableDate(a.DueDate), a.Status,
		nullableFloat(a.Score), a.MaxScore, nullableTime(a.CompletedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM assignments WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}
