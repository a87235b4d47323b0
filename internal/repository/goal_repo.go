package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// GoalRepository handles database operations for goals
type GoalRepository struct {
	db *database.DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *database.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func scanGoal(row interface{ Scan(...interface{}) error }) (*models.Goal, error) {
	g := &models.Goal{}
	var targetDate, completedAt sql.NullTime
	err := row.Scan(&g.ID, &g.ChildID, &g.Title, &g.Description, &targetDate, &g.Progress, &completedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.TargetDate = datePtr(targetDate)
	g.CompletedAt = timePtr(completedAt)
	return g, nil
}

// Create inserts a goal
func (r *GoalRepository) Create(g *models.Goal) (*models.Goal, error) {
	query := "INSERT INTO goals (child_id, title, description, target_date, progress, completed_at) VALUES (?, ?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, g.ChildID, g.Title, g.Description, nullableDate(g.TargetDate), g.Progress, nullableTime(g.CompletedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	created := *g
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

// GetByID retrieves a goal by ID
func (r *GoalRepository) GetByID(id int64) (*models.Goal, error) {
	g, err := scanGoal(r.db.QueryRow("SELECT id, child_id, title, description, target_date, progress, completed_at, created_at, updated_at FROM goals WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return g, nil
}

// List returns a child's goals, open goals first
func (r *GoalRepository) List(childID int64) ([]models.Goal, error) {
	query := `
		SELECT id, child_id, title, description, target_date, progress, completed_at, created_at, updated_at
		FROM goals
		WHERE child_id = ?
		ORDER BY CASE WHEN completed_at IS NULL THEN 0 ELSE 1 END, created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// Update writes all editable goal fields
func (r *GoalRepository) Update(g *models.Goal) error {
	query := `
		UPDATE goals
		SET title = ?, description = ?, target_date = ?, progress = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, g.Title, g.Description, nullableDate(g.TargetDate), g.Progress, nullableTime(g.CompletedAt), g.ID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

// Delete removes a goal
func (r *GoalRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM goals WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
