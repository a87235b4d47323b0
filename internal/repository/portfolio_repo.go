package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// PortfolioRepository handles database operations for portfolio items
type PortfolioRepository struct {
	db *database.DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *database.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func scanPortfolioItem(row interface{ Scan(...interface{}) error }) (*models.PortfolioItem, error) {
	item := &models.PortfolioItem{}
	var courseID sql.NullInt64
	err := row.Scan(&item.ID, &item.ChildID, &courseID, &item.Title, &item.Description, &item.Date, &item.FileKey, &item.ContentType, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.CourseID = int64Ptr(courseID)
	item.Date = models.CivilDate(item.Date)
	return item, nil
}

// Create inserts a portfolio item
func (r *PortfolioRepository) Create(item *models.PortfolioItem) (*models.PortfolioItem, error) {
	query := `
		INSERT INTO portfolio_items (child_id, course_id, title, description, date, file_key, content_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	day := models.CivilDate(item.Date)
	id, err := r.db.ExecReturningID(query, item.ChildID, nullableInt64(item.CourseID), item.Title, item.Description, day, item.FileKey, item.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio item: %w", err)
	}
	created := *item
	created.ID = id
	created.Date = day
	created.CreatedAt = time.Now()
	return &created, nil
}

// GetByID retrieves a portfolio item by ID
func (r *PortfolioRepository) GetByID(id int64) (*models.PortfolioItem, error) {
	item, err := scanPortfolioItem(r.db.QueryRow("SELECT id, child_id, course_id, title, description, date, file_key, content_type, created_at FROM portfolio_items WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio item: %w", err)
	}
	return item, nil
}

// List returns a child's portfolio, newest first, optionally for a single course
func (r *PortfolioRepository) List(childID int64, courseID *int64, dr DateRange) ([]models.PortfolioItem, error) {
	query := "SELECT id, child_id, course_id, title, description, date, file_key, content_type, created_at FROM portfolio_items WHERE child_id = ?"
	args := []interface{}{childID}
	if courseID != nil {
		query += " AND course_id = ?"
		args = append(args, *courseID)
	}
	query, args = dr.apply("date", query, args)
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio items: %w", err)
	}
	defer rows.Close()

	var items []models.PortfolioItem
	for rows.Next() {
		item, err := scanPortfolioItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Count returns how many portfolio items a child has
func (r *PortfolioRepository) Count(childID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM portfolio_items WHERE child_id = ?", childID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count portfolio items: %w", err)
	}
	return count, nil
}

// Delete removes a portfolio item row
func (r *PortfolioRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM portfolio_items WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete portfolio item: %w", err)
	}
	return nil
}
