package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

const childColumns = "id, family_id, name, username, pin, grade_level, birth_date, avatar_color, created_at, updated_at"

// ChildRepository handles database operations for children and child sessions
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

func scanChild(row interface{ Scan(...interface{}) error }) (*models.Child, error) {
	child := &models.Child{}
	var birthDate sql.NullTime
	err := row.Scan(
		&child.ID,
		&child.FamilyID,
		&child.Name,
		&child.Username,
		&child.PIN,
		&child.GradeLevel,
		&birthDate,
		&child.AvatarColor,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	child.BirthDate = datePtr(birthDate)
	return child, nil
}

// CreateChild creates a new child profile
func (r *ChildRepository) CreateChild(child *models.Child) (*models.Child, error) {
	query := `
		INSERT INTO children (family_id, name, username, pin, grade_level, birth_date, avatar_color)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		child.FamilyID, child.Name, child.Username, child.PIN,
		child.GradeLevel, nullableDate(child.BirthDate), child.AvatarColor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	created := *child
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

// GetChildByID retrieves a child by ID
func (r *ChildRepository) GetChildByID(childID int64) (*models.Child, error) {
	child, err := scanChild(r.db.QueryRow("SELECT "+childColumns+" FROM children WHERE id = ?", childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetChildByUsername retrieves a child by family and username
func (r *ChildRepository) GetChildByUsername(familyID int64, username string) (*models.Child, error) {
	child, err := scanChild(r.db.QueryRow("SELECT "+childColumns+" FROM children WHERE family_id = ? AND username = ?", familyID, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetFamilyChildren retrieves all children in a family
func (r *ChildRepository) GetFamilyChildren(familyID int64) ([]models.Child, error) {
	return r.list("SELECT "+childColumns+" FROM children WHERE family_id = ? ORDER BY created_at ASC, id ASC", familyID)
}

// GetAllChildren lists every child across all families
func (r *ChildRepository) GetAllChildren() ([]models.Child, error) {
	return r.list("SELECT " + childColumns + " FROM children ORDER BY id ASC")
}

func (r *ChildRepository) list(query string, args ...interface{}) ([]models.Child, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

// UsernameExists checks whether a username is taken within a family
func (r *ChildRepository) UsernameExists(familyID int64, username string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM children WHERE family_id = ? AND username = ?", familyID, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// UpdateChild updates a child's profile fields
func (r *ChildRepository) UpdateChild(child *models.Child) error {
	query := `
		UPDATE children
		SET name = ?, grade_level = ?, birth_date = ?, avatar_color = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, child.Name, child.GradeLevel, nullableDate(child.BirthDate), child.AvatarColor, child.ID)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// UpdatePIN replaces a child's PIN
func (r *ChildRepository) UpdatePIN(childID int64, pin string) error {
	_, err := r.db.Exec("UPDATE children SET pin = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", pin, childID)
	if err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}
	return nil
}

// DeleteChild deletes a child and, through cascades, all of their records
func (r *ChildRepository) DeleteChild(childID int64) error {
	if _, err := r.db.Exec("DELETE FROM children WHERE id = ?", childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// CreateChildSession creates a login session for a child
func (r *ChildRepository) CreateChildSession(sessionID string, childID int64, expiresAt time.Time) (*models.ChildSession, error) {
	_, err := r.db.Exec("INSERT INTO child_sessions (id, child_id, expires_at) VALUES (?, ?, ?)", sessionID, childID, expiresAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create child session: %w", err)
	}
	return &models.ChildSession{
		ID:        sessionID,
		ChildID:   childID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetChildSession retrieves a child session by ID
func (r *ChildRepository) GetChildSession(sessionID string) (*models.ChildSession, error) {
	session := &models.ChildSession{}
	err := r.db.QueryRow("SELECT id, child_id, expires_at, created_at FROM child_sessions WHERE id = ?", sessionID).Scan(
		&session.ID,
		&session.ChildID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child session: %w", err)
	}
	return session, nil
}

// DeleteChildSession removes a child session
func (r *ChildRepository) DeleteChildSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM child_sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete child session: %w", err)
	}
	return nil
}

// DeleteExpiredChildSessions removes all expired child sessions
func (r *ChildRepository) DeleteExpiredChildSessions() error {
	if _, err := r.db.Exec("DELETE FROM child_sessions WHERE expires_at < ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete expired child sessions: %w", err)
	}
	return nil
}
