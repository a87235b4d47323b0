package repository

import (
	"database/sql"
	"fmt"
	"time"

	"village/internal/database"
	"village/internal/models"
)

// FamilyRepository handles database operations for families and their members
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateFamily creates a new family and adds the creator as its owner
func (r *FamilyRepository) CreateFamily(name, familyCode string, creatorUserID int64) (*models.Family, error) {
	var familyID int64
	err := r.db.WithTx(func(tx *database.Tx) error {
		id, err := tx.ExecReturningID("INSERT INTO families (name, family_code) VALUES (?, ?)", name, familyCode)
		if err != nil {
			return fmt.Errorf("failed to create family: %w", err)
		}
		familyID = id

		_, err = tx.Exec("INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)", familyID, creatorUserID, models.RoleOwner)
		if err != nil {
			return fmt.Errorf("failed to add family member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &models.Family{
		ID:         familyID,
		Name:       name,
		FamilyCode: familyCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r *FamilyRepository) getFamily(where string, arg interface{}) (*models.Family, error) {
	family := &models.Family{}
	err := r.db.QueryRow("SELECT id, name, family_code, created_at, updated_at FROM families WHERE "+where, arg).Scan(
		&family.ID,
		&family.Name,
		&family.FamilyCode,
		&family.CreatedAt,
		&family.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// GetFamilyByID retrieves a family by ID
func (r *FamilyRepository) GetFamilyByID(familyID int64) (*models.Family, error) {
	return r.getFamily("id = ?", familyID)
}

// GetFamilyByCode retrieves a family by its join code
func (r *FamilyRepository) GetFamilyByCode(code string) (*models.Family, error) {
	return r.getFamily("family_code = ?", code)
}

// GetUserFamilies retrieves all families a user belongs to, oldest membership first
func (r *FamilyRepository) GetUserFamilies(userID int64) ([]models.Family, error) {
	query := `
		SELECT f.id, f.name, f.family_code, f.created_at, f.updated_at
		FROM families f
		INNER JOIN family_members fm ON f.id = fm.family_id
		WHERE fm.user_id = ?
		ORDER BY fm.joined_at ASC, f.id ASC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		var family models.Family
		if err := rows.Scan(&family.ID, &family.Name, &family.FamilyCode, &family.CreatedAt, &family.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, family)
	}
	return families, rows.Err()
}

// GetAllFamilies lists every family
func (r *FamilyRepository) GetAllFamilies() ([]models.Family, error) {
	rows, err := r.db.Query("SELECT id, name, family_code, created_at, updated_at FROM families ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		var family models.Family
		if err := rows.Scan(&family.ID, &family.Name, &family.FamilyCode, &family.CreatedAt, &family.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, family)
	}
	return families, rows.Err()
}

// AddFamilyMember adds a user to a family
func (r *FamilyRepository) AddFamilyMember(familyID, userID int64, role string) error {
	_, err := r.db.Exec("INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)", familyID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add family member: %w", err)
	}
	return nil
}

// RemoveFamilyMember removes a user from a family
func (r *FamilyRepository) RemoveFamilyMember(familyID, userID int64) error {
	_, err := r.db.Exec("DELETE FROM family_members WHERE family_id = ? AND user_id = ?", familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove family member: %w", err)
	}
	return nil
}

// IsFamilyMember checks if a user is a member of a family
func (r *FamilyRepository) IsFamilyMember(userID, familyID int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM family_members WHERE user_id = ? AND family_id = ?", userID, familyID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check family membership: %w", err)
	}
	return count > 0, nil
}

// GetFamilyMembers retrieves all members of a family with their user records
func (r *FamilyRepository) GetFamilyMembers(familyID int64) ([]models.FamilyMember, []models.User, error) {
	query := `
		SELECT fm.id, fm.family_id, fm.user_id, fm.role, fm.joined_at,
		       u.id, u.email, u.name, u.created_at, u.updated_at
		FROM family_members fm
		INNER JOIN users u ON fm.user_id = u.id
		WHERE fm.family_id = ?
		ORDER BY fm.joined_at ASC, fm.id ASC
	`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []models.FamilyMember
	var users []models.User
	for rows.Next() {
		var member models.FamilyMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.FamilyID, &member.UserID, &member.Role, &member.JoinedAt,
			&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, member)
		users = append(users, user)
	}
	return members, users, rows.Err()
}

// UpdateFamily updates a family's name
func (r *FamilyRepository) UpdateFamily(familyID int64, name string) error {
	_, err := r.db.Exec("UPDATE families SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", name, familyID)
	if err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	return nil
}
