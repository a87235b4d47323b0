package service

import (
	"crypto/subtle"
	"fmt"
	"log"
	"strings"
	"time"

	"village/internal/credentials"
	"village/internal/models"
	"village/internal/repository"
	"village/internal/security"
	"village/internal/validation"
)

const (
	childSessionDuration = 12 * time.Hour
	defaultAvatarColor   = "#4F46E5"
	maxCodeRetries       = 10
)

// ChildInput holds the editable fields of a child profile
type ChildInput struct {
	Name        string     `json:"name"`
	GradeLevel  string     `json:"grade_level"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	AvatarColor string     `json:"avatar_color"`
}

func (in ChildInput) validate() error {
	if err := validation.ValidateName(in.Name); err != nil {
		return err
	}
	if in.AvatarColor != "" {
		if err := validation.ValidateColor(in.AvatarColor); err != nil {
			return err
		}
	}
	if len(in.GradeLevel) > 32 {
		return validation.ValidationError{Field: "grade_level", Message: "grade level must be at most 32 characters"}
	}
	return nil
}

// FamilyService handles families, membership and child profiles
type FamilyService struct {
	familyRepo *repository.FamilyRepository
	childRepo  *repository.ChildRepository
}

// NewFamilyService creates a new family service
func NewFamilyService(familyRepo *repository.FamilyRepository, childRepo *repository.ChildRepository) *FamilyService {
	return &FamilyService{
		familyRepo: familyRepo,
		childRepo:  childRepo,
	}
}

// createFamilyWithCode creates a family with a fresh join code, retrying on collisions
func createFamilyWithCode(repo *repository.FamilyRepository, name string, creatorUserID int64) (*models.Family, error) {
	for i := 0; i < maxCodeRetries; i++ {
		code, err := credentials.GenerateFamilyCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate family code: %w", err)
		}
		existing, err := repo.GetFamilyByCode(code)
		if err != nil {
			return nil, fmt.Errorf("failed to check family code: %w", err)
		}
		if existing != nil {
			continue
		}
		return repo.CreateFamily(name, code, creatorUserID)
	}
	return nil, fmt.Errorf("failed to find an unused family code after %d attempts", maxCodeRetries)
}

// CreateFamily creates a new family with the user as owner
func (s *FamilyService) CreateFamily(name string, creatorUserID int64) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateRequired("name", name, 100); err != nil {
		return nil, err
	}
	family, err := createFamilyWithCode(s.familyRepo, name, creatorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}
	log.Printf("Family %d created by user %d", family.ID, creatorUserID)
	return family, nil
}

// GetUserFamilies retrieves all families a user belongs to
func (s *FamilyService) GetUserFamilies(userID int64) ([]models.Family, error) {
	families, err := s.familyRepo.GetUserFamilies(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user families: %w", err)
	}
	return families, nil
}

// PrimaryFamily returns the first family a user joined
func (s *FamilyService) PrimaryFamily(userID int64) (*models.Family, error) {
	families, err := s.GetUserFamilies(userID)
	if err != nil {
		return nil, err
	}
	if len(families) == 0 {
		return nil, ErrFamilyNotFound
	}
	return &families[0], nil
}

// GetFamily retrieves a family by ID
func (s *FamilyService) GetFamily(familyID int64) (*models.Family, error) {
	family, err := s.familyRepo.GetFamilyByID(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// GetFamilyDetails returns a family with its parents and children after
// checking the user belongs to it
func (s *FamilyService) GetFamilyDetails(userID, familyID int64) (*models.FamilyWithMembers, error) {
	if err := s.VerifyFamilyAccess(userID, familyID); err != nil {
		return nil, err
	}
	family, err := s.GetFamily(familyID)
	if err != nil {
		return nil, err
	}
	members, users, err := s.familyRepo.GetFamilyMembers(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family members: %w", err)
	}
	children, err := s.childRepo.GetFamilyChildren(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get children: %w", err)
	}
	return &models.FamilyWithMembers{
		Family:   *family,
		Members:  members,
		Users:    users,
		Children: children,
	}, nil
}

// VerifyFamilyAccess checks if a user has access to a family
func (s *FamilyService) VerifyFamilyAccess(userID, familyID int64) error {
	isMember, err := s.familyRepo.IsFamilyMember(userID, familyID)
	if err != nil {
		return fmt.Errorf("failed to verify family access: %w", err)
	}
	if !isMember {
		return ErrNotFamilyMember
	}
	return nil
}

// RenameFamily changes a family's display name
func (s *FamilyService) RenameFamily(userID, familyID int64, name string) error {
	if err := s.VerifyFamilyAccess(userID, familyID); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := validation.ValidateRequired("name", name, 100); err != nil {
		return err
	}
	if err := s.familyRepo.UpdateFamily(familyID, name); err != nil {
		return fmt.Errorf("failed to rename family: %w", err)
	}
	return nil
}

// JoinFamilyByCode allows a user to join a family using its code
func (s *FamilyService) JoinFamilyByCode(userID int64, familyCode string) (*models.Family, error) {
	familyCode = strings.ToUpper(strings.TrimSpace(familyCode))
	if familyCode == "" {
		return nil, validation.ValidationError{Field: "family_code", Message: "family code is required"}
	}

	family, err := s.familyRepo.GetFamilyByCode(familyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, ErrInvalidFamilyCode
	}

	isMember, err := s.familyRepo.IsFamilyMember(userID, family.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	if err := s.familyRepo.AddFamilyMember(family.ID, userID, models.RoleParent); err != nil {
		return nil, fmt.Errorf("failed to join family: %w", err)
	}
	log.Printf("User %d joined family %d", userID, family.ID)
	return family, nil
}

// LeaveFamily allows a user to leave a family
func (s *FamilyService) LeaveFamily(userID, familyID int64) error {
	if err := s.VerifyFamilyAccess(userID, familyID); err != nil {
		return err
	}
	if err := s.familyRepo.RemoveFamilyMember(familyID, userID); err != nil {
		return fmt.Errorf("failed to leave family: %w", err)
	}
	return nil
}

// CreateChild creates a new child profile with a generated username and PIN
func (s *FamilyService) CreateChild(userID, familyID int64, in ChildInput) (*models.Child, error) {
	if err := s.VerifyFamilyAccess(userID, familyID); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.AvatarColor == "" {
		in.AvatarColor = defaultAvatarColor
	}

	username, err := s.uniqueUsername(familyID)
	if err != nil {
		return nil, err
	}
	pin, err := credentials.GeneratePIN()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pin: %w", err)
	}

	child, err := s.childRepo.CreateChild(&models.Child{
		FamilyID:    familyID,
		Name:        in.Name,
		Username:    username,
		PIN:         pin,
		GradeLevel:  strings.TrimSpace(in.GradeLevel),
		BirthDate:   in.BirthDate,
		AvatarColor: in.AvatarColor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return child, nil
}

func (s *FamilyService) uniqueUsername(familyID int64) (string, error) {
	for i := 0; i < maxCodeRetries; i++ {
		username, err := credentials.GenerateChildUsername()
		if err != nil {
			return "", fmt.Errorf("failed to generate username: %w", err)
		}
		taken, err := s.childRepo.UsernameExists(familyID, username)
		if err != nil {
			return "", fmt.Errorf("failed to check username uniqueness: %w", err)
		}
		if !taken {
			return username, nil
		}
	}
	return "", fmt.Errorf("failed to find an unused username after %d attempts", maxCodeRetries)
}

// GetFamilyChildren retrieves all children in a family
func (s *FamilyService) GetFamilyChildren(userID, familyID int64) ([]models.Child, error) {
	if err := s.VerifyFamilyAccess(userID, familyID); err != nil {
		return nil, err
	}
	children, err := s.childRepo.GetFamilyChildren(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family children: %w", err)
	}
	return children, nil
}

// GetAllUserChildren retrieves the children of every family the user belongs to
func (s *FamilyService) GetAllUserChildren(userID int64) ([]models.Child, error) {
	families, err := s.GetUserFamilies(userID)
	if err != nil {
		return nil, err
	}

	var all []models.Child
	for _, family := range families {
		children, err := s.childRepo.GetFamilyChildren(family.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get children for family %d: %w", family.ID, err)
		}
		all = append(all, children...)
	}
	return all, nil
}

// GetChild retrieves a child by ID without an access check
func (s *FamilyService) GetChild(childID int64) (*models.Child, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// ChildForUser returns a child after checking the user belongs to the child's family
func (s *FamilyService) ChildForUser(userID, childID int64) (*models.Child, error) {
	child, err := s.GetChild(childID)
	if err != nil {
		return nil, err
	}
	if err := s.VerifyFamilyAccess(userID, child.FamilyID); err != nil {
		return nil, err
	}
	return child, nil
}

// UpdateChild updates a child's profile
func (s *FamilyService) UpdateChild(userID, childID int64, in ChildInput) (*models.Child, error) {
	child, err := s.ChildForUser(userID, childID)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return nil, err
	}

	child.Name = in.Name
	child.GradeLevel = strings.TrimSpace(in.GradeLevel)
	child.BirthDate = in.BirthDate
	if in.AvatarColor != "" {
		child.AvatarColor = in.AvatarColor
	}
	if err := s.childRepo.UpdateChild(child); err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}
	return child, nil
}

// RegeneratePIN issues a new PIN for a child
func (s *FamilyService) RegeneratePIN(userID, childID int64) (string, error) {
	if _, err := s.ChildForUser(userID, childID); err != nil {
		return "", err
	}
	pin, err := credentials.GeneratePIN()
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	if err := s.childRepo.UpdatePIN(childID, pin); err != nil {
		return "", fmt.Errorf("failed to update pin: %w", err)
	}
	return pin, nil
}

// DeleteChild deletes a child and all of their records
func (s *FamilyService) DeleteChild(userID, childID int64) error {
	if _, err := s.ChildForUser(userID, childID); err != nil {
		return err
	}
	if err := s.childRepo.DeleteChild(childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	log.Printf("Child %d deleted by user %d", childID, userID)
	return nil
}

// ChildLogin signs a child in with their family code, username and PIN
func (s *FamilyService) ChildLogin(familyCode, username, pin string) (*models.ChildSession, *models.Child, error) {
	family, err := s.familyRepo.GetFamilyByCode(strings.ToUpper(strings.TrimSpace(familyCode)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, nil, ErrInvalidChildLogin
	}

	child, err := s.childRepo.GetChildByUsername(family.ID, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil || subtle.ConstantTimeCompare([]byte(child.PIN), []byte(pin)) != 1 {
		return nil, nil, ErrInvalidChildLogin
	}

	session, err := s.childRepo.CreateChildSession(security.GenerateSessionID(), child.ID, time.Now().Add(childSessionDuration))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create child session: %w", err)
	}
	return session, child, nil
}

// ValidateChildSession returns the child signed in with sessionID
func (s *FamilyService) ValidateChildSession(sessionID string) (*models.Child, error) {
	session, err := s.childRepo.GetChildSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		_ = s.childRepo.DeleteChildSession(sessionID)
		return nil, ErrSessionExpired
	}
	return s.GetChild(session.ChildID)
}

// LogoutChild removes a child session
func (s *FamilyService) LogoutChild(sessionID string) error {
	if err := s.childRepo.DeleteChildSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout child: %w", err)
	}
	return nil
}

// CleanupExpiredChildSessions removes expired child sessions
func (s *FamilyService) CleanupExpiredChildSessions() error {
	if err := s.childRepo.DeleteExpiredChildSessions(); err != nil {
		return fmt.Errorf("failed to cleanup child sessions: %w", err)
	}
	return nil
}
