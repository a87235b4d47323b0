package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/security"
	"village/internal/validation"
)

const resetTokenTTL = time.Hour

// RegisterInput holds the fields of a sign-up request
type RegisterInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	FamilyName string `json:"family_name"`
	FamilyCode string `json:"family_code"`
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	familyRepo      *repository.FamilyRepository
	settingsRepo    *repository.SettingsRepository
	tokens          *security.TokenIssuer
	email           *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo *repository.UserRepository,
	familyRepo *repository.FamilyRepository,
	settingsRepo *repository.SettingsRepository,
	tokens *security.TokenIssuer,
	email *EmailService,
	sessionDuration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		familyRepo:      familyRepo,
		settingsRepo:    settingsRepo,
		tokens:          tokens,
		email:           email,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new parent account and either joins an existing family
// by code or creates a new family
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.FamilyCode = strings.ToUpper(strings.TrimSpace(in.FamilyCode))

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, err
	}

	var family *models.Family
	if in.FamilyCode != "" {
		f, err := s.familyRepo.GetFamilyByCode(in.FamilyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check family code: %w", err)
		}
		if f == nil {
			return nil, ErrInvalidFamilyCode
		}
		family = f
	} else if s.settingsRepo != nil && !s.settingsRepo.IsRegistrationOpen() {
		// Joining an existing family stays possible while sign-up is closed
		return nil, ErrRegistrationClosed
	}

	existingUser, err := s.userRepo.GetUserByEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(in.Email, passwordHash, in.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if family != nil {
		if err := s.familyRepo.AddFamilyMember(family.ID, user.ID, models.RoleParent); err != nil {
			return nil, fmt.Errorf("failed to join family: %w", err)
		}
	} else {
		name := strings.TrimSpace(in.FamilyName)
		if name == "" {
			name = defaultFamilyName(in.Name)
		}
		if _, err := createFamilyWithCode(s.familyRepo, name, user.ID); err != nil {
			// The family can be created later from the family page
			log.Printf("Warning: failed to create family for user %d: %v", user.ID, err)
		}
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

// Authenticate checks an email and password without creating a session
func (s *AuthService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.newSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) newSession(userID int64) (*models.Session, error) {
	session, err := s.userRepo.CreateSession(security.GenerateSessionID(), userID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// IssueToken creates a bearer token for API clients
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	if s.tokens == nil {
		return "", time.Time{}, errors.New("token issuing is not configured")
	}
	return s.tokens.Issue(user.ID, user.Email)
}

// ValidateToken checks a bearer token and returns its user
func (s *AuthService) ValidateToken(token string) (*models.User, error) {
	if s.tokens == nil {
		return nil, security.ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, security.ErrInvalidToken
	}
	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *AuthService) GetUser(userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// CleanupExpiredSessions removes expired sessions and reset tokens
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.userRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if err := s.userRepo.DeleteExpiredPasswordResetTokens(); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}

// OAuthLogin authenticates or creates a user using an OAuth provider
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name, familyCode string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existingUser != nil {
			if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(existingUser.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existingUser
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			// OAuth accounts get an unguessable password until they set one
			randomPasswordHash, err := security.HashPassword(security.GenerateSessionID())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
			}
			user, err = s.createOAuthUser(ctx, email, randomPasswordHash, name, familyCode)
			if err != nil {
				return nil, nil, err
			}
			if err := s.userRepo.LinkOAuthProvider(user.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
		}
	}

	session, err := s.newSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, email, passwordHash, name, familyCode string) (*models.User, error) {
	familyCode = strings.ToUpper(strings.TrimSpace(familyCode))

	var family *models.Family
	if familyCode != "" {
		f, err := s.familyRepo.GetFamilyByCode(familyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check family code: %w", err)
		}
		if f == nil {
			return nil, ErrInvalidFamilyCode
		}
		family = f
	} else if s.settingsRepo != nil && !s.settingsRepo.IsRegistrationOpen() {
		return nil, ErrRegistrationClosed
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	if family != nil {
		if err := s.familyRepo.AddFamilyMember(family.ID, user.ID, models.RoleParent); err != nil {
			return nil, fmt.Errorf("failed to join family: %w", err)
		}
	} else if _, err := createFamilyWithCode(s.familyRepo, defaultFamilyName(name), user.ID); err != nil {
		log.Printf("Warning: failed to create family for user %d: %v", user.ID, err)
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

// RequestPasswordReset creates a password reset token and emails it.
// Unknown addresses succeed silently so accounts cannot be probed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := security.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.DeleteUserPasswordResetTokens(user.ID)

	if err := s.userRepo.CreatePasswordResetToken(token, user.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.email != nil && s.email.IsEnabled() {
		if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ValidatePasswordResetToken checks if a reset token can still be used
func (s *AuthService) ValidatePasswordResetToken(token string) (bool, error) {
	resetToken, err := s.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return false, fmt.Errorf("failed to get reset token: %w", err)
	}
	return resetToken != nil && resetToken.Usable(), nil
}

// ResetPassword sets a new password using a valid token and signs the
// user out everywhere
func (s *AuthService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if resetToken == nil || !resetToken.Usable() {
		return ErrInvalidResetToken
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(resetToken.UserID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.userRepo.MarkPasswordResetTokenAsUsed(token); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	if err := s.userRepo.DeleteUserSessions(resetToken.UserID); err != nil {
		log.Printf("Warning: failed to clear sessions for user %d: %v", resetToken.UserID, err)
	}
	return nil
}

// SetRegistrationOpen lets an administrator open or close sign-up
func (s *AuthService) SetRegistrationOpen(user *models.User, open bool) error {
	if user == nil || !user.IsAdmin {
		return ErrForbidden
	}
	if err := s.settingsRepo.SetRegistrationOpen(open); err != nil {
		return fmt.Errorf("failed to update registration setting: %w", err)
	}
	log.Printf("Registration open set to %v by user %d", open, user.ID)
	return nil
}

// RegistrationOpen reports whether new families may sign up
func (s *AuthService) RegistrationOpen() bool {
	return s.settingsRepo == nil || s.settingsRepo.IsRegistrationOpen()
}

func defaultFamilyName(parentName string) string {
	first := strings.Fields(parentName)
	if len(first) == 0 {
		return "My Family"
	}
	return first[0] + "'s Family"
}
