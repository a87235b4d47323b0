package handlers

import (
	"net/http"
	"time"

	"village/internal/models"
	"village/internal/security"
	"village/internal/service"
)

// AuthHandler handles parent authentication requests
type AuthHandler struct {
	authService          *service.AuthService
	familyService        *service.FamilyService
	middleware           *Middleware
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, familyService *service.FamilyService, middleware *Middleware, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		familyService:        familyService,
		middleware:           middleware,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type meResponse struct {
	User     *models.User    `json:"user"`
	Families []models.Family `json:"families"`
}

// Register creates a parent account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if _, err := h.authService.Register(r.Context(), in); err != nil {
		respondWithServiceError(w, "Failed to register user", err)
		return
	}

	session, user, err := h.authService.Login(in.Email, in.Password)
	if err != nil {
		respondWithServiceError(w, "Failed to sign in new user", err)
		return
	}

	h.startSession(w, r, session, user, http.StatusCreated)
}

// Login signs a parent in with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}

	session, user, err := h.authService.Login(in.Email, in.Password)
	if err != nil {
		respondWithServiceError(w, "Failed to login", err)
		return
	}

	h.startSession(w, r, session, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, session *models.Session, user *models.User, status int) {
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, status, SuccessResponse{
		Success: true,
		Data: sessionResponse{
			User:      user,
			CSRFToken: h.middleware.csrfToken(session.ID),
			ExpiresAt: session.ExpiresAt,
		},
	})
}

// Logout ends the current parent session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.authService.Logout(cookie.Value); err != nil {
			respondWithServiceError(w, "Failed to logout", err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondMessage(w, "Logged out")
}

// Me returns the signed-in parent and their families
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	families, err := h.familyService.GetUserFamilies(user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to load families", err)
		return
	}
	respondOK(w, meResponse{User: user, Families: families})
}

// CSRFToken returns a fresh CSRF token for the current cookie session
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(sessionContextKey).(string)
	if sessionID == "" {
		respondOK(w, map[string]string{"csrf_token": ""})
		return
	}
	respondOK(w, map[string]string{"csrf_token": h.middleware.csrfToken(sessionID)})
}

// Token exchanges an email and password for a bearer token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.authService.Authenticate(in.Email, in.Password)
	if err != nil {
		respondWithServiceError(w, "Failed to authenticate", err)
		return
	}

	token, expiresAt, err := h.authService.IssueToken(user)
	if err != nil {
		respondWithServiceError(w, "Failed to issue token", err)
		return
	}
	respondOK(w, tokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}

// ForgotPassword sends a reset link when the email belongs to an account
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), in.Email); err != nil {
		respondWithServiceError(w, "Failed to request password reset", err)
		return
	}
	respondMessage(w, "If an account exists for that email, a reset link has been sent")
}

// ValidateResetToken reports whether a reset token can still be used
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.authService.ValidatePasswordResetToken(r.URL.Query().Get("token"))
	if err != nil {
		respondWithServiceError(w, "Failed to validate reset token", err)
		return
	}
	respondOK(w, map[string]bool{"valid": valid})
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.authService.ResetPassword(in.Token, in.Password); err != nil {
		respondWithServiceError(w, "Failed to reset password", err)
		return
	}
	respondMessage(w, "Password updated")
}
