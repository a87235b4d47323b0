package handlers

import (
	"net/http"
	"strings"

	"village/internal/models"
	"village/internal/security"
	"village/internal/service"
)

// ChildHandler serves the student view used by signed-in children
type ChildHandler struct {
	familyService      *service.FamilyService
	readingService     *service.ReadingService
	achievementService *service.AchievementService
	middleware         *Middleware
}

// NewChildHandler creates a new child handler
func NewChildHandler(familyService *service.FamilyService, readingService *service.ReadingService, achievementService *service.AchievementService, middleware *Middleware) *ChildHandler {
	return &ChildHandler{
		familyService:      familyService,
		readingService:     readingService,
		achievementService: achievementService,
		middleware:         middleware,
	}
}

type childSessionResponse struct {
	Child     *models.Child `json:"child"`
	CSRFToken string        `json:"csrf_token"`
}

// withoutPIN returns a copy of child that is safe to show to the child
func withoutPIN(child *models.Child) *models.Child {
	c := *child
	c.PIN = ""
	return &c
}

// Login signs a child in with family code, username and PIN
func (h *ChildHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FamilyCode string `json:"family_code"`
		Username   string `json:"username"`
		PIN        string `json:"pin"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	account := childAccountKey(in.FamilyCode, in.Username)
	if !h.middleware.allowAccount(w, account) {
		return
	}

	session, child, err := h.familyService.ChildLogin(in.FamilyCode, in.Username, in.PIN)
	if err != nil {
		respondWithServiceError(w, "Failed to login child", err)
		return
	}
	h.middleware.accountSucceeded(account)

	http.SetCookie(w, security.CreateSessionCookie(r, ChildSessionCookieName, session.ID, session.ExpiresAt))
	respondOK(w, childSessionResponse{
		Child:     withoutPIN(child),
		CSRFToken: h.middleware.csrfToken(session.ID),
	})
}

// childAccountKey names a child login the way ChildLogin matches it
func childAccountKey(familyCode, username string) string {
	return "child:" + strings.ToUpper(strings.TrimSpace(familyCode)) + "/" + strings.ToLower(strings.TrimSpace(username))
}

// Logout ends the child session
func (h *ChildHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(ChildSessionCookieName); err == nil && cookie.Value != "" {
		if err := h.familyService.LogoutChild(cookie.Value); err != nil {
			respondWithServiceError(w, "Failed to logout child", err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, ChildSessionCookieName))
	respondMessage(w, "Logged out")
}

// Me returns the signed-in child
func (h *ChildHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondOK(w, withoutPIN(GetChildFromContext(r.Context())))
}

// ListReading lists the child's own reading log
func (h *ChildHandler) ListReading(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())
	dr, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	logs, err := h.readingService.ListForChild(child.ID, dr)
	if err != nil {
		respondWithServiceError(w, "Failed to list reading logs", err)
		return
	}
	respondOK(w, logs)
}

// LogReading lets a child record their own reading
func (h *ChildHandler) LogReading(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())
	var in readingRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := h.readingService.LogForChild(child.ID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to log reading", err)
		return
	}
	respondCreated(w, entry)
}

// Achievements returns the child's achievement overview
func (h *ChildHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())
	overview, err := h.achievementService.Overview(child.ID, r.URL.Query().Get("category"))
	if err != nil {
		respondWithServiceError(w, "Failed to load achievements", err)
		return
	}
	respondOK(w, overview)
}
