package handlers

import (
	"net/http"

	"village/internal/achievements"
	"village/internal/service"
	"village/internal/validation"
)

// AchievementHandler serves the achievement catalog and each child's badges
type AchievementHandler struct {
	achievementService *service.AchievementService
	familyService      *service.FamilyService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(achievementService *service.AchievementService, familyService *service.FamilyService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService, familyService: familyService}
}

// Catalog lists every achievement, optionally for one category
func (h *AchievementHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		respondOK(w, achievements.Catalog())
		return
	}
	if !achievements.ValidCategory(category) {
		respondValidationError(w, validation.ValidationError{Field: "category", Message: "unknown category"})
		return
	}
	respondOK(w, achievements.ByCategory(achievements.Category(category)))
}

// Get returns one catalog entry by key
func (h *AchievementHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := achievements.Lookup(r.PathValue("key"))
	if !ok {
		respondWithServiceError(w, "", service.ErrUnknownAchievement)
		return
	}
	respondOK(w, a)
}

// Overview returns a child's progress through the catalog
func (h *AchievementHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	if _, err := h.familyService.ChildForUser(user.ID, childID); err != nil {
		respondWithServiceError(w, "Failed to get child", err)
		return
	}

	overview, err := h.achievementService.Overview(childID, r.URL.Query().Get("category"))
	if err != nil {
		respondWithServiceError(w, "Failed to load achievements", err)
		return
	}
	respondOK(w, overview)
}

// Check re-evaluates a child's achievements and returns any newly earned
func (h *AchievementHandler) Check(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	if _, err := h.familyService.ChildForUser(user.ID, childID); err != nil {
		respondWithServiceError(w, "Failed to get child", err)
		return
	}

	newly, err := h.achievementService.CheckAndAward(childID)
	if err != nil {
		respondWithServiceError(w, "Failed to check achievements", err)
		return
	}
	if newly == nil {
		newly = []achievements.Achievement{}
	}
	respondOK(w, map[string]interface{}{"newly_earned": newly})
}
