package handlers

import (
	"net/http"

	"village/internal/service"
)

// GoalHandler handles goal requests
type GoalHandler struct {
	goalService *service.GoalService
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

type goalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  *Date  `json:"target_date"`
	Progress    int    `json:"progress"`
}

func (g goalRequest) input() service.GoalInput {
	return service.GoalInput{
		Title:       g.Title,
		Description: g.Description,
		TargetDate:  g.TargetDate.Ptr(),
		Progress:    g.Progress,
	}
}

// List returns a child's goals
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	goals, err := h.goalService.List(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, "Failed to list goals", err)
		return
	}
	respondOK(w, goals)
}

// Create adds a goal for a child
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	var in goalRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	goal, err := h.goalService.Create(user.ID, childID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to create goal", err)
		return
	}
	respondCreated(w, goal)
}

// Update edits a goal, including its progress
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	goalID, ok := pathID(w, r, "goalID")
	if !ok {
		return
	}
	var in goalRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	goal, err := h.goalService.Update(user.ID, goalID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to update goal", err)
		return
	}
	respondOK(w, goal)
}

// Complete marks a goal as reached
func (h *GoalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	goalID, ok := pathID(w, r, "goalID")
	if !ok {
		return
	}

	goal, err := h.goalService.Complete(user.ID, goalID)
	if err != nil {
		respondWithServiceError(w, "Failed to complete goal", err)
		return
	}
	respondOK(w, goal)
}

// Delete removes a goal
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	goalID, ok := pathID(w, r, "goalID")
	if !ok {
		return
	}

	if err := h.goalService.Delete(user.ID, goalID); err != nil {
		respondWithServiceError(w, "Failed to delete goal", err)
		return
	}
	respondMessage(w, "Goal deleted")
}
