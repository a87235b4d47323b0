package handlers

import (
	"net/http"
	"sort"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/service"
	"village/internal/validation"
)

// AssignmentHandler handles assignment and grading requests
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

type assignmentRequest struct {
	CourseID    *int64  `json:"course_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *Date   `json:"due_date"`
	MaxScore    float64 `json:"max_score"`
}

func (a assignmentRequest) input() service.AssignmentInput {
	return service.AssignmentInput{
		CourseID:    a.CourseID,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate.Ptr(),
		MaxScore:    a.MaxScore,
	}
}

// List returns a child's assignments filtered by status, course_id and a
// due date range
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	var filter repository.AssignmentFilter
	switch status := r.URL.Query().Get("status"); status {
	case "", models.AssignmentPending, models.AssignmentCompleted, models.AssignmentGraded:
		filter.Status = status
	default:
		respondValidationError(w, validation.ValidationError{Field: "status", Message: "must be pending, completed or graded"})
		return
	}
	if filter.CourseID, ok = queryID(w, r, "course_id"); !ok {
		return
	}
	if filter.Due, ok = queryDateRange(w, r); !ok {
		return
	}

	assignments, err := h.assignmentService.List(user.ID, childID, filter)
	if err != nil {
		respondWithServiceError(w, "Failed to list assignments", err)
		return
	}
	respondOK(w, assignments)
}

// Create sets a new assignment for a child
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	var in assignmentRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	a, err := h.assignmentService.Create(user.ID, childID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to create assignment", err)
		return
	}
	respondCreated(w, a)
}

// Get returns one assignment
func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}

	a, err := h.assignmentService.Get(user.ID, assignmentID)
	if err != nil {
		respondWithServiceError(w, "Failed to get assignment", err)
		return
	}
	respondOK(w, a)
}

// Update edits an assignment
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}
	var in assignmentRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	a, err := h.assignmentService.Update(user.ID, assignmentID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to update assignment", err)
		return
	}
	respondOK(w, a)
}

// Delete removes an assignment
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}

	if err := h.assignmentService.Delete(user.ID, assignmentID); err != nil {
		respondWithServiceError(w, "Failed to delete assignment", err)
		return
	}
	respondMessage(w, "Assignment deleted")
}

// Complete marks an assignment as handed in
func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}

	a, err := h.assignmentService.Complete(user.ID, assignmentID)
	if err != nil {
		respondWithServiceError(w, "Failed to complete assignment", err)
		return
	}
	respondOK(w, a)
}

// Grade records a score for an assignment
func (h *AssignmentHandler) Grade(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}
	var in struct {
		Score *float64 `json:"score"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Score == nil {
		respondValidationError(w, validation.ValidationError{Field: "score", Message: "score is required"})
		return
	}

	a, err := h.assignmentService.Grade(user.ID, assignmentID, *in.Score)
	if err != nil {
		respondWithServiceError(w, "Failed to grade assignment", err)
		return
	}
	respondOK(w, a)
}

// Grades returns the average grade of each of a child's courses
func (h *AssignmentHandler) Grades(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	grades, err := h.assignmentService.CourseGrades(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, "Failed to compute grades", err)
		return
	}
	list := make([]service.CourseGrade, 0, len(grades))
	for _, g := range grades {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CourseID < list[j].CourseID })
	respondOK(w, list)
}
