package handlers

import (
	"net/http"

	"village/internal/service"
)

// ReadingHandler handles reading log requests from parents
type ReadingHandler struct {
	readingService *service.ReadingService
	familyService  *service.FamilyService
}

// NewReadingHandler creates a new reading handler
func NewReadingHandler(readingService *service.ReadingService, familyService *service.FamilyService) *ReadingHandler {
	return &ReadingHandler{readingService: readingService, familyService: familyService}
}

type readingRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Date     Date   `json:"date"`
	Minutes  int    `json:"minutes"`
	Pages    int    `json:"pages"`
	Finished bool   `json:"finished"`
	Notes    string `json:"notes"`
}

func (in readingRequest) input() service.ReadingInput {
	return service.ReadingInput{
		Title:    in.Title,
		Author:   in.Author,
		Date:     in.Date.Time,
		Minutes:  in.Minutes,
		Pages:    in.Pages,
		Finished: in.Finished,
		Notes:    in.Notes,
	}
}

// List returns a child's reading log
func (h *ReadingHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	dr, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	logs, err := h.readingService.List(user.ID, childID, dr)
	if err != nil {
		respondWithServiceError(w, "Failed to list reading logs", err)
		return
	}
	respondOK(w, logs)
}

// Log records a reading session for a child
func (h *ReadingHandler) Log(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	var in readingRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := h.readingService.Log(user.ID, childID, in.input())
	if err != nil {
		respondWithServiceError(w, "Failed to log reading", err)
		return
	}
	respondCreated(w, entry)
}

// Totals returns reading totals and streaks for a child
func (h *ReadingHandler) Totals(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	dr, ok := queryDateRange(w, r)
	if !ok {
		return
	}
	if _, err := h.familyService.ChildForUser(user.ID, childID); err != nil {
		respondWithServiceError(w, "Failed to get child", err)
		return
	}

	totals, err := h.readingService.Totals(childID, dr)
	if err != nil {
		respondWithServiceError(w, "Failed to compute reading totals", err)
		return
	}
	respondOK(w, totals)
}

// Delete removes a reading log entry
func (h *ReadingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	logID, ok := pathID(w, r, "logID")
	if !ok {
		return
	}

	if err := h.readingService.Delete(user.ID, logID); err != nil {
		respondWithServiceError(w, "Failed to delete reading log", err)
		return
	}
	respondMessage(w, "Reading log deleted")
}
