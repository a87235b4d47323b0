package handlers

import (
	"net/http"

	"village/internal/service"
)

// CalendarHandler handles school year and break requests
type CalendarHandler struct {
	calendarService *service.CalendarService
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

type dateSpanRequest struct {
	Name      string `json:"name"`
	StartDate Date   `json:"start_date"`
	EndDate   Date   `json:"end_date"`
}

// ListSchoolYears lists a family's school years
func (h *CalendarHandler) ListSchoolYears(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}

	years, err := h.calendarService.ListSchoolYears(user.ID, familyID)
	if err != nil {
		respondWithServiceError(w, "Failed to list school years", err)
		return
	}
	respondOK(w, years)
}

// CreateSchoolYear adds a school year to a family
func (h *CalendarHandler) CreateSchoolYear(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, ok := pathID(w, r, "familyID")
	if !ok {
		return
	}
	var in dateSpanRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	year, err := h.calendarService.CreateSchoolYear(user.ID, familyID, service.SchoolYearInput{
		Name:      in.Name,
		StartDate: in.StartDate.Time,
		EndDate:   in.EndDate.Time,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to create school year", err)
		return
	}
	respondCreated(w, year)
}

// GetSchoolYear returns a school year with its breaks
func (h *CalendarHandler) GetSchoolYear(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	yearID, ok := pathID(w, r, "yearID")
	if !ok {
		return
	}

	year, err := h.calendarService.GetSchoolYear(user.ID, yearID)
	if err != nil {
		respondWithServiceError(w, "Failed to get school year", err)
		return
	}
	respondOK(w, year)
}

// UpdateSchoolYear edits a school year
func (h *CalendarHandler) UpdateSchoolYear(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	yearID, ok := pathID(w, r, "yearID")
	if !ok {
		return
	}
	var in dateSpanRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	year, err := h.calendarService.UpdateSchoolYear(user.ID, yearID, service.SchoolYearInput{
		Name:      in.Name,
		StartDate: in.StartDate.Time,
		EndDate:   in.EndDate.Time,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to update school year", err)
		return
	}
	respondOK(w, year)
}

// DeleteSchoolYear removes a school year and its breaks
func (h *CalendarHandler) DeleteSchoolYear(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	yearID, ok := pathID(w, r, "yearID")
	if !ok {
		return
	}

	if err := h.calendarService.DeleteSchoolYear(user.ID, yearID); err != nil {
		respondWithServiceError(w, "Failed to delete school year", err)
		return
	}
	respondMessage(w, "School year deleted")
}

// ListBreaks lists the breaks of a school year
func (h *CalendarHandler) ListBreaks(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	yearID, ok := pathID(w, r, "yearID")
	if !ok {
		return
	}

	breaks, err := h.calendarService.ListBreaks(user.ID, yearID)
	if err != nil {
		respondWithServiceError(w, "Failed to list breaks", err)
		return
	}
	respondOK(w, breaks)
}

// AddBreak adds a break to a school year
func (h *CalendarHandler) AddBreak(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	yearID, ok := pathID(w, r, "yearID")
	if !ok {
		return
	}
	var in dateSpanRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	b, err := h.calendarService.AddBreak(user.ID, yearID, service.BreakInput{
		Name:      in.Name,
		StartDate: in.StartDate.Time,
		EndDate:   in.EndDate.Time,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to add break", err)
		return
	}
	respondCreated(w, b)
}

// DeleteBreak removes a break
func (h *CalendarHandler) DeleteBreak(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	breakID, ok := pathID(w, r, "breakID")
	if !ok {
		return
	}

	if err := h.calendarService.DeleteBreak(user.ID, breakID); err != nil {
		respondWithServiceError(w, "Failed to delete break", err)
		return
	}
	respondMessage(w, "Break deleted")
}
