package handlers

import (
	"net/http"

	"village/internal/service"
)

// AttendanceHandler handles attendance requests
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

type attendanceRequest struct {
	Date   Date    `json:"date"`
	Status string  `json:"status"`
	Hours  float64 `json:"hours"`
	Notes  string  `json:"notes"`
}

// List returns a child's attendance, optionally within from and to
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	dr, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.attendanceService.List(user.ID, childID, dr)
	if err != nil {
		respondWithServiceError(w, "Failed to list attendance", err)
		return
	}
	respondOK(w, records)
}

// Mark records attendance for a day, replacing any earlier record
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	var in attendanceRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	record, err := h.attendanceService.Mark(user.ID, childID, service.AttendanceInput{
		Date:   in.Date.Time,
		Status: in.Status,
		Hours:  in.Hours,
		Notes:  in.Notes,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to mark attendance", err)
		return
	}
	respondOK(w, record)
}

// Summary returns attendance totals and streaks
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	dr, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	summary, err := h.attendanceService.Summary(user.ID, childID, dr)
	if err != nil {
		respondWithServiceError(w, "Failed to summarise attendance", err)
		return
	}
	respondOK(w, summary)
}

// Delete removes an attendance record
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	recordID, ok := pathID(w, r, "recordID")
	if !ok {
		return
	}

	if err := h.attendanceService.Delete(user.ID, recordID); err != nil {
		respondWithServiceError(w, "Failed to delete attendance", err)
		return
	}
	respondMessage(w, "Attendance deleted")
}
