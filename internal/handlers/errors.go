package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"village/internal/service"
	"village/internal/validation"
)

// SuccessResponse is the envelope for successful API responses
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failed API responses
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: userMsg,
	})
}

func respondValidationError(w http.ResponseWriter, vErr validation.ValidationError) {
	respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   http.StatusText(http.StatusUnprocessableEntity),
		Message: vErr.Message,
		Details: vErr,
	})
}

// errorStatus maps service errors to HTTP status codes
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidChildLogin, http.StatusUnauthorized},
	{service.ErrSessionNotFound, http.StatusUnauthorized},
	{service.ErrSessionExpired, http.StatusUnauthorized},
	{service.ErrNotFamilyMember, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrRegistrationClosed, http.StatusForbidden},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrAlreadyMember, http.StatusConflict},
	{service.ErrCourseComplete, http.StatusConflict},
	{service.ErrInvalidResetToken, http.StatusBadRequest},
	{service.ErrInvalidFamilyCode, http.StatusBadRequest},
	{service.ErrFamilyNotFound, http.StatusNotFound},
	{service.ErrChildNotFound, http.StatusNotFound},
	{service.ErrSchoolYearNotFound, http.StatusNotFound},
	{service.ErrBreakNotFound, http.StatusNotFound},
	{service.ErrNoActiveSchoolYear, http.StatusNotFound},
	{service.ErrCourseNotFound, http.StatusNotFound},
	{service.ErrAttendanceNotFound, http.StatusNotFound},
	{service.ErrAssignmentNotFound, http.StatusNotFound},
	{service.ErrReadingLogNotFound, http.StatusNotFound},
	{service.ErrGoalNotFound, http.StatusNotFound},
	{service.ErrPortfolioNotFound, http.StatusNotFound},
	{service.ErrUnknownAchievement, http.StatusNotFound},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
	{service.ErrEmailDisabled, http.StatusServiceUnavailable},
}

// respondWithServiceError writes the response for an error returned by a
// service. Unknown errors are logged and reported as 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var vErr validation.ValidationError
	if errors.As(err, &vErr) {
		respondValidationError(w, vErr)
		return
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			respondWithError(w, m.status, m.err.Error(), "", nil)
			return
		}
	}

	respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
}
