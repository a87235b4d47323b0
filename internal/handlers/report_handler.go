package handlers

import (
	"net/http"

	"village/internal/service"
)

// ReportHandler serves the dashboard, progress reports and transcripts
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Dashboard summarises every child the parent can see
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	dashboard, err := h.reportService.Dashboard(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to build dashboard", err)
		return
	}
	respondOK(w, dashboard)
}

// ProgressReport reports a child's school year, the current one unless
// year_id is given
func (h *ReportHandler) ProgressReport(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	yearID, ok := queryID(w, r, "year_id")
	if !ok {
		return
	}

	report, err := h.reportService.ProgressReport(user.ID, childID, yearID)
	if err != nil {
		respondWithServiceError(w, "Failed to build progress report", err)
		return
	}
	respondOK(w, report)
}

// EmailProgressReport sends the progress report to the signed-in parent
func (h *ReportHandler) EmailProgressReport(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	yearID, ok := queryID(w, r, "year_id")
	if !ok {
		return
	}

	if err := h.reportService.EmailProgressReport(r.Context(), user, childID, yearID); err != nil {
		respondWithServiceError(w, "Failed to email progress report", err)
		return
	}
	respondMessage(w, "Progress report sent to "+user.Email)
}

// Transcript returns a child's courses grouped by school year with GPA
func (h *ReportHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	transcript, err := h.reportService.Transcript(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, "Failed to build transcript", err)
		return
	}
	respondOK(w, transcript)
}
