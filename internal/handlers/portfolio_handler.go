package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"village/internal/service"
	"village/internal/validation"
)

// PortfolioHandler handles portfolio uploads
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	maxUploadSize    int64
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolioService *service.PortfolioService, maxUploadSize int64) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, maxUploadSize: maxUploadSize}
}

// List returns a child's portfolio, optionally for one course and date range
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}
	courseID, ok := queryID(w, r, "course_id")
	if !ok {
		return
	}
	dr, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	items, err := h.portfolioService.List(r.Context(), user.ID, childID, courseID, dr)
	if err != nil {
		respondWithServiceError(w, "Failed to list portfolio", err)
		return
	}
	respondOK(w, items)
}

// Upload accepts a multipart form with a file field plus title,
// description, date and course_id
func (h *PortfolioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	childID, ok := pathID(w, r, "childID")
	if !ok {
		return
	}

	// Leave room for the other form fields
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithServiceError(w, "", service.ErrFileTooLarge)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form", "", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondValidationError(w, validation.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer file.Close()

	up := service.PortfolioUpload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	if up.ContentType == "" || up.ContentType == "application/octet-stream" {
		up.ContentType = sniffContentType(file)
	}
	if raw := r.FormValue("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			respondValidationError(w, validation.ValidationError{Field: "date", Message: err.Error()})
			return
		}
		up.Date = d
	}
	if raw := r.FormValue("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondValidationError(w, validation.ValidationError{Field: "course_id", Message: "must be a positive integer"})
			return
		}
		up.CourseID = &id
	}

	item, err := h.portfolioService.Upload(r.Context(), user.ID, childID, up)
	if err != nil {
		respondWithServiceError(w, "Failed to upload portfolio item", err)
		return
	}
	respondCreated(w, item)
}

// sniffContentType detects the type from the first bytes and rewinds
func sniffContentType(f io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}

// Delete removes a portfolio item and its file
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.portfolioService.Delete(r.Context(), user.ID, itemID); err != nil {
		respondWithServiceError(w, "Failed to delete portfolio item", err)
		return
	}
	respondMessage(w, "Portfolio item deleted")
}
