package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"village/internal/service"
)

const maxBackupUpload = 50 << 20

// AdminHandler handles administrator requests
type AdminHandler struct {
	authService   *service.AuthService
	backupService *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{authService: authService, backupService: backupService}
}

// RegistrationStatus reports whether new families may sign up. It is public
// so the sign-up page can hide itself.
func (h *AdminHandler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]bool{"open": h.authService.RegistrationOpen()})
}

// SetRegistration opens or closes sign-up
func (h *AdminHandler) SetRegistration(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var in struct {
		Open *bool `json:"open"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Open == nil {
		respondWithError(w, http.StatusBadRequest, "open is required", "", nil)
		return
	}

	if err := h.authService.SetRegistrationOpen(user, *in.Open); err != nil {
		respondWithServiceError(w, "Failed to update registration setting", err)
		return
	}
	respondOK(w, map[string]bool{"open": *in.Open})
}

// DatabaseStats returns row counts per table
func (h *AdminHandler) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backupService.Stats()
	if err != nil {
		respondWithServiceError(w, "Error getting database stats", err)
		return
	}
	respondOK(w, stats)
}

// ExportDatabase streams a JSON backup as a file download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("village_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	// Headers are already sent once encoding starts, so failures can only be logged
	if _, err := h.backupService.ExportToWriter(w); err != nil {
		log.Printf("Error exporting database: %v", err)
		return
	}

	log.Printf("Database exported by admin user %s", user.Email)
}

// ImportDatabase replaces all data with an uploaded backup. The backup may
// be sent as the raw JSON body or as a multipart backup_file field.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupUpload)

	var err error
	if r.Header.Get("Content-Type") == "application/json" {
		err = h.backupService.ImportFromReader(r.Body)
	} else {
		file, _, ferr := r.FormFile("backup_file")
		if ferr != nil {
			respondWithError(w, http.StatusBadRequest, "Please select a backup file", "", nil)
			return
		}
		defer file.Close()
		err = h.backupService.ImportFromReader(file)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to import database: "+err.Error(), "Error importing database", err)
		return
	}

	log.Printf("Database imported successfully by admin user %s", user.Email)
	respondMessage(w, "Database imported successfully")
}
