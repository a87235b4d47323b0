package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"village/internal/service"
	"village/internal/validation"
)

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", recorder.Body.String(), err)
	}
	return resp
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	resp := decodeError(t, recorder)
	if resp.Success {
		t.Fatal("expected success to be false")
	}
	if resp.Message != "Teapot" {
		t.Fatalf("expected message 'Teapot', got %q", resp.Message)
	}
	if resp.Error != "I'm a teapot" {
		t.Fatalf("expected status text, got %q", resp.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
	if strings.Contains(recorder.Body.String(), "boom") {
		t.Fatalf("internal error leaked into response: %q", recorder.Body.String())
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not a family member", service.ErrNotFamilyMember, http.StatusForbidden},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"wrapped not found", fmt.Errorf("loading course: %w", service.ErrCourseNotFound), http.StatusNotFound},
		{"no active year", service.ErrNoActiveSchoolYear, http.StatusNotFound},
		{"file too large", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported file", service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{"email disabled", service.ErrEmailDisabled, http.StatusServiceUnavailable},
		{"validation", validation.ValidationError{Field: "name", Message: "name is required"}, http.StatusUnprocessableEntity},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	var buf bytes.Buffer
	originalOutput := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(originalOutput)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, "test", tt.err)
			if recorder.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, recorder.Code)
			}
			resp := decodeError(t, recorder)
			if tt.status == http.StatusInternalServerError && resp.Message != ErrInternalServerError {
				t.Fatalf("expected generic message, got %q", resp.Message)
			}
		})
	}
}

func TestRespondValidationErrorIncludesField(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondWithServiceError(recorder, "test", fmt.Errorf("wrapped: %w", validation.ValidationError{Field: "pin", Message: "pin must be 4 to 6 digits"}))

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	var resp struct {
		Message string                     `json:"message"`
		Details validation.ValidationError `json:"details"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Details.Field != "pin" || resp.Message != "pin must be 4 to 6 digits" {
		t.Fatalf("unexpected validation body: %+v", resp)
	}
}
