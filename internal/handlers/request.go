package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/validation"
)

const maxJSONBody = 1 << 20

// Date accepts either "2006-01-02" or an RFC 3339 timestamp in request bodies
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Ptr returns nil for a zero date
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return models.CivilDate(t), nil
}

// decodeJSON reads a JSON request body into dst, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON+": "+err.Error(), "", nil)
		return false
	}
	return true
}

// pathID parses the named path value as a positive integer id
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return 0, false
	}
	return id, true
}

// queryID parses an optional integer query parameter
func queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondValidationError(w, validation.ValidationError{Field: name, Message: "must be a positive integer"})
		return nil, false
	}
	return &id, true
}

// queryDateRange reads the optional from and to query parameters
func queryDateRange(w http.ResponseWriter, r *http.Request) (repository.DateRange, bool) {
	var dr repository.DateRange
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &dr.From}, {"to", &dr.To}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			respondValidationError(w, validation.ValidationError{Field: p.name, Message: err.Error()})
			return dr, false
		}
		*p.dst = t
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.To.Before(dr.From) {
		respondValidationError(w, validation.ValidationError{Field: "to", Message: "must not be before from"})
		return dr, false
	}
	return dr, true
}
