package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	pinRegex   = regexp.MustCompile(`^[0-9]{4,6}$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidationError represents a validation error on one input field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a person's name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateRequired checks that a free-text field is present and not too long
func ValidateRequired(field, value string, maxLen int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if maxLen > 0 && len(value) > maxLen {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, maxLen)}
	}
	return nil
}

// ValidatePIN checks a child's numeric PIN
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ValidationError{Field: "pin", Message: "pin must be 4 to 6 digits"}
	}
	return nil
}

// ValidateColor checks a #RRGGBB avatar colour
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return ValidationError{Field: "avatar_color", Message: "color must look like #RRGGBB"}
	}
	return nil
}

// ValidateDateRange checks that start is not after end
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() {
		return ValidationError{Field: "start_date", Message: "start date is required"}
	}
	if end.IsZero() {
		return ValidationError{Field: "end_date", Message: "end date is required"}
	}
	if start.After(end) {
		return ValidationError{Field: "end_date", Message: "end date must not be before start date"}
	}
	return nil
}

// ValidateIntRange checks that value lies in [min, max]
func ValidateIntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be between %d and %d", field, min, max)}
	}
	return nil
}

// ValidatePositive checks that value is greater than zero
func ValidatePositive(field string, value float64) error {
	if value <= 0 {
		return ValidationError{Field: field, Message: field + " must be greater than zero"}
	}
	return nil
}
