package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	DateLayout        = "2006-01-02"
)

var dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Error is a local validation failure, raised before any network call
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Required reports whether value has any non-space content.
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Email only checks for an "@"; the backend owns the real address check.
func Email(value string) error {
	if !strings.Contains(value, "@") {
		return &Error{Field: "email", Message: "invalid email"}
	}
	return nil
}

// Password enforces the minimum length, counted in runes.
func Password(value string) error {
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return &Error{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// Date accepts only YYYY-MM-DD strings that name a real calendar day.
func Date(value string) (time.Time, error) {
	if !dateShape.MatchString(value) {
		return time.Time{}, &Error{Field: "birthDate", Message: "date must be YYYY-MM-DD"}
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &Error{Field: "birthDate", Message: "not a real calendar date"}
	}
	return parsed, nil
}

// BirthDate is Date plus a check that the day is not after now.
func BirthDate(value string, now time.Time) error {
	parsed, err := Date(value)
	if err != nil {
		return err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.After(today) {
		return &Error{Field: "birthDate", Message: "birth date is in the future"}
	}
	return nil
}

// NonEmpty fails with a field error when value is blank.
func NonEmpty(field, value string) error {
	if !Required(value) {
		return &Error{Field: field, Message: field + " is required"}
	}
	return nil
}
