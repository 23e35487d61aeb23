// Package validation holds the shared validator instance and the custom
// rules used by chat input, the admin API and configuration.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("day", validateDay); err != nil {
		panic(fmt.Sprintf("failed to register day validator: %v", err))
	}
	if err := Validate.RegisterValidation("clock", validateClock); err != nil {
		panic(fmt.Sprintf("failed to register clock validator: %v", err))
	}
	if err := Validate.RegisterValidation("job_type", validateJobType); err != nil {
		panic(fmt.Sprintf("failed to register job_type validator: %v", err))
	}
}

// validateDay accepts YYYY-MM-DD calendar days
func validateDay(fl validator.FieldLevel) bool {
	_, err := models.ParseDay(fl.Field().String())
	return err == nil
}

// validateClock accepts HH:MM wall clock times
func validateClock(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func validateJobType(fl validator.FieldLevel) bool {
	_, err := queue.ParseJobType(fl.Field().String())
	return err == nil
}

// SanitizeText trims whitespace and removes control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateDay parses a YYYY-MM-DD value with a friendly error
func ValidateDay(value string) (models.Day, error) {
	day, err := models.ParseDay(value)
	if err != nil {
		return "", fmt.Errorf("invalid day: %s (must be YYYY-MM-DD)", value)
	}
	return day, nil
}
