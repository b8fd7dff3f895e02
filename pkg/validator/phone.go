package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidLength indicates phone number is outside the accepted length range
	ErrInvalidLength = errors.New("phone number must be 9 to 15 digits")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits, optionally prefixed with +")
)

// digitsRegex matches digits only
var digitsRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a phone number in loose international format.
// Accepts 0771234567, +94 77 123 4567, 077-123-4567 and similar.
// Returns the sanitized number (digits, with a leading + preserved)
// and an error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	digits := sanitized
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}

	if !digitsRegex.MatchString(digits) {
		return "", ErrInvalidFormat
	}

	if len(digits) < 9 || len(digits) > 15 {
		return "", ErrInvalidLength
	}

	return sanitized, nil
}

// Sanitize removes spaces, hyphens, dots and parentheses from a phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// IsValid returns true if the phone number is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
