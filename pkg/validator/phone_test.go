package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneValidator(t *testing.T) {
	validator := NewPhoneValidator()
	assert.NotNil(t, validator)
}

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Standard format"},
		{"077 123 4567", "0771234567", "With spaces"},
		{"077-123-4567", "0771234567", "With dashes"},
		{"077.123.4567", "0771234567", "With dots"},
		{"(077) 123 4567", "0771234567", "With parentheses"},
		{"+94771234567", "+94771234567", "With country code and plus"},
		{"94771234567", "94771234567", "With country code"},
		{"+977 98 1234 5678", "+9779812345678", "Nepal mobile with plus"},
		{"123456789", "123456789", "Minimum length"},
		{"123456789012345", "123456789012345", "Maximum length"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"123", ErrInvalidLength, "Too short"},
		{"12345678", ErrInvalidLength, "One digit short"},
		{"1234567890123456", ErrInvalidLength, "One digit long"},
		{"077123456a", ErrInvalidFormat, "Contains letters"},
		{"077-123-456a", ErrInvalidFormat, "Contains letters with dashes"},
		{"077 123 456!", ErrInvalidFormat, "Contains special characters"},
		{"07+71234567", ErrInvalidFormat, "Plus in the middle"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.Error(t, err)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestSanitize(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Already clean"},
		{"077 123 4567", "0771234567", "With spaces"},
		{"077-123-4567", "0771234567", "With dashes"},
		{"077.123.4567", "0771234567", "With dots"},
		{"(077) 123 4567", "0771234567", "With parentheses"},
		{"+94771234567", "+94771234567", "Plus preserved"},
		{"077-123-4567  ", "0771234567", "With trailing spaces"},
		{"  077-123-4567", "0771234567", "With leading spaces"},
		{"077 - 123 - 4567", "0771234567", "Multiple separators"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.Sanitize(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestIsValid(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []string{
		"0771234567",
		"077 123 4567",
		"077-123-4567",
		"+94771234567",
		"94771234567",
	}

	for _, phone := range validNumbers {
		t.Run(phone, func(t *testing.T) {
			assert.True(t, validator.IsValid(phone))
		})
	}

	invalidNumbers := []string{
		"",
		"invalid",
		"123",
		"077123456a",
	}

	for _, phone := range invalidNumbers {
		t.Run(phone, func(t *testing.T) {
			assert.False(t, validator.IsValid(phone))
		})
	}
}

func TestEdgeCases(t *testing.T) {
	validator := NewPhoneValidator()

	t.Run("Phone with only spaces", func(t *testing.T) {
		_, err := validator.Validate("     ")
		assert.Error(t, err)
	})

	t.Run("Phone with mixed separators", func(t *testing.T) {
		sanitized, err := validator.Validate("077-123 4567")
		require.NoError(t, err)
		assert.Equal(t, "0771234567", sanitized)
	})

	t.Run("Phone with unicode digits", func(t *testing.T) {
		_, err := validator.Validate("077резреирей4567")
		assert.Error(t, err)
	})

	t.Run("Very long input", func(t *testing.T) {
		_, err := validator.Validate("077123456789012345678901234567890")
		assert.Error(t, err)
		assert.Equal(t, ErrInvalidLength, err)
	})
}

func TestConcurrentValidation(t *testing.T) {
	validator := NewPhoneValidator()

	done := make(chan bool)
	errors := make(chan error, 100)

	phones := []string{
		"0771234567",
		"+94771234567",
		"077 123 4567",
		"94771234567",
	}

	for i := 0; i < 100; i++ {
		go func(phone string) {
			_, err := validator.Validate(phone)
			if err != nil {
				errors <- err
			}
			done <- true
		}(phones[i%len(phones)])
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	close(errors)
	assert.Empty(t, errors)
}

func BenchmarkValidate(b *testing.B) {
	validator := NewPhoneValidator()
	phone := "077-123-4567"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validator.Validate(phone)
	}
}
