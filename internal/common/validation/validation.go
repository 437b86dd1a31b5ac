package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxNameLength  = 100
	MaxEmailLength = 100
	MaxNotesLength = 1000

	MinPasswordLength = 6
)

// Indonesian mobile numbers in international or local form.
var phoneRegex = regexp.MustCompile(`^(\+?62|0)8[0-9]{7,12}$`)

// ValidatePhoneNumber checks a phone number string.
func ValidatePhoneNumber(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("invalid phone number format")
	}

	return nil
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

// ValidateAmount checks that a monetary amount is positive.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// ValidateNotes bounds free-text notes.
func ValidateNotes(notes string) error {
	if len(notes) > MaxNotesLength {
		return fmt.Errorf("notes must be at most %d characters long", MaxNotesLength)
	}
	return nil
}
