package validation

import (
	"errors"
	"strings"
	"unicode"

	"github.com/sanchar-ai/hangout-planner/internal/models"
)

// ErrLocationEmpty is returned when a required location is empty or whitespace-only after trim.
var ErrLocationEmpty = errors.New("location is required")

// ErrLocationTooLong is returned when a location exceeds the maximum length.
var ErrLocationTooLong = errors.New("location too long")

// ErrLocationInvalidChars is returned when a location contains disallowed characters.
var ErrLocationInvalidChars = errors.New("location contains invalid characters")

// ErrInvalidMood is returned when the mood is not one of the accepted values.
var ErrInvalidMood = errors.New("invalid mood")

// ErrBudgetEmpty is returned when the budget field is empty.
var ErrBudgetEmpty = errors.New("budget is required")

// ErrTimeEmpty is returned when the time-available field is empty.
var ErrTimeEmpty = errors.New("time available is required")

const maxLocationLen = 100

// ValidatePreferences checks the wizard inputs before any external call is
// made. Returns the preferences with locations trimmed, or the first error
// found. Validation failures must never reach a collaborator.
func ValidatePreferences(p models.Preferences) (models.Preferences, error) {
	start, err := validateLocation(p.StartLocation, true)
	if err != nil {
		return models.Preferences{}, err
	}
	p.StartLocation = start

	preferred, err := validateLocation(p.PreferredLocation, false)
	if err != nil {
		return models.Preferences{}, err
	}
	p.PreferredLocation = preferred

	if !validMood(p.Mood) {
		return models.Preferences{}, ErrInvalidMood
	}
	if strings.TrimSpace(p.Budget) == "" {
		return models.Preferences{}, ErrBudgetEmpty
	}
	if strings.TrimSpace(p.TimeAvailable) == "" {
		return models.Preferences{}, ErrTimeEmpty
	}
	return p, nil
}

// validateLocation trims the input and restricts it to letters (Unicode),
// digits, space, comma, hyphen, apostrophe. Optional locations may be empty.
func validateLocation(input string, required bool) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		if required {
			return "", ErrLocationEmpty
		}
		return "", nil
	}
	if len(r) > maxLocationLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

func validMood(m models.Mood) bool {
	for _, v := range models.Moods() {
		if m == v {
			return true
		}
	}
	return false
}

func isAllowedLocationRune(r rune) bool {
	// Marks are required for Indic scripts: Kannada vowel signs and the
	// anusvara are Mn/Mc, not letters.
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'':
		return true
	}
	return false
}
