package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxIDLength     = 128
	MaxAnswerLength = 1000
	MaxAnswers      = 200
)

var exerciseIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidateExerciseID checks a catalog id such as "go-basics-matching"
func ValidateExerciseID(id string) error {
	if id == "" {
		return invalid("exercise_id", "is required")
	}
	if len(id) > MaxIDLength {
		return invalid("exercise_id", fmt.Sprintf("must be at most %d characters", MaxIDLength))
	}
	if !exerciseIDPattern.MatchString(id) {
		return invalid("exercise_id", "may only contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

// ValidateUserID checks the caller id resolved from a token or header
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("user_id", "is required")
	}
	if len(id) > MaxIDLength {
		return invalid("user_id", fmt.Sprintf("must be at most %d characters", MaxIDLength))
	}
	if strings.ContainsFunc(id, unicode.IsControl) {
		return invalid("user_id", "contains control characters")
	}
	return nil
}

// ValidateCardID checks a selected card or blank id
func ValidateCardID(id string) error {
	if id == "" {
		return invalid("card_id", "is required")
	}
	if len(id) > MaxIDLength*2 {
		return invalid("card_id", "is too long")
	}
	return nil
}

// ValidateAnswers checks a submitted blanks or quiz answer map
func ValidateAnswers(answers map[string]string) error {
	if len(answers) > MaxAnswers {
		return invalid("answers", fmt.Sprintf("at most %d answers may be submitted", MaxAnswers))
	}
	for id, answer := range answers {
		if err := ValidateCardID(id); err != nil {
			return invalid("answers", fmt.Sprintf("invalid id %q", id))
		}
		if !utf8.ValidString(answer) {
			return invalid("answers", fmt.Sprintf("answer for %q is not valid UTF-8", id))
		}
		if len(answer) > MaxAnswerLength {
			return invalid("answers", fmt.Sprintf("answer for %q is too long", id))
		}
	}
	return nil
}
