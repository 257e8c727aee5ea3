package game

import (
	"strings"

	"codearena/internal/models"
)

// normalizeAnswer trims surrounding whitespace and folds case
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AnswerMatches reports whether submitted text equals the canonical answer or any
// alternative, ignoring case and surrounding whitespace
func AnswerMatches(submitted string, a models.Answerable) bool {
	got := normalizeAnswer(submitted)
	if got == "" {
		return false
	}
	if got == normalizeAnswer(a.Answer) {
		return true
	}
	for _, alt := range a.Alternatives {
		if got == normalizeAnswer(alt) {
			return true
		}
	}
	return false
}

// Accuracy returns correct/total as a percentage
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) * 100 / float64(total)
}
