package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateExerciseID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "valid slug",
			id:      "go-basics-matching",
			wantErr: false,
		},
		{
			name:    "dots and underscores",
			id:      "ch1.loops_quiz",
			wantErr: false,
		},
		{
			name:    "empty",
			id:      "",
			wantErr: true,
		},
		{
			name:    "leading dash",
			id:      "-quiz",
			wantErr: true,
		},
		{
			name:    "path traversal",
			id:      "../secret",
			wantErr: true,
		},
		{
			name:    "spaces",
			id:      "go basics",
			wantErr: true,
		},
		{
			name:    "too long",
			id:      strings.Repeat("a", MaxIDLength+1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExerciseID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExerciseID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "5b1f0d3e-9c1a-4c53-a7f4-5f0f3c0c2a11", false},
		{"email-like subject", "student@example.com", false},
		{"blank", "   ", true},
		{"control characters", "user\x00id", true},
		{"too long", strings.Repeat("u", MaxIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUserID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
		wantErr bool
	}{
		{"empty map", map[string]string{}, false},
		{"normal answers", map[string]string{"t1.b0": "fmt", "q1": "b"}, false},
		{"empty id", map[string]string{"": "x"}, true},
		{"answer too long", map[string]string{"q1": strings.Repeat("x", MaxAnswerLength+1)}, true},
		{"invalid utf8", map[string]string{"q1": "\xff"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswers(tt.answers)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAnswers() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorField(t *testing.T) {
	err := ValidateCardID("")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "card_id" {
		t.Errorf("Field = %q, want card_id", verr.Field)
	}
	if err.Error() != "card_id: is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
