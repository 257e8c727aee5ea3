package game

import "testing"

func TestScore(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name string
		in   ScoreInput
		want int
	}{
		{
			name: "perfect untimed matching",
			in:   ScoreInput{Matching: true, Completed: true, Correct: 3, Total: 3},
			want: 100,
		},
		{
			name: "matching with half the time left",
			in:   ScoreInput{Matching: true, Completed: true, RemainingSeconds: 30, TimeLimitSeconds: 60},
			want: 50,
		},
		{
			name: "matching with two mistakes and one hint",
			in:   ScoreInput{Matching: true, Completed: true, Mistakes: 2, Hints: 1},
			want: 76, // 100 * 0.8 * 0.95
		},
		{
			name: "matching with time, mistakes and hints",
			in: ScoreInput{
				Matching: true, Completed: true,
				RemainingSeconds: 45, TimeLimitSeconds: 60,
				Mistakes: 1, Hints: 2,
			},
			want: 61, // 100 * 0.75 * 0.9 * 0.9 = 60.75
		},
		{
			name: "mistakes drive penalty to zero",
			in:   ScoreInput{Matching: true, Completed: true, Mistakes: 10},
			want: 0,
		},
		{
			name: "mistakes far past zero never go negative",
			in:   ScoreInput{Matching: true, Completed: true, Mistakes: 1000, Hints: 1000},
			want: 0,
		},
		{
			name: "remaining above limit clamps to one",
			in:   ScoreInput{Matching: true, Completed: true, RemainingSeconds: 90, TimeLimitSeconds: 60},
			want: 100,
		},
		{
			name: "negative remaining clamps to zero",
			in:   ScoreInput{Matching: true, Completed: true, RemainingSeconds: -5, TimeLimitSeconds: 60},
			want: 0,
		},
		{
			name: "timed out matching scores resolved share",
			in:   ScoreInput{Matching: true, Correct: 1, Total: 4, RemainingSeconds: 60, TimeLimitSeconds: 60},
			want: 25,
		},
		{
			name: "answers ignore the clock",
			in:   ScoreInput{Correct: 3, Total: 4, RemainingSeconds: 0, TimeLimitSeconds: 60},
			want: 75,
		},
		{
			name: "answers with hint penalty",
			in:   ScoreInput{Correct: 2, Total: 3, Hints: 1},
			want: 63, // 66.67 * 0.95
		},
		{
			name: "no units",
			in:   ScoreInput{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.in, rules); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	rules := DefaultRules()
	for mistakes := 0; mistakes <= 15; mistakes++ {
		for hints := 0; hints <= 25; hints++ {
			for remaining := -10; remaining <= 70; remaining += 10 {
				for _, matching := range []bool{true, false} {
					in := ScoreInput{
						Matching: matching, Completed: matching,
						Correct: 5, Total: 5,
						RemainingSeconds: remaining, TimeLimitSeconds: 60,
						Mistakes: mistakes, Hints: hints,
					}
					got := Score(in, rules)
					if got < 0 || got > 100 {
						t.Fatalf("Score(%+v) = %d, out of range", in, got)
					}
				}
			}
		}
	}
}

func TestScoreUsesConfiguredPenalties(t *testing.T) {
	rules := DefaultRules()
	rules.MistakePenalty = 0.25

	in := ScoreInput{Matching: true, Completed: true, Mistakes: 2}
	if got := Score(in, rules); got != 50 {
		t.Errorf("Score() = %d, want 50", got)
	}
}
