package game

import "math"

// ScoreInput is the outcome of an attempt as seen by the scoring function
type ScoreInput struct {
	Matching         bool
	Completed        bool // every pair resolved
	Correct          int
	Total            int
	RemainingSeconds int
	TimeLimitSeconds int
	Mistakes         int
	Hints            int
}

// Score computes a 0-100 score.
//
// Answer exercises start from accuracy. Matching exercises start from 100 once
// every pair is resolved and are then scaled by the share of time left.
// Both are multiplied by the mistake and hint factors, each floored at zero.
func Score(in ScoreInput, r Rules) int {
	var base float64
	switch {
	case in.Matching && in.Completed:
		base = 100
	default:
		base = Accuracy(in.Correct, in.Total)
	}

	timeFactor := 1.0
	if in.Matching && in.TimeLimitSeconds > 0 {
		timeFactor = clamp(float64(in.RemainingSeconds)/float64(in.TimeLimitSeconds), 0, 1)
	}

	mistakeFactor := math.Max(0, 1-float64(in.Mistakes)*r.MistakePenalty)
	hintFactor := math.Max(0, 1-float64(in.Hints)*r.HintPenalty)

	score := math.Round(base * timeFactor * mistakeFactor * hintFactor)
	return int(clamp(score, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
