package game

// Rules are the tunable constants of scoring and hinting
type Rules struct {
	MaxHints       int
	HintSeconds    int     // how long a hint stays revealed
	MistakePenalty float64 // score factor lost per mismatch
	HintPenalty    float64 // score factor lost per hint
	PassThreshold  float64 // minimum accuracy percentage for answer exercises
}

// DefaultRules returns the rules used by the learning widgets
func DefaultRules() Rules {
	return Rules{
		MaxHints:       3,
		HintSeconds:    3,
		MistakePenalty: 0.1,
		HintPenalty:    0.05,
		PassThreshold:  70,
	}
}
