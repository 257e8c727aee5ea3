package game

// Status is the lifecycle position of an exercise attempt
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	// StatusNoContent marks a definition with nothing to play. Nothing leaves it.
	StatusNoContent Status = "no_content"
)

// Terminal reports whether only Reset can move the attempt on
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusNoContent
}

// Side of a matching card
type Side string

const (
	SidePrompt   Side = "prompt"
	SideResponse Side = "response"
)

// PromptCard returns the card id of a pair's prompt side
func PromptCard(pairID string) string { return pairID + ":p" }

// ResponseCard returns the card id of a pair's response side
func ResponseCard(pairID string) string { return pairID + ":r" }

// State is the runtime state of one attempt. Transitions never modify the
// State they are given; they return an updated copy.
type State struct {
	ExerciseID string
	Status     Status

	// Order is the presentation order of card ids (matching) or
	// blank/question ids (answer exercises).
	Order []string

	PendingPrompt   string
	PendingResponse string

	// Resolved holds matched card ids or correctly answered unit ids.
	Resolved map[string]bool
	Hinted   []string

	// Mismatched holds the two cards of the last failed comparison while
	// Processing is set. Select is blocked until Settle.
	Mismatched []string
	Processing bool

	MistakeCount int
	HintCount    int

	TimeLimitSeconds int
	ElapsedSeconds   int
	RemainingSeconds int

	Correct int
	Total   int
	Score   int
}

// ResolvedCount returns the number of resolved ids
func (s State) ResolvedCount() int {
	return len(s.Resolved)
}

// IsResolved reports whether a unit id has been matched or answered
func (s State) IsResolved(id string) bool {
	return s.Resolved[id]
}

func (s State) clone() State {
	out := s
	out.Order = append([]string(nil), s.Order...)
	out.Hinted = append([]string(nil), s.Hinted...)
	out.Mismatched = append([]string(nil), s.Mismatched...)
	out.Resolved = make(map[string]bool, len(s.Resolved))
	for id := range s.Resolved {
		out.Resolved[id] = true
	}
	return out
}
