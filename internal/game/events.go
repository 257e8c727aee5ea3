package game

// EventKind names something the presentation layer may animate
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventSelected    EventKind = "selected"
	EventMatched     EventKind = "matched"
	EventMismatch    EventKind = "mismatch"
	EventSettled     EventKind = "settled"
	EventHint        EventKind = "hint"
	EventTick        EventKind = "tick"
	EventTimeExpired EventKind = "time_expired"
	EventSubmitted   EventKind = "submitted"
	EventSucceeded   EventKind = "succeeded"
	EventFailed      EventKind = "failed"
	EventReset       EventKind = "reset"
)

// Event is emitted by a transition. For ticks Seconds is the elapsed delta and
// Remaining the time left on a timed attempt.
type Event struct {
	Kind      EventKind `json:"kind"`
	Units     []string  `json:"units,omitempty"`
	Reveal    string    `json:"reveal,omitempty"`
	Seconds   int       `json:"seconds,omitempty"`
	Remaining int       `json:"remaining,omitempty"`
}
