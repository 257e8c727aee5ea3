package game

import (
	"errors"
	"math/rand"

	"codearena/internal/models"
)

var (
	ErrNoDefinition = errors.New("exercise definition is required")
	ErrNotPlayable  = errors.New("exercise kind cannot be played as a session")
)

type card struct {
	pairID string
	side   Side
}

// Machine applies user intents to a State for one exercise definition.
// It holds no per-attempt data, so one Machine can serve any number of attempts.
type Machine struct {
	def     *models.ExerciseDefinition
	rules   Rules
	units   []string
	cards   map[string]card
	answers map[string]models.Answerable
	shuffle func(n int, swap func(i, j int))
}

// Option configures a Machine
type Option func(*Machine)

// WithShuffle replaces the random permutation used when a definition asks for shuffling
func WithShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(m *Machine) {
		m.shuffle = fn
	}
}

// NewMachine builds a state machine for a definition
func NewMachine(def *models.ExerciseDefinition, rules Rules, opts ...Option) (*Machine, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	if def.Kind == models.KindWalkthrough {
		return nil, ErrNotPlayable
	}

	m := &Machine{
		def:     def,
		rules:   rules,
		cards:   make(map[string]card),
		answers: make(map[string]models.Answerable),
		shuffle: rand.Shuffle,
	}
	for _, opt := range opts {
		opt(m)
	}

	switch def.Kind {
	case models.KindMatching:
		for _, p := range def.Pairs {
			pc, rc := PromptCard(p.ID), ResponseCard(p.ID)
			if _, dup := m.cards[pc]; dup {
				continue
			}
			m.cards[pc] = card{pairID: p.ID, side: SidePrompt}
			m.cards[rc] = card{pairID: p.ID, side: SideResponse}
			m.units = append(m.units, pc, rc)
		}
	default:
		for _, a := range def.Answerables() {
			if _, dup := m.answers[a.ID]; dup {
				continue
			}
			m.answers[a.ID] = a
			m.units = append(m.units, a.ID)
		}
	}

	return m, nil
}

// Definition returns the definition the machine plays
func (m *Machine) Definition() *models.ExerciseDefinition {
	return m.def
}

// Rules returns the machine's scoring rules
func (m *Machine) Rules() Rules {
	return m.rules
}

// total counts playable units: pairs for matching, answerables otherwise
func (m *Machine) total() int {
	if m.def.Kind == models.KindMatching {
		return len(m.cards) / 2
	}
	return len(m.units)
}

// NewState returns a fresh attempt, or a NoContent state when there is nothing to play
func (m *Machine) NewState() State {
	s := State{
		ExerciseID:       m.def.ID,
		Status:           StatusNotStarted,
		Resolved:         map[string]bool{},
		TimeLimitSeconds: m.def.TimeLimitSeconds,
		RemainingSeconds: m.def.TimeLimitSeconds,
		Total:            m.total(),
	}
	if len(m.units) == 0 {
		s.Status = StatusNoContent
	}
	return s
}

// Start begins an attempt. Only valid from NotStarted.
func (m *Machine) Start(s State) (State, []Event) {
	if s.Status != StatusNotStarted {
		return s, nil
	}

	next := m.NewState()
	next.Status = StatusInProgress
	next.Order = append([]string(nil), m.units...)
	if m.def.Shuffle {
		m.shuffle(len(next.Order), func(i, j int) {
			next.Order[i], next.Order[j] = next.Order[j], next.Order[i]
		})
	}

	return next, []Event{{Kind: EventStarted, Units: next.Order}}
}

// Select picks a matching card. Picking a second card of the same side replaces
// the pending one; filling both sides resolves the comparison.
func (m *Machine) Select(s State, cardID string) (State, []Event) {
	if m.def.Kind != models.KindMatching || s.Status != StatusInProgress || s.Processing {
		return s, nil
	}
	c, ok := m.cards[cardID]
	if !ok || s.Resolved[cardID] {
		return s, nil
	}
	if cardID == s.PendingPrompt || cardID == s.PendingResponse {
		return s, nil
	}

	next := s.clone()
	if c.side == SidePrompt {
		next.PendingPrompt = cardID
	} else {
		next.PendingResponse = cardID
	}
	events := []Event{{Kind: EventSelected, Units: []string{cardID}}}

	if next.PendingPrompt == "" || next.PendingResponse == "" {
		return next, events
	}

	next, resolved := m.resolve(next)
	return next, append(events, resolved...)
}

// resolve compares the two pending cards. Caller guarantees both are set.
func (m *Machine) resolve(s State) (State, []Event) {
	prompt, response := s.PendingPrompt, s.PendingResponse
	s.PendingPrompt, s.PendingResponse = "", ""
	pair := []string{prompt, response}

	if m.cards[prompt].pairID != m.cards[response].pairID {
		s.MistakeCount++
		s.Mismatched = pair
		s.Processing = true
		return s, []Event{{Kind: EventMismatch, Units: pair}}
	}

	s.Resolved[prompt] = true
	s.Resolved[response] = true
	s.Correct = len(s.Resolved) / 2
	events := []Event{{Kind: EventMatched, Units: pair}}

	if len(s.Resolved) == len(m.cards) {
		var done Event
		s, done = m.finish(s, StatusSucceeded)
		events = append(events, done)
	}
	return s, events
}

// Settle releases the latch set by a mismatch
func (m *Machine) Settle(s State) (State, []Event) {
	if !s.Processing {
		return s, nil
	}
	next := s.clone()
	next.Processing = false
	next.Mismatched = nil
	return next, []Event{{Kind: EventSettled}}
}

// UseHint reveals one unresolved unit for a limited time. It never resolves anything.
func (m *Machine) UseHint(s State) (State, []Event) {
	if s.Status != StatusInProgress || s.HintCount >= m.rules.MaxHints {
		return s, nil
	}

	target := m.hintTarget(s)
	if target == "" {
		return s, nil
	}

	next := s.clone()
	next.HintCount++
	next.Hinted = append(next.Hinted, target)

	ev := Event{Kind: EventHint, Seconds: m.rules.HintSeconds}
	if m.def.Kind == models.KindMatching {
		ev.Units = []string{PromptCard(target), ResponseCard(target)}
	} else {
		ev.Units = []string{target}
		ev.Reveal = m.answers[target].Answer
	}
	return next, []Event{ev}
}

// hintTarget picks the first unresolved unit in presentation order, preferring
// ones not hinted yet. For matching exercises the target is a pair id.
func (m *Machine) hintTarget(s State) string {
	hinted := make(map[string]bool, len(s.Hinted))
	for _, id := range s.Hinted {
		hinted[id] = true
	}

	var fallback string
	for _, id := range s.Order {
		if s.Resolved[id] {
			continue
		}
		target := id
		if c, ok := m.cards[id]; ok {
			target = c.pairID
		}
		if !hinted[target] {
			return target
		}
		if fallback == "" {
			fallback = target
		}
	}
	return fallback
}

// Tick advances the clock. When a time limit runs out the attempt fails at
// once, discarding any pending comparison.
func (m *Machine) Tick(s State, deltaSeconds int) (State, []Event) {
	if s.Status != StatusInProgress || deltaSeconds <= 0 {
		return s, nil
	}

	next := s.clone()
	next.ElapsedSeconds += deltaSeconds
	if next.TimeLimitSeconds <= 0 {
		return next, []Event{{Kind: EventTick, Seconds: deltaSeconds}}
	}

	next.RemainingSeconds -= deltaSeconds
	if next.RemainingSeconds > 0 {
		return next, []Event{{Kind: EventTick, Seconds: deltaSeconds, Remaining: next.RemainingSeconds}}
	}

	next.RemainingSeconds = 0
	next.Processing = false
	next.Mismatched = nil
	next, done := m.finish(next, StatusFailed)
	return next, []Event{{Kind: EventTimeExpired}, done}
}

// Submit grades all answers of a blanks or quiz exercise in one step
func (m *Machine) Submit(s State, answers map[string]string) (State, []Event) {
	if m.def.Kind == models.KindMatching || s.Status != StatusInProgress {
		return s, nil
	}

	next := s.clone()
	var correct []string
	for _, id := range m.units {
		if AnswerMatches(answers[id], m.answers[id]) {
			next.Resolved[id] = true
			correct = append(correct, id)
		}
	}
	next.Correct = len(correct)
	next.Total = m.total()

	status := StatusFailed
	if Accuracy(next.Correct, next.Total) >= m.rules.PassThreshold {
		status = StatusSucceeded
	}
	next, done := m.finish(next, status)
	return next, []Event{{Kind: EventSubmitted, Units: correct}, done}
}

// Reset discards the attempt and returns to NotStarted
func (m *Machine) Reset(s State) (State, []Event) {
	if s.Status == StatusNoContent {
		return s, nil
	}
	return m.NewState(), []Event{{Kind: EventReset}}
}

func (m *Machine) finish(s State, status Status) (State, Event) {
	s.Status = status
	s.PendingPrompt, s.PendingResponse = "", ""
	s.Score = Score(m.scoreInput(s), m.rules)

	kind := EventFailed
	if status == StatusSucceeded {
		kind = EventSucceeded
	}
	return s, Event{Kind: kind, Seconds: s.ElapsedSeconds}
}

func (m *Machine) scoreInput(s State) ScoreInput {
	in := ScoreInput{
		Matching:         m.def.Kind == models.KindMatching,
		Correct:          s.Correct,
		Total:            s.Total,
		RemainingSeconds: s.RemainingSeconds,
		TimeLimitSeconds: s.TimeLimitSeconds,
		Mistakes:         s.MistakeCount,
		Hints:            s.HintCount,
	}
	if in.Matching {
		in.Completed = len(s.Resolved) == len(m.cards)
	}
	return in
}
