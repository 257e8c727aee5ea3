package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"codearena/internal/content"
	"codearena/internal/game"
	"codearena/internal/models"
	"codearena/internal/reward"
	"codearena/internal/security"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("session belongs to another user")
	ErrNotPlayable     = game.ErrNotPlayable
)

// AttemptStore records finished attempts
type AttemptStore interface {
	Record(ctx context.Context, a *models.ExerciseAttempt) error
	UpdateRewardStatus(ctx context.Context, id int64, status models.RewardStatus) error
}

// SessionOptions tune the live session behavior
type SessionOptions struct {
	Rules         game.Rules
	MismatchDelay time.Duration
	HintReveal    time.Duration
}

// session is one user's live attempt at an exercise
type session struct {
	mu sync.Mutex

	id       string
	userID   string
	def      *models.ExerciseDefinition
	machine  *game.Machine
	state    game.State
	view     content.View
	events   []game.Event
	lastTick time.Time
	settleAt time.Time
	hintEnds time.Time

	lastActive time.Time

	recorded  bool
	attemptID int64
	reward    models.RewardStatus
	receipt   *reward.Receipt
}

// RewardView is the reward outcome shown with a finished session
type RewardView struct {
	Status     models.RewardStatus `json:"status"`
	Diamonds   int                 `json:"diamonds,omitempty"`
	Experience int                 `json:"experience,omitempty"`
}

// SessionView is the client-facing snapshot of a session
type SessionView struct {
	ID               string        `json:"id"`
	ExerciseID       string        `json:"exerciseId"`
	ContentVersion   int           `json:"contentVersion"`
	Status           game.Status   `json:"status"`
	Order            []string      `json:"order,omitempty"`
	PendingPrompt    string        `json:"pendingPrompt,omitempty"`
	PendingResponse  string        `json:"pendingResponse,omitempty"`
	Resolved         []string      `json:"resolved"`
	Hinted           []string      `json:"hinted,omitempty"`
	Mismatched       []string      `json:"mismatched,omitempty"`
	Processing       bool          `json:"processing"`
	Mistakes         int           `json:"mistakes"`
	Hints            int           `json:"hints"`
	HintsRemaining   int           `json:"hintsRemaining"`
	ElapsedSeconds   int           `json:"elapsedSeconds"`
	RemainingSeconds int           `json:"remainingSeconds"`
	TimeLimitSeconds int           `json:"timeLimitSeconds"`
	Correct          int           `json:"correct"`
	Total            int           `json:"total"`
	Score            int           `json:"score"`
	Events           []game.Event  `json:"events,omitempty"`
	Reward           *RewardView   `json:"reward,omitempty"`
	Exercise         *content.View `json:"exercise,omitempty"`
}

// ExerciseService owns live sessions. Every intent first advances the session
// clock, so timers and mismatch delays follow wall time, not client ticks.
type ExerciseService struct {
	content     *ContentService
	completions *CompletionService
	attempts    AttemptStore
	opts        SessionOptions
	now         func() time.Time
	machineOpts []game.Option

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewExerciseService creates a new exercise session service
func NewExerciseService(contentService *ContentService, completions *CompletionService, attempts AttemptStore, opts SessionOptions) *ExerciseService {
	return &ExerciseService{
		content:     contentService,
		completions: completions,
		attempts:    attempts,
		opts:        opts,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
}

// CreateSession starts a new attempt at an exercise for a user
func (s *ExerciseService) CreateSession(ctx context.Context, userID, exerciseID string) (*SessionView, error) {
	def, err := s.content.Get(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	machine, err := game.NewMachine(def, s.opts.Rules, s.machineOpts...)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &session{
		id:         security.GenerateSessionID(),
		userID:     userID,
		def:        def,
		machine:    machine,
		state:      machine.NewState(),
		view:       content.PublicView(def),
		lastTick:   now,
		lastActive: now,
	}
	if sess.state.Status == game.StatusNotStarted {
		sess.state, sess.events = machine.Start(sess.state)
	} else {
		log.Printf("Session for exercise %s has no content", exerciseID)
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	v := s.snapshot(sess, true)
	return &v, nil
}

// GetSession returns the current state of a session
func (s *ExerciseService) GetSession(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, nil)
}

// Select picks a matching card
func (s *ExerciseService) Select(ctx context.Context, userID, sessionID, cardID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(m *game.Machine, st game.State) (game.State, []game.Event) {
		return m.Select(st, cardID)
	})
}

// Settle releases the mismatch latch before the delay runs out
func (s *ExerciseService) Settle(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, (*game.Machine).Settle)
}

// UseHint reveals one unresolved unit
func (s *ExerciseService) UseHint(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, (*game.Machine).UseHint)
}

// Tick advances the session clock to now
func (s *ExerciseService) Tick(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, nil)
}

// Submit grades the answers of a blanks or quiz session
func (s *ExerciseService) Submit(ctx context.Context, userID, sessionID string, answers map[string]string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(m *game.Machine, st game.State) (game.State, []game.Event) {
		return m.Submit(st, answers)
	})
}

// Reset discards the attempt and starts a fresh one
func (s *ExerciseService) Reset(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(m *game.Machine, st game.State) (game.State, []game.Event) {
		next, events := m.Reset(st)
		if next.Status != game.StatusNotStarted {
			return next, events
		}
		started, startEvents := m.Start(next)
		return started, append(events, startEvents...)
	})
}

// Report retries a reward call that failed earlier. Any other session is returned unchanged.
func (s *ExerciseService) Report(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastActive = s.now()
	if sess.recorded && sess.reward == models.RewardPending {
		s.reportReward(ctx, sess)
		if sess.attemptID != 0 {
			if err := s.attempts.UpdateRewardStatus(ctx, sess.attemptID, sess.reward); err != nil {
				log.Printf("Error updating reward status of attempt %d: %v", sess.attemptID, err)
			}
		}
	}
	sess.events = nil
	v := s.snapshot(sess, false)
	return &v, nil
}

// CleanupIdleSessions drops sessions nobody touched for maxIdle and returns how many went
func (s *ExerciseService) CleanupIdleSessions(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.RLock()
	var idle []string
	for id, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()
	if len(idle) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range idle {
		if sess, ok := s.sessions[id]; ok && sess.idleSince(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// idleSince reports whether the session was last used before cutoff. A session
// in the middle of a transition or reward call is busy, not idle.
func (sess *session) idleSince(cutoff time.Time) bool {
	if !sess.mu.TryLock() {
		return false
	}
	defer sess.mu.Unlock()
	return sess.lastActive.Before(cutoff)
}

// ActiveSessions returns the number of live sessions
func (s *ExerciseService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

type transition func(*game.Machine, game.State) (game.State, []game.Event)

func (s *ExerciseService) apply(ctx context.Context, userID, sessionID string, fn transition) (*SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	now := s.now()
	sess.lastActive = now
	sess.events = s.advance(sess, now)

	if fn != nil {
		next, events := fn(sess.machine, sess.state)
		sess.state = next
		sess.events = append(sess.events, events...)
		s.trackDelays(sess, events, now)
	}

	s.finishIfTerminal(ctx, sess)
	v := s.snapshot(sess, false)
	return &v, nil
}

func (s *ExerciseService) lookup(userID, sessionID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.userID != userID {
		return nil, ErrForbidden
	}
	return sess, nil
}

// advance feeds elapsed wall time into the machine and settles an expired mismatch.
// Fractions of a second carry over to the next call.
func (s *ExerciseService) advance(sess *session, now time.Time) []game.Event {
	var events []game.Event

	if delta := int(now.Sub(sess.lastTick) / time.Second); delta > 0 {
		sess.lastTick = sess.lastTick.Add(time.Duration(delta) * time.Second)
		var ticked []game.Event
		sess.state, ticked = sess.machine.Tick(sess.state, delta)
		for _, ev := range ticked {
			if ev.Kind != game.EventTick {
				events = append(events, ev)
			}
		}
	}

	if sess.state.Processing && !sess.settleAt.IsZero() && !now.Before(sess.settleAt) {
		var settled []game.Event
		sess.state, settled = sess.machine.Settle(sess.state)
		events = append(events, settled...)
	}
	if !sess.state.Processing {
		sess.settleAt = time.Time{}
	}
	if !sess.hintEnds.IsZero() && !now.Before(sess.hintEnds) {
		sess.hintEnds = time.Time{}
	}
	return events
}

func (s *ExerciseService) trackDelays(sess *session, events []game.Event, now time.Time) {
	for _, ev := range events {
		switch ev.Kind {
		case game.EventMismatch:
			sess.settleAt = now.Add(s.opts.MismatchDelay)
		case game.EventSettled:
			sess.settleAt = time.Time{}
		case game.EventHint:
			sess.hintEnds = now.Add(s.opts.HintReveal)
		case game.EventReset:
			s.restart(sess, now)
		}
	}
}

// restart clears the bookkeeping of the previous attempt after a reset
func (s *ExerciseService) restart(sess *session, now time.Time) {
	sess.lastTick = now
	sess.settleAt = time.Time{}
	sess.hintEnds = time.Time{}
	sess.recorded = false
	sess.attemptID = 0
	sess.reward = ""
	sess.receipt = nil
}

// finishIfTerminal records a finished attempt once and reports it for rewards
func (s *ExerciseService) finishIfTerminal(ctx context.Context, sess *session) {
	st := sess.state
	if sess.recorded || (st.Status != game.StatusSucceeded && st.Status != game.StatusFailed) {
		return
	}
	sess.recorded = true

	sess.reward = models.RewardNone
	if st.Status == game.StatusSucceeded {
		s.reportReward(ctx, sess)
	}

	attempt := &models.ExerciseAttempt{
		SessionID:        sess.id,
		UserID:           sess.userID,
		ExerciseID:       sess.def.ID,
		ContentVersion:   sess.def.Version,
		Score:            st.Score,
		Success:          st.Status == game.StatusSucceeded,
		Practice:         sess.reward == models.RewardPractice,
		TimeSpentSeconds: st.ElapsedSeconds,
		Mistakes:         st.MistakeCount,
		Hints:            st.HintCount,
		RewardStatus:     sess.reward,
		CompletedAt:      s.now().UTC(),
	}
	if err := s.attempts.Record(ctx, attempt); err != nil {
		log.Printf("Error recording attempt for session %s: %v", sess.id, err)
		return
	}
	sess.attemptID = attempt.ID
}

func (s *ExerciseService) reportReward(ctx context.Context, sess *session) {
	result, err := s.completions.Report(ctx, Completion{
		UserID:           sess.userID,
		ExerciseID:       sess.def.ID,
		ContentVersion:   sess.def.Version,
		Score:            sess.state.Score,
		TimeSpentSeconds: sess.state.ElapsedSeconds,
		Success:          sess.state.Status == game.StatusSucceeded,
		DiamondReward:    sess.def.DiamondReward,
		ExperienceReward: sess.def.ExperienceReward,
	})
	if err != nil {
		log.Printf("Reward for session %s left pending: %v", sess.id, err)
	}
	sess.reward = result.Status
	sess.receipt = result.Receipt
}

func (s *ExerciseService) snapshot(sess *session, withExercise bool) SessionView {
	st := sess.state
	v := SessionView{
		ID:               sess.id,
		ExerciseID:       sess.def.ID,
		ContentVersion:   sess.def.Version,
		Status:           st.Status,
		Order:            append([]string(nil), st.Order...),
		PendingPrompt:    st.PendingPrompt,
		PendingResponse:  st.PendingResponse,
		Resolved:         make([]string, 0, len(st.Resolved)),
		Mismatched:       append([]string(nil), st.Mismatched...),
		Processing:       st.Processing,
		Mistakes:         st.MistakeCount,
		Hints:            st.HintCount,
		HintsRemaining:   max(0, s.opts.Rules.MaxHints-st.HintCount),
		ElapsedSeconds:   st.ElapsedSeconds,
		RemainingSeconds: st.RemainingSeconds,
		TimeLimitSeconds: st.TimeLimitSeconds,
		Correct:          st.Correct,
		Total:            st.Total,
		Score:            st.Score,
		Events:           sess.events,
	}
	for id := range st.Resolved {
		v.Resolved = append(v.Resolved, id)
	}
	sort.Strings(v.Resolved)

	// a hint stays visible only for its reveal window
	if !sess.hintEnds.IsZero() && len(st.Hinted) > 0 {
		v.Hinted = []string{st.Hinted[len(st.Hinted)-1]}
	}

	if sess.recorded && sess.reward != "" {
		v.Reward = &RewardView{Status: sess.reward}
		if sess.receipt != nil {
			v.Reward.Diamonds = sess.receipt.Diamonds
			v.Reward.Experience = sess.receipt.Experience
		}
	}
	if withExercise {
		view := sess.view
		v.Exercise = &view
	}
	return v
}
