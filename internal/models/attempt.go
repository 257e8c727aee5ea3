package models

import "time"

// RewardStatus describes what happened to the reward of a finished attempt
type RewardStatus string

const (
	RewardNone     RewardStatus = "none"     // failed attempt, nothing to grant
	RewardGranted  RewardStatus = "granted"  // reward service confirmed the grant
	RewardPractice RewardStatus = "practice" // already rewarded earlier, score only
	RewardPending  RewardStatus = "pending"  // reward call failed, retry allowed
)

// ExerciseAttempt is a finished attempt at an exercise
type ExerciseAttempt struct {
	ID               int64
	SessionID        string
	UserID           string
	ExerciseID       string
	ContentVersion   int
	Score            int
	Success          bool
	Practice         bool
	TimeSpentSeconds int
	Mistakes         int
	Hints            int
	RewardStatus     RewardStatus
	CompletedAt      time.Time
}

// RewardMarker records that a user was rewarded for an exercise version
type RewardMarker struct {
	UserID         string
	ExerciseID     string
	ContentVersion int
	GrantedAt      time.Time
}

// UserProgress summarizes a user's attempts across the catalog
type UserProgress struct {
	UserID         string
	Attempts       int
	Solved         int
	BestScoreTotal int
}
