package entities

import "time"

const (
	// BaseScore is where every worker starts.
	BaseScore = 3.0
	// CompletionBonus is earned per completed unit, up to MaxBonus.
	CompletionBonus = 0.1
	MaxBonus        = 2.0

	TierThresholdSenior  = 4.2
	TierThresholdTrusted = 3.5
)

// WorkerReputation is the scored view of a worker profile.
type WorkerReputation struct {
	UserID          string
	CompletedTasks  int
	ReputationScore float64
	Tier            int
	UpdatedAt       time.Time
}

// ScoreForCompleted derives the reputation score from the completed-task
// count. The bonus curve is bounded, so the score lives in [3.0, 5.0].
func ScoreForCompleted(completed int) float64 {
	if completed < 0 {
		completed = 0
	}
	bonus := CompletionBonus * float64(completed)
	if bonus > MaxBonus {
		bonus = MaxBonus
	}
	return BaseScore + bonus
}

// TierForScore maps a score onto the three worker tiers.
func TierForScore(score float64) int {
	switch {
	case score >= TierThresholdSenior:
		return 3
	case score >= TierThresholdTrusted:
		return 2
	default:
		return 1
	}
}
