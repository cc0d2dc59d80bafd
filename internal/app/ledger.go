package app

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// Ledger is the write path for attempt status and total score. Answer
// submission is expected to go through here; no endpoint calls it yet.
type Ledger struct {
	repo LedgerRepository
}

func NewLedger(repo LedgerRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Advance moves an attempt forward in its lifecycle and records totalScore.
// The store applies the write only if the status is still the one read here,
// so two writers racing on the same transition cannot both succeed.
func (l *Ledger) Advance(ctx context.Context, attemptID string, next domain.AttemptStatus, totalScore int) (domain.Attempt, error) {
	current, err := l.repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !current.Status.CanAdvanceTo(next) {
		return domain.Attempt{}, domain.ErrInvalidTransition
	}
	return l.repo.UpdateAttemptLedger(ctx, attemptID, current.Status, next, totalScore)
}
