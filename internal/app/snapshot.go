package app

import (
	"context"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// snapshotTimeout bounds a shared snapshot read once it no longer follows a
// caller's context.
const snapshotTimeout = 10 * time.Second

// SnapshotAssembler builds the redacted, ordered quiz view for an attempt.
// Concurrent requests for the same attempt share one store round-trip; nothing
// is kept once they return.
type SnapshotAssembler struct {
	attempts    AttemptRepository
	assignments AssignmentRepository
	quizzes     QuizRepository
	sf          singleflight.Group
}

func NewSnapshotAssembler(attempts AttemptRepository, assignments AssignmentRepository, quizzes QuizRepository) *SnapshotAssembler {
	return &SnapshotAssembler{attempts: attempts, assignments: assignments, quizzes: quizzes}
}

// Snapshot returns domain.ErrAttemptNotFound for an unknown attempt id.
// The shared read is detached from any one caller's context, so a caller that
// goes away does not fail the others waiting on it.
func (a *SnapshotAssembler) Snapshot(ctx context.Context, attemptID string) (domain.AttemptSnapshot, error) {
	ch := a.sf.DoChan(attemptID, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
		defer cancel()
		return a.assemble(readCtx, attemptID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.AttemptSnapshot{}, res.Err
		}
		return res.Val.(domain.AttemptSnapshot), nil
	case <-ctx.Done():
		return domain.AttemptSnapshot{}, ctx.Err()
	}
}

func (a *SnapshotAssembler) assemble(ctx context.Context, attemptID string) (domain.AttemptSnapshot, error) {
	attempt, err := a.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}

	assignment, err := a.assignments.GetAssignment(ctx, attempt.AssignmentID)
	if err != nil {
		return domain.AttemptSnapshot{}, fmt.Errorf("assignment of attempt %s: %w", attempt.ID, err)
	}

	quiz, err := a.quizzes.GetQuiz(ctx, assignment.QuizID)
	if err != nil {
		return domain.AttemptSnapshot{}, fmt.Errorf("quiz of assignment %s: %w", assignment.ID, err)
	}

	return domain.AttemptSnapshot{
		ID:         attempt.ID,
		Status:     attempt.Status,
		Assignment: domain.AssignmentView{Quiz: quiz.View()},
	}, nil
}
