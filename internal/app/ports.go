package app

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// AssignmentRepository resolves assignments. Join codes passed in are already normalized.
type AssignmentRepository interface {
	FindAssignmentByJoinCode(ctx context.Context, joinCode string) (domain.Assignment, error)
	GetAssignment(ctx context.Context, id string) (domain.Assignment, error)
}

// StudentRepository resolves students by class-scoped number or by id.
type StudentRepository interface {
	FindStudent(ctx context.Context, classID, studentNo string) (domain.Student, error)
	GetStudent(ctx context.Context, id string) (domain.Student, error)
}

// AttemptRepository owns the (assignment, student) uniqueness constraint.
// CreateAttempt must report a constraint hit as domain.AttemptAlreadyExists
// together with the existing row, never as an error.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, assignmentID, studentID string) (domain.AttemptCreation, error)
	GetAttempt(ctx context.Context, id string) (domain.Attempt, error)
}

// QuizRepository loads a quiz with its questions sorted by order ascending.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// LedgerRepository applies status/score updates with compare-and-set on the
// current status.
type LedgerRepository interface {
	GetAttempt(ctx context.Context, id string) (domain.Attempt, error)
	UpdateAttemptLedger(ctx context.Context, id string, expected, next domain.AttemptStatus, totalScore int) (domain.Attempt, error)
}

// Store is everything the services need from persistence.
type Store interface {
	AssignmentRepository
	StudentRepository
	AttemptRepository
	QuizRepository
	UpdateAttemptLedger(ctx context.Context, id string, expected, next domain.AttemptStatus, totalScore int) (domain.Attempt, error)
}

// EventPublisher fans attempt events out to feed subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AttemptEvent) error
}

// EventSubscriber streams events for one assignment. The caller must invoke
// the returned cancel function to release the subscription.
type EventSubscriber interface {
	Subscribe(ctx context.Context, assignmentID string) (<-chan domain.AttemptEvent, func(), error)
}
