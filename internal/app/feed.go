package app

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// FeedService lets holders of a join code follow attempt activity on its assignment.
type FeedService struct {
	assignments AssignmentRepository
	subscriber  EventSubscriber
}

func NewFeedService(assignments AssignmentRepository, subscriber EventSubscriber) *FeedService {
	return &FeedService{assignments: assignments, subscriber: subscriber}
}

// Resolve looks up the assignment a feed would be opened for.
func (s *FeedService) Resolve(ctx context.Context, joinCode string) (domain.Assignment, error) {
	return s.assignments.FindAssignmentByJoinCode(ctx, domain.NormalizeJoinCode(joinCode))
}

// Subscribe opens an event stream for the assignment. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *FeedService) Subscribe(ctx context.Context, assignmentID string) (<-chan domain.AttemptEvent, func(), error) {
	return s.subscriber.Subscribe(ctx, assignmentID)
}
