package app

import (
	"context"
	"log"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
)

// StartResult describes the attempt handed back to a student. Status and
// TotalScore are only meaningful when Resumed is set.
type StartResult struct {
	AttemptID  string
	Resumed    bool
	Status     domain.AttemptStatus
	TotalScore int
}

// AttemptRegistrar creates the single attempt a student gets per assignment,
// or hands back the existing one.
type AttemptRegistrar struct {
	assignments AssignmentRepository
	students    StudentRepository
	attempts    AttemptRepository
	events      EventPublisher
	now         func() time.Time
}

// NewAttemptRegistrar wires the registrar. events may be nil.
func NewAttemptRegistrar(assignments AssignmentRepository, students StudentRepository, attempts AttemptRepository, events EventPublisher) *AttemptRegistrar {
	return &AttemptRegistrar{
		assignments: assignments,
		students:    students,
		attempts:    attempts,
		events:      events,
		now:         time.Now,
	}
}

// Start registers an attempt for studentID on the assignment behind joinCode.
// A repeated or concurrent start for the same pair resumes the stored attempt
// instead of failing.
func (r *AttemptRegistrar) Start(ctx context.Context, joinCode, studentID string) (StartResult, error) {
	assignment, err := r.assignments.FindAssignmentByJoinCode(ctx, domain.NormalizeJoinCode(joinCode))
	if err != nil {
		return StartResult{}, err
	}

	student, err := r.students.GetStudent(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return StartResult{}, err
	}
	if student.ClassID != assignment.ClassID {
		return StartResult{}, domain.ErrStudentNotFound
	}

	created, err := r.attempts.CreateAttempt(ctx, assignment.ID, student.ID)
	if err != nil {
		return StartResult{}, err
	}

	var result StartResult
	eventType := domain.EventAttemptStarted
	if created.Outcome == domain.AttemptAlreadyExists {
		result = StartResult{
			AttemptID:  created.Attempt.ID,
			Resumed:    true,
			Status:     created.Attempt.Status,
			TotalScore: created.Attempt.TotalScore,
		}
		eventType = domain.EventAttemptResumed
	} else {
		result = StartResult{AttemptID: created.Attempt.ID}
	}

	r.publish(ctx, domain.AttemptEvent{
		Type:         eventType,
		AssignmentID: assignment.ID,
		AttemptID:    created.Attempt.ID,
		StudentID:    student.ID,
		At:           r.now().UTC(),
	})
	return result, nil
}

func (r *AttemptRegistrar) publish(ctx context.Context, event domain.AttemptEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s for attempt %s: %v", event.Type, event.AttemptID, err)
	}
}
