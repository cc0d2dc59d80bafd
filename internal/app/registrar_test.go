package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"classroom-quiz-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

func TestStartThenResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	studentID := f.data.Students[0].ID

	first, err := f.registrar.Start(ctx, "namfzt", studentID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.Resumed || first.AttemptID == "" {
		t.Fatalf("expected a fresh attempt, got %+v", first)
	}

	second, err := f.registrar.Start(ctx, "NAMFZT", studentID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !second.Resumed || second.AttemptID != first.AttemptID {
		t.Fatalf("expected resume of %s, got %+v", first.AttemptID, second)
	}
	if second.Status != domain.AttemptCreated || second.TotalScore != 0 {
		t.Fatalf("expected initial ledger state on resume, got %+v", second)
	}
}

func TestStartResumeCarriesLedgerState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	studentID := f.data.Students[1].ID

	first, err := f.registrar.Start(ctx, "NAMFZT", studentID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.ledger.Advance(ctx, first.AttemptID, domain.AttemptCompleted, 2); err != nil {
		t.Fatalf("advance: %v", err)
	}

	resumed, err := f.registrar.Start(ctx, "NAMFZT", studentID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != domain.AttemptCompleted || resumed.TotalScore != 2 {
		t.Fatalf("expected completed/2, got %+v", resumed)
	}
}

func TestConcurrentStartsCreateOneAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	studentID := f.data.Students[0].ID

	const n = 32
	var (
		mu      sync.Mutex
		ids     = make(map[string]struct{})
		created int
	)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := f.registrar.Start(ctx, "NAMFZT", studentID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			ids[res.AttemptID] = struct{}{}
			if !res.Resumed {
				created++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent start: %v", err)
	}

	if len(ids) != 1 {
		t.Fatalf("expected one attempt id across %d starts, got %d", n, len(ids))
	}
	if created != 1 {
		t.Fatalf("expected exactly one fresh start, got %d", created)
	}
	again, err := f.store.CreateAttempt(ctx, f.data.Assignment.ID, studentID)
	if err != nil {
		t.Fatalf("create after race: %v", err)
	}
	if _, ok := ids[again.Attempt.ID]; again.Outcome != domain.AttemptAlreadyExists || !ok {
		t.Fatalf("expected the raced attempt to be the stored one, got %+v", again)
	}
}

func TestStartUnknownAssignment(t *testing.T) {
	f := newFixture(t)
	_, err := f.registrar.Start(context.Background(), "ZZZZZZ", f.data.Students[0].ID)
	if !errors.Is(err, domain.ErrAssignmentNotFound) {
		t.Fatalf("expected assignment not found, got %v", err)
	}
}

func TestStartRejectsStudentOutsideClass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.registrar.Start(ctx, "NAMFZT", "no-such-student"); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Fatalf("expected student not found, got %v", err)
	}

	other := domain.Class{ID: "class-b", TeacherID: f.data.Teacher.ID, Name: "6B"}
	if err := f.store.PutClass(other); err != nil {
		t.Fatalf("put class: %v", err)
	}
	if err := f.store.PutStudent(domain.Student{ID: "stu-b", ClassID: other.ID, StudentNo: "1"}); err != nil {
		t.Fatalf("put student: %v", err)
	}
	if _, err := f.registrar.Start(ctx, "NAMFZT", "stu-b"); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Fatalf("expected student not found for foreign class, got %v", err)
	}
}

func TestStartPublishesEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	studentID := f.data.Students[0].ID

	events, cancel, err := f.feed.Subscribe(ctx, f.data.Assignment.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	first, err := f.registrar.Start(ctx, "NAMFZT", studentID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.registrar.Start(ctx, "NAMFZT", studentID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	started, resumed := <-events, <-events
	if started.Type != domain.EventAttemptStarted || started.AttemptID != first.AttemptID || started.StudentID != studentID {
		t.Fatalf("unexpected start event %+v", started)
	}
	if resumed.Type != domain.EventAttemptResumed || resumed.AttemptID != first.AttemptID {
		t.Fatalf("unexpected resume event %+v", resumed)
	}
}
