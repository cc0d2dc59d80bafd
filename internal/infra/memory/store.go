package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/seed"
	"github.com/google/uuid"
)

type classStudentKey struct {
	classID   string
	studentNo string
}

type assignmentStudentKey struct {
	assignmentID string
	studentID    string
}

// Store is an in-memory implementation of app.Store. It enforces the same
// uniqueness constraints as the relational schema.
type Store struct {
	newID func() string
	clock func() time.Time

	mu                sync.RWMutex
	classes           map[string]domain.Class
	students          map[string]domain.Student
	studentsByNo      map[classStudentKey]string
	quizzes           map[string]domain.Quiz
	assignments       map[string]domain.Assignment
	assignmentsByCode map[string]string
	attempts          map[string]domain.Attempt
	attemptsByPair    map[assignmentStudentKey]string
}

func NewStore() *Store {
	return &Store{
		newID:             uuid.NewString,
		clock:             time.Now,
		classes:           make(map[string]domain.Class),
		students:          make(map[string]domain.Student),
		studentsByNo:      make(map[classStudentKey]string),
		quizzes:           make(map[string]domain.Quiz),
		assignments:       make(map[string]domain.Assignment),
		assignmentsByCode: make(map[string]string),
		attempts:          make(map[string]domain.Attempt),
		attemptsByPair:    make(map[assignmentStudentKey]string),
	}
}

// Load provisions a dataset into the store.
func (s *Store) Load(ds seed.Dataset) error {
	if err := s.PutClass(ds.Class); err != nil {
		return err
	}
	for _, student := range ds.Students {
		if err := s.PutStudent(student); err != nil {
			return err
		}
	}
	if err := s.PutQuiz(ds.Quiz); err != nil {
		return err
	}
	return s.PutAssignment(ds.Assignment)
}

func (s *Store) PutClass(class domain.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.classes {
		if existing.TeacherID == class.TeacherID && existing.Name == class.Name && existing.ID != class.ID {
			return fmt.Errorf("class %q already exists for teacher %s", class.Name, class.TeacherID)
		}
	}
	s.classes[class.ID] = class
	return nil
}

func (s *Store) PutStudent(student domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[student.ClassID]; !ok {
		return fmt.Errorf("student %s: unknown class %s", student.ID, student.ClassID)
	}
	key := classStudentKey{classID: student.ClassID, studentNo: student.StudentNo}
	if id, ok := s.studentsByNo[key]; ok && id != student.ID {
		return fmt.Errorf("student number %q already used in class %s", student.StudentNo, student.ClassID)
	}
	s.students[student.ID] = student
	s.studentsByNo[key] = student.ID
	return nil
}

// PutQuiz stores the quiz with its questions in the given (insertion) order.
func (s *Store) PutQuiz(quiz domain.Quiz) error {
	seen := make(map[int]struct{}, len(quiz.Questions))
	for _, qq := range quiz.Questions {
		if _, dup := seen[qq.Order]; dup {
			return fmt.Errorf("quiz %s: duplicate order %d", quiz.ID, qq.Order)
		}
		seen[qq.Order] = struct{}{}
	}
	questions := make([]domain.QuizQuestion, len(quiz.Questions))
	copy(questions, quiz.Questions)
	quiz.Questions = questions

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) PutAssignment(assignment domain.Assignment) error {
	assignment.JoinCode = domain.NormalizeJoinCode(assignment.JoinCode)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[assignment.ClassID]; !ok {
		return fmt.Errorf("assignment %s: unknown class %s", assignment.ID, assignment.ClassID)
	}
	if _, ok := s.quizzes[assignment.QuizID]; !ok {
		return fmt.Errorf("assignment %s: unknown quiz %s", assignment.ID, assignment.QuizID)
	}
	if id, ok := s.assignmentsByCode[assignment.JoinCode]; ok && id != assignment.ID {
		return fmt.Errorf("join code %s already in use", assignment.JoinCode)
	}
	s.assignments[assignment.ID] = assignment
	s.assignmentsByCode[assignment.JoinCode] = assignment.ID
	return nil
}

func (s *Store) FindAssignmentByJoinCode(_ context.Context, joinCode string) (domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.assignmentsByCode[joinCode]
	if !ok {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return s.assignments[id], nil
}

func (s *Store) GetAssignment(_ context.Context, id string) (domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.assignments[id]
	if !ok {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *Store) FindStudent(_ context.Context, classID, studentNo string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.studentsByNo[classStudentKey{classID: classID, studentNo: studentNo}]
	if !ok {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	return s.students[id], nil
}

func (s *Store) GetStudent(_ context.Context, id string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[id]
	if !ok {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	return student, nil
}

// CreateAttempt inserts under the write lock, so the pair check and insert are atomic.
func (s *Store) CreateAttempt(_ context.Context, assignmentID, studentID string) (domain.AttemptCreation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assignments[assignmentID]; !ok {
		return domain.AttemptCreation{}, domain.ErrAssignmentNotFound
	}
	if _, ok := s.students[studentID]; !ok {
		return domain.AttemptCreation{}, domain.ErrStudentNotFound
	}

	key := assignmentStudentKey{assignmentID: assignmentID, studentID: studentID}
	if id, ok := s.attemptsByPair[key]; ok {
		return domain.AttemptCreation{Outcome: domain.AttemptAlreadyExists, Attempt: s.attempts[id]}, nil
	}

	attempt := domain.NewAttempt(s.newID(), assignmentID, studentID, s.clock().UTC())
	s.attempts[attempt.ID] = attempt
	s.attemptsByPair[key] = attempt.ID
	return domain.AttemptCreation{Outcome: domain.AttemptCreatedNew, Attempt: attempt}, nil
}

func (s *Store) GetAttempt(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *Store) UpdateAttemptLedger(_ context.Context, id string, expected, next domain.AttemptStatus, totalScore int) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if attempt.Status != expected {
		return domain.Attempt{}, domain.ErrStaleLedger
	}
	attempt.Status = next
	attempt.TotalScore = totalScore
	s.attempts[id] = attempt
	return attempt, nil
}

// GetQuiz returns a copy of the quiz with questions sorted by order.
func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	quiz, ok := s.quizzes[quizID]
	s.mu.RUnlock()
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	questions := make([]domain.QuizQuestion, len(quiz.Questions))
	copy(questions, quiz.Questions)
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
	quiz.Questions = questions
	return quiz, nil
}
