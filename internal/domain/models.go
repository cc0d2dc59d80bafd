package domain

import "time"

// Teacher owns classes.
type Teacher struct {
	ID    string
	Email string
}

// Class groups students; (TeacherID, Name) is unique.
type Class struct {
	ID        string
	TeacherID string
	Name      string
}

// Student belongs to exactly one class. StudentNo is only unique within the class.
type Student struct {
	ID        string
	ClassID   string
	StudentNo string
	FirstName string
	LastName  string
}

// StudentIdentity is the minimal projection handed to clients after lookup.
type StudentIdentity struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Identity returns the public identity fields of the student.
func (s Student) Identity() StudentIdentity {
	return StudentIdentity{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName}
}

// Choice names one of the four answer slots of a question.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// Question is a four-choice question. Correct never leaves the server.
type Question struct {
	ID           string
	Text         string
	ImageURL     *string
	A, B, C, D   string
	Correct      Choice
	TimeLimitSec int
}

// QuizQuestion places a question in a quiz at a 1-based position.
type QuizQuestion struct {
	Order    int
	Question Question
}

// Quiz is an ordered collection of questions. Questions are kept sorted by Order.
type Quiz struct {
	ID        string
	Title     string
	Questions []QuizQuestion
}

// Assignment binds a quiz to a class behind a join code.
type Assignment struct {
	ID        string
	QuizID    string
	ClassID   string
	JoinCode  string
	CreatedAt time.Time
}

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	AttemptCreated    AttemptStatus = "created"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

func (s AttemptStatus) rank() int {
	switch s {
	case AttemptCreated:
		return 1
	case AttemptInProgress:
		return 2
	case AttemptCompleted:
		return 3
	}
	return 0
}

// Valid reports whether s is a known status.
func (s AttemptStatus) Valid() bool {
	return s.rank() > 0
}

// CanAdvanceTo reports whether the lifecycle allows moving from s to next.
// Transitions only move forward; completed is terminal.
func (s AttemptStatus) CanAdvanceTo(next AttemptStatus) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// Attempt is one student's single session against one assignment.
type Attempt struct {
	ID           string
	AssignmentID string
	StudentID    string
	Status       AttemptStatus
	TotalScore   int
	CreatedAt    time.Time
}

// NewAttempt returns an attempt in its initial ledger state.
func NewAttempt(id, assignmentID, studentID string, now time.Time) Attempt {
	return Attempt{
		ID:           id,
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Status:       AttemptCreated,
		TotalScore:   0,
		CreatedAt:    now,
	}
}

// CreateOutcome tells whether an attempt insert created a row or hit the
// (assignment, student) uniqueness constraint.
type CreateOutcome int

const (
	AttemptCreatedNew CreateOutcome = iota
	AttemptAlreadyExists
)

// AttemptCreation is the result of a create-or-conflict insert. On
// AttemptAlreadyExists, Attempt holds the existing row.
type AttemptCreation struct {
	Outcome CreateOutcome
	Attempt Attempt
}
