package domain

import "time"

// AttemptEventType distinguishes fresh starts from resumed ones.
type AttemptEventType string

const (
	EventAttemptStarted AttemptEventType = "attempt.started"
	EventAttemptResumed AttemptEventType = "attempt.resumed"
)

// AttemptEvent is published on an assignment's feed whenever a student starts
// or resumes an attempt.
type AttemptEvent struct {
	Type         AttemptEventType `json:"type"`
	AssignmentID string           `json:"assignmentId"`
	AttemptID    string           `json:"attemptId"`
	StudentID    string           `json:"studentId"`
	At           time.Time        `json:"at"`
}
