package domain

import "errors"

var (
	// ErrAssignmentNotFound is returned when no assignment matches a join code or id.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrStudentNotFound is returned when no student matches in the assignment's class.
	ErrStudentNotFound = errors.New("student not found")
	// ErrAttemptNotFound is returned for an unknown attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuizNotFound indicates the quiz behind an assignment could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidTransition is returned when a ledger update would move an attempt backwards.
	ErrInvalidTransition = errors.New("invalid attempt status transition")
	// ErrStaleLedger means the attempt changed status between read and write.
	ErrStaleLedger = errors.New("attempt status changed concurrently")
)
