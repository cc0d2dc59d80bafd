package app

import (
	"context"
	"strings"

	"classroom-quiz-service/internal/domain"
)

// IdentityResolver maps a join code and a class-scoped student number to a student.
type IdentityResolver struct {
	assignments AssignmentRepository
	students    StudentRepository
}

func NewIdentityResolver(assignments AssignmentRepository, students StudentRepository) *IdentityResolver {
	return &IdentityResolver{assignments: assignments, students: students}
}

// Resolve returns domain.ErrAssignmentNotFound for an unknown code and
// domain.ErrStudentNotFound for an unknown number within the assignment's class.
func (r *IdentityResolver) Resolve(ctx context.Context, joinCode, studentNo string) (domain.StudentIdentity, error) {
	assignment, err := r.assignments.FindAssignmentByJoinCode(ctx, domain.NormalizeJoinCode(joinCode))
	if err != nil {
		return domain.StudentIdentity{}, err
	}

	student, err := r.students.FindStudent(ctx, assignment.ClassID, strings.TrimSpace(studentNo))
	if err != nil {
		return domain.StudentIdentity{}, err
	}
	return student.Identity(), nil
}
