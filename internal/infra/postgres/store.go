package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	attemptPairConstraint = "attempts_assignment_student_key"
)

// Store implements app.Store on Postgres. The pool is owned by the caller.
type Store struct {
	pool  *pgxpool.Pool
	newID func() string
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, newID: uuid.NewString}
}

const assignmentColumns = `id, quiz_id, class_id, join_code, created_at`

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.QuizID, &a.ClassID, &a.JoinCode, &a.CreatedAt)
	return a, err
}

func (s *Store) FindAssignmentByJoinCode(ctx context.Context, joinCode string) (domain.Assignment, error) {
	a, err := scanAssignment(s.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE join_code=$1`, joinCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("find assignment by join code: %w", err)
	}
	return a, nil
}

func (s *Store) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	a, err := scanAssignment(s.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

const studentColumns = `id, class_id, student_no, first_name, last_name`

func scanStudent(row pgx.Row) (domain.Student, error) {
	var st domain.Student
	err := row.Scan(&st.ID, &st.ClassID, &st.StudentNo, &st.FirstName, &st.LastName)
	return st, err
}

func (s *Store) FindStudent(ctx context.Context, classID, studentNo string) (domain.Student, error) {
	st, err := scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE class_id=$1 AND student_no=$2`, classID, studentNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	if err != nil {
		return domain.Student{}, fmt.Errorf("find student: %w", err)
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (domain.Student, error) {
	st, err := scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	if err != nil {
		return domain.Student{}, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

const attemptColumns = `id, assignment_id, student_id, status, total_score, created_at`

func scanAttempt(row pgx.Row) (domain.Attempt, error) {
	var a domain.Attempt
	var status string
	err := row.Scan(&a.ID, &a.AssignmentID, &a.StudentID, &status, &a.TotalScore, &a.CreatedAt)
	a.Status = domain.AttemptStatus(status)
	return a, err
}

// CreateAttempt inserts a new attempt row. A hit on the (assignment, student)
// unique constraint is reported as domain.AttemptAlreadyExists with the row
// that won; the constraint is the only synchronization between racing starts.
func (s *Store) CreateAttempt(ctx context.Context, assignmentID, studentID string) (domain.AttemptCreation, error) {
	attempt := domain.NewAttempt(s.newID(), assignmentID, studentID, time.Now().UTC().Truncate(time.Microsecond))

	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (`+attemptColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		attempt.ID, attempt.AssignmentID, attempt.StudentID, string(attempt.Status), attempt.TotalScore, attempt.CreatedAt)
	switch {
	case err == nil:
		return domain.AttemptCreation{Outcome: domain.AttemptCreatedNew, Attempt: attempt}, nil
	case isConstraintViolation(err, uniqueViolation, attemptPairConstraint):
		existing, err := scanAttempt(s.pool.QueryRow(ctx,
			`SELECT `+attemptColumns+` FROM attempts WHERE assignment_id=$1 AND student_id=$2`, assignmentID, studentID))
		if err != nil {
			return domain.AttemptCreation{}, fmt.Errorf("load existing attempt: %w", err)
		}
		return domain.AttemptCreation{Outcome: domain.AttemptAlreadyExists, Attempt: existing}, nil
	case isConstraintViolation(err, foreignKeyViolation, ""):
		return domain.AttemptCreation{}, domain.ErrStudentNotFound
	default:
		return domain.AttemptCreation{}, fmt.Errorf("insert attempt: %w", err)
	}
}

func (s *Store) GetAttempt(ctx context.Context, id string) (domain.Attempt, error) {
	a, err := scanAttempt(s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

// UpdateAttemptLedger writes status and score only while the row still has
// the expected status.
func (s *Store) UpdateAttemptLedger(ctx context.Context, id string, expected, next domain.AttemptStatus, totalScore int) (domain.Attempt, error) {
	a, err := scanAttempt(s.pool.QueryRow(ctx,
		`UPDATE attempts SET status=$3, total_score=$4 WHERE id=$1 AND status=$2 RETURNING `+attemptColumns,
		id, string(expected), string(next), totalScore))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, fmt.Errorf("update attempt ledger: %w", err)
	}
	if _, err := s.GetAttempt(ctx, id); err != nil {
		return domain.Attempt{}, err
	}
	return domain.Attempt{}, domain.ErrStaleLedger
}

// GetQuiz reads the quiz and its ordered questions in one read-only snapshot.
func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("begin quiz read: %w", err)
	}
	defer tx.Rollback(ctx)

	var quiz domain.Quiz
	err = tx.QueryRow(ctx, `SELECT id, title FROM quizzes WHERE id=$1`, quizID).Scan(&quiz.ID, &quiz.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT qq."order", q.id, q.text, q.image_url, q.a, q.b, q.c, q.d, q.correct, q.time_limit_sec
		FROM quiz_questions qq
		JOIN questions q ON q.id = qq.question_id
		WHERE qq.quiz_id=$1
		ORDER BY qq."order" ASC`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz questions: %w", err)
	}
	defer rows.Close()

	quiz.Questions = []domain.QuizQuestion{}
	for rows.Next() {
		var qq domain.QuizQuestion
		var correct string
		q := &qq.Question
		if err := rows.Scan(&qq.Order, &q.ID, &q.Text, &q.ImageURL, &q.A, &q.B, &q.C, &q.D, &correct, &q.TimeLimitSec); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan quiz question: %w", err)
		}
		q.Correct = domain.Choice(correct)
		quiz.Questions = append(quiz.Questions, qq)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("iterate quiz questions: %w", err)
	}
	return quiz, nil
}

// isConstraintViolation reports whether err is a Postgres error with the given
// SQLSTATE and, when constraint is non-empty, the given constraint name.
func isConstraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
