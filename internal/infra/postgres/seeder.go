package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/seed"
	"github.com/uptrace/bun"
)

const maxJoinCodeTries = 5

// ErrJoinCodeTaken is returned when an explicitly requested join code already
// belongs to another assignment.
var ErrJoinCodeTaken = errors.New("join code already taken")

type teacherRow struct {
	bun.BaseModel `bun:"table:teachers"`

	ID    string `bun:"id,pk"`
	Email string `bun:"email"`
}

type classRow struct {
	bun.BaseModel `bun:"table:classes"`

	ID        string `bun:"id,pk"`
	TeacherID string `bun:"teacher_id"`
	Name      string `bun:"name"`
}

type studentRow struct {
	bun.BaseModel `bun:"table:students"`

	ID        string `bun:"id,pk"`
	ClassID   string `bun:"class_id"`
	StudentNo string `bun:"student_no"`
	FirstName string `bun:"first_name"`
	LastName  string `bun:"last_name"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID           string  `bun:"id,pk"`
	Text         string  `bun:"text"`
	ImageURL     *string `bun:"image_url"`
	A            string  `bun:"a"`
	B            string  `bun:"b"`
	C            string  `bun:"c"`
	D            string  `bun:"d"`
	Correct      string  `bun:"correct"`
	TimeLimitSec int     `bun:"time_limit_sec"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID    string `bun:"id,pk"`
	Title string `bun:"title"`
}

type quizQuestionRow struct {
	bun.BaseModel `bun:"table:quiz_questions"`

	QuizID     string `bun:"quiz_id,pk"`
	QuestionID string `bun:"question_id,pk"`
	Order      int    `bun:"order"`
}

type assignmentRow struct {
	bun.BaseModel `bun:"table:assignments"`

	ID       string `bun:"id,pk"`
	QuizID   string `bun:"quiz_id"`
	ClassID  string `bun:"class_id"`
	JoinCode string `bun:"join_code"`
}

// Seeder provisions datasets. Teacher, class and students are upserted on
// their natural keys so seeding twice reuses them; each run adds a new quiz
// and assignment.
type Seeder struct {
	db          *bun.DB
	newJoinCode func() (string, error)
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db, newJoinCode: domain.NewJoinCode}
}

// Seed writes ds in one transaction and returns it with the ids and join code
// actually stored.
func (s *Seeder) Seed(ctx context.Context, ds seed.Dataset) (seed.Dataset, error) {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		teacher := teacherRow{ID: ds.Teacher.ID, Email: ds.Teacher.Email}
		if _, err := tx.NewInsert().Model(&teacher).
			On("CONFLICT (email) DO UPDATE").
			Set("email = EXCLUDED.email").
			Returning("id").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert teacher: %w", err)
		}
		ds.Teacher.ID = teacher.ID

		class := classRow{ID: ds.Class.ID, TeacherID: teacher.ID, Name: ds.Class.Name}
		if _, err := tx.NewInsert().Model(&class).
			On("CONFLICT (teacher_id, name) DO UPDATE").
			Set("name = EXCLUDED.name").
			Returning("id").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert class: %w", err)
		}
		ds.Class.ID = class.ID
		ds.Class.TeacherID = teacher.ID

		if err := s.insertStudents(ctx, tx, &ds); err != nil {
			return err
		}
		if err := s.insertQuiz(ctx, tx, ds.Quiz); err != nil {
			return err
		}

		ds.Assignment.ClassID = class.ID
		ds.Assignment.QuizID = ds.Quiz.ID
		code, err := s.insertAssignment(ctx, tx, ds.Assignment)
		if err != nil {
			return err
		}
		ds.Assignment.JoinCode = code
		return nil
	})
	if err != nil {
		return seed.Dataset{}, err
	}
	return ds, nil
}

func (s *Seeder) insertStudents(ctx context.Context, tx bun.Tx, ds *seed.Dataset) error {
	if len(ds.Students) == 0 {
		return nil
	}
	rows := make([]studentRow, 0, len(ds.Students))
	for _, st := range ds.Students {
		rows = append(rows, studentRow{
			ID:        st.ID,
			ClassID:   ds.Class.ID,
			StudentNo: st.StudentNo,
			FirstName: st.FirstName,
			LastName:  st.LastName,
		})
	}
	if _, err := tx.NewInsert().Model(&rows).On("CONFLICT (class_id, student_no) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert students: %w", err)
	}

	var stored []studentRow
	if err := tx.NewSelect().Model(&stored).Where("class_id = ?", ds.Class.ID).Scan(ctx); err != nil {
		return fmt.Errorf("reload students: %w", err)
	}
	byNo := make(map[string]studentRow, len(stored))
	for _, row := range stored {
		byNo[row.StudentNo] = row
	}
	for i := range ds.Students {
		row := byNo[ds.Students[i].StudentNo]
		ds.Students[i].ID = row.ID
		ds.Students[i].ClassID = row.ClassID
	}
	return nil
}

func (s *Seeder) insertQuiz(ctx context.Context, tx bun.Tx, quiz domain.Quiz) error {
	if _, err := tx.NewInsert().Model(&quizRow{ID: quiz.ID, Title: quiz.Title}).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	if len(quiz.Questions) == 0 {
		return nil
	}

	questions := make([]questionRow, 0, len(quiz.Questions))
	links := make([]quizQuestionRow, 0, len(quiz.Questions))
	for _, qq := range quiz.Questions {
		q := qq.Question
		questions = append(questions, questionRow{
			ID:           q.ID,
			Text:         q.Text,
			ImageURL:     q.ImageURL,
			A:            q.A,
			B:            q.B,
			C:            q.C,
			D:            q.D,
			Correct:      string(q.Correct),
			TimeLimitSec: q.TimeLimitSec,
		})
		links = append(links, quizQuestionRow{QuizID: quiz.ID, QuestionID: q.ID, Order: qq.Order})
	}
	if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz questions: %w", err)
	}
	return nil
}

// insertAssignment stores the requested join code, failing with
// ErrJoinCodeTaken when it is in use. Without one it draws random codes until
// a free one is found.
func (s *Seeder) insertAssignment(ctx context.Context, tx bun.Tx, a domain.Assignment) (string, error) {
	requested := domain.NormalizeJoinCode(a.JoinCode)
	row := assignmentRow{ID: a.ID, QuizID: a.QuizID, ClassID: a.ClassID, JoinCode: requested}
	for try := 0; try < maxJoinCodeTries; try++ {
		if requested == "" {
			code, err := s.newJoinCode()
			if err != nil {
				return "", err
			}
			row.JoinCode = code
		}
		res, err := tx.NewInsert().Model(&row).On("CONFLICT (join_code) DO NOTHING").Exec(ctx)
		if err != nil {
			return "", fmt.Errorf("insert assignment: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			return row.JoinCode, nil
		}
		if requested != "" {
			return "", fmt.Errorf("%w: %s", ErrJoinCodeTaken, requested)
		}
	}
	return "", fmt.Errorf("no free join code after %d tries", maxJoinCodeTries)
}
