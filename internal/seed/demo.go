package seed

import (
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// DemoJoinCode is the join code the in-memory store is loaded with.
const DemoJoinCode = "NAMFZT"

// Dataset is one teacher's class with a quiz assigned to it.
type Dataset struct {
	Teacher    domain.Teacher
	Class      domain.Class
	Students   []domain.Student
	Quiz       domain.Quiz
	Assignment domain.Assignment
}

// Demo builds the demo class 6A with a three-question physics quiz.
func Demo(joinCode string) Dataset {
	teacher := domain.Teacher{ID: uuid.NewString(), Email: "akif@local.dev"}
	class := domain.Class{ID: uuid.NewString(), TeacherID: teacher.ID, Name: "6A"}

	students := []domain.Student{
		{ID: uuid.NewString(), ClassID: class.ID, StudentNo: "123", FirstName: "Ayşe", LastName: "Yılmaz"},
		{ID: uuid.NewString(), ClassID: class.ID, StudentNo: "456", FirstName: "Mehmet", LastName: "Demir"},
	}

	quiz := domain.Quiz{
		ID:    uuid.NewString(),
		Title: "Fen - Kuvvet (Demo)",
		Questions: []domain.QuizQuestion{
			{Order: 1, Question: domain.Question{
				ID:   uuid.NewString(),
				Text: "Kuvvetin birimi nedir?",
				A: "Newton", B: "Joule", C: "Watt", D: "Pascal",
				Correct:      domain.ChoiceA,
				TimeLimitSec: 20,
			}},
			{Order: 2, Question: domain.Question{
				ID:   uuid.NewString(),
				Text: "Sürtünme kuvveti hareketi nasıl etkiler?",
				A: "Hızlandırır", B: "Yavaşlatır", C: "Etkilemez", D: "Yönünü tersine çevirir",
				Correct:      domain.ChoiceB,
				TimeLimitSec: 20,
			}},
			{Order: 3, Question: domain.Question{
				ID:   uuid.NewString(),
				Text: "Dinamometre neyi ölçer?",
				A: "Kütle", B: "Hacim", C: "Kuvvet", D: "Sıcaklık",
				Correct:      domain.ChoiceC,
				TimeLimitSec: 15,
			}},
		},
	}

	return Dataset{
		Teacher:  teacher,
		Class:    class,
		Students: students,
		Quiz:     quiz,
		Assignment: domain.Assignment{
			ID:        uuid.NewString(),
			QuizID:    quiz.ID,
			ClassID:   class.ID,
			JoinCode:  domain.NormalizeJoinCode(joinCode),
			CreatedAt: time.Now().UTC(),
		},
	}
}
