package domain

// QuestionView is the client-facing projection of a question. It has no
// field for the correct choice.
type QuestionView struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	ImageURL     *string `json:"imageUrl"`
	A            string  `json:"a"`
	B            string  `json:"b"`
	C            string  `json:"c"`
	D            string  `json:"d"`
	TimeLimitSec int     `json:"timeLimitSec"`
}

type QuizQuestionView struct {
	Order    int          `json:"order"`
	Question QuestionView `json:"question"`
}

type QuizView struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Questions []QuizQuestionView `json:"questions"`
}

type AssignmentView struct {
	Quiz QuizView `json:"quiz"`
}

// AttemptSnapshot is the ordered, redacted view of the quiz behind an attempt.
type AttemptSnapshot struct {
	ID         string         `json:"id"`
	Status     AttemptStatus  `json:"status"`
	Assignment AssignmentView `json:"assignment"`
}

// View projects a question to its public form.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:           q.ID,
		Text:         q.Text,
		ImageURL:     q.ImageURL,
		A:            q.A,
		B:            q.B,
		C:            q.C,
		D:            q.D,
		TimeLimitSec: q.TimeLimitSec,
	}
}

// View projects the quiz, keeping question order as stored.
func (q Quiz) View() QuizView {
	questions := make([]QuizQuestionView, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, QuizQuestionView{Order: qq.Order, Question: qq.Question.View()})
	}
	return QuizView{ID: q.ID, Title: q.Title, Questions: questions}
}
