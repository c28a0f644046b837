package exam

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExamView is the student-facing projection of a stored exam. It is a
// distinct shape from the storage entities on purpose: OptionView has no
// correctness field at all, so an answer key cannot leak through it.
type ExamView struct {
	ExamID          int64          `json:"exam_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
	CreatedAt       time.Time      `json:"created_at"`
	CourseID        int64          `json:"course_id"`
	CourseName      string         `json:"course_name"`
	Questions       []QuestionView `json:"questions"`
}

type QuestionView struct {
	QuestionID int64        `json:"question_id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Options    []OptionView `json:"options"`
}

type OptionView struct {
	OptionID int64  `json:"option_id"`
	Text     string `json:"text"`
}

// ExamResultView is the canonical graded-submission shape: score plus the
// per-question breakdown with submitted and correct answer texts.
type ExamResultView struct {
	ResultID        int64            `json:"result_id"`
	ExamID          int64            `json:"exam_id"`
	ExamTitle       string           `json:"exam_title"`
	StudentID       int64            `json:"student_id"`
	StudentName     string           `json:"student_name"`
	Score           decimal.Decimal  `json:"score"`
	TotalQuestions  int              `json:"total_questions"`
	CorrectAnswers  int              `json:"correct_answers"`
	WrongAnswers    int              `json:"wrong_answers"`
	EmptyAnswers    int              `json:"empty_answers"`
	FinishedAt      time.Time        `json:"finished_at"`
	QuestionResults []QuestionResult `json:"question_results"`
}

type QuestionResult struct {
	QuestionID        int64  `json:"question_id"`
	QuestionText      string `json:"question_text"`
	IsCorrect         bool   `json:"is_correct"`
	StudentAnswerText string `json:"student_answer_text"`
	CorrectAnswerText string `json:"correct_answer_text"`
}

// ExamSummary is the catalogue shape for listings; no question data.
type ExamSummary struct {
	ID              int64     `json:"id"`
	CourseID        int64     `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
}
