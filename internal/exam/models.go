package exam

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuestionType is the closed set of gradable question variants.
type QuestionType string

const (
	MultipleChoice QuestionType = "MultipleChoice"
	TrueFalse      QuestionType = "TrueFalse"
)

// ParseQuestionType converts a wire tag into a QuestionType.
func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(s) {
	case MultipleChoice:
		return MultipleChoice, nil
	case TrueFalse:
		return TrueFalse, nil
	default:
		return "", fmt.Errorf("%w: unknown question type %q (valid: %s, %s)",
			ErrInvalidArgument, s, MultipleChoice, TrueFalse)
	}
}

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
}

type Course struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	TeacherID int64  `json:"teacher_id"`
}

type Exam struct {
	ID              int64     `json:"id"`
	CourseID        int64     `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

type Question struct {
	ID     int64        `json:"id"`
	ExamID int64        `json:"exam_id"`
	Text   string       `json:"text"`
	Type   QuestionType `json:"type"`
}

type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// ExamResult is the persisted outcome of one grading invocation. At most one
// row exists per (student, exam); the store enforces the uniqueness.
type ExamResult struct {
	ID         int64           `json:"id"`
	ExamID     int64           `json:"exam_id"`
	StudentID  int64           `json:"student_id"`
	Score      decimal.Decimal `json:"score"`
	FinishedAt time.Time       `json:"finished_at"`
}

type Enrollment struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
