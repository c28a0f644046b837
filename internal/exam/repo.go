package exam

import "context"

// CreateExamInput is the nested authoring payload for a new exam.
type CreateExamInput struct {
	CourseID        int64           `json:"course_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Questions       []QuestionInput `json:"questions"`
}

type QuestionInput struct {
	Text    string        `json:"text"`
	Type    string        `json:"type"` // MultipleChoice | TrueFalse
	Options []OptionInput `json:"options"`
}

type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Submission is one student's answer set for one exam. An answer may be
// absent or carry an empty selection, meaning unanswered.
type Submission struct {
	ExamID    int64    `json:"exam_id"`
	StudentID int64    `json:"student_id"`
	Answers   []Answer `json:"answers"`
}

type Answer struct {
	QuestionID        int64   `json:"question_id"`
	SelectedOptionIDs []int64 `json:"selected_option_ids"`
}

// Store is the persistence port the service talks to. Lookups return
// ErrNotFound for absent ids; PutResult returns ErrAlreadySubmitted when the
// (student, exam) pair already has a result.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u User) (int64, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsersByRole(ctx context.Context, role Role) ([]User, error)

	// Courses
	CreateCourse(ctx context.Context, c Course) (int64, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]Course, error)

	// Enrollments
	Enroll(ctx context.Context, courseID, studentID int64) (Enrollment, error)
	ListCoursesByStudent(ctx context.Context, studentID int64) ([]Course, error)

	// Exams. CreateExamGraph persists the exam with its questions and
	// options in one transaction, preserving slice order; opts[i] holds the
	// options of qs[i].
	CreateExamGraph(ctx context.Context, e Exam, qs []Question, opts [][]Option) (int64, error)
	GetExam(ctx context.Context, id int64) (Exam, error)
	ListExamsByCourse(ctx context.Context, courseID int64) ([]ExamSummary, error)
	DeleteExam(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context, examID int64) ([]Question, error)
	ListOptions(ctx context.Context, questionID int64) ([]Option, error)

	// Results
	PutResult(ctx context.Context, r ExamResult) (int64, error)
	GetResult(ctx context.Context, id int64) (ExamResult, error)
	ListResultsByStudent(ctx context.Context, studentID int64) ([]ExamResult, error)
	ListResultsByExam(ctx context.Context, examID int64) ([]ExamResult, error)
}
