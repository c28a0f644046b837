package exam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/true-learners/learny/internal/grading"
)

// Service implements the exam assembly, projection and grading operations.
// Everything else on the platform is plain CRUD against the Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService wires a Service. Pass nil for now to use time.Now.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// CreateExam validates the whole question/option tree up front, then persists
// the exam graph atomically. Nothing is written if any part is invalid.
func (s *Service) CreateExam(ctx context.Context, in CreateExamInput) (int64, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return 0, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if in.DurationMinutes <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidArgument, in.DurationMinutes)
	}
	course, err := s.store.GetCourse(ctx, in.CourseID)
	if err != nil {
		return 0, fmt.Errorf("course %d: %w", in.CourseID, err)
	}
	if len(in.Questions) == 0 {
		return 0, fmt.Errorf("%w: an exam needs at least one question", ErrInvalidArgument)
	}

	// Stage the full graph in memory; CreateExamGraph commits it in one
	// transaction, so a late validation failure never leaves partial rows.
	questions := make([]Question, 0, len(in.Questions))
	options := make([][]Option, 0, len(in.Questions))
	for _, qin := range in.Questions {
		qText := strings.TrimSpace(qin.Text)
		if qText == "" {
			return 0, fmt.Errorf("%w: question text is required", ErrInvalidArgument)
		}
		qType, err := ParseQuestionType(qin.Type)
		if err != nil {
			return 0, err
		}
		if len(qin.Options) == 0 {
			return 0, fmt.Errorf("%w: question %q needs at least one option", ErrInvalidArgument, qText)
		}
		opts := make([]Option, 0, len(qin.Options))
		hasCorrect := false
		for _, oin := range qin.Options {
			oText := strings.TrimSpace(oin.Text)
			if oText == "" {
				return 0, fmt.Errorf("%w: option text is required on question %q", ErrInvalidArgument, qText)
			}
			if oin.IsCorrect {
				hasCorrect = true
			}
			opts = append(opts, Option{Text: oText, IsCorrect: oin.IsCorrect})
		}
		if !hasCorrect {
			return 0, fmt.Errorf("%w: question %q needs at least one correct option", ErrInvalidArgument, qText)
		}
		questions = append(questions, Question{Text: qText, Type: qType})
		options = append(options, opts)
	}

	e := Exam{
		CourseID:        course.ID,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		DurationMinutes: in.DurationMinutes,
		CreatedAt:       s.now().UTC(),
	}
	return s.store.CreateExamGraph(ctx, e, questions, options)
}

// GetExamForTaking builds the student-facing projection of a stored exam.
// The returned shape carries no answer-key data.
func (s *Service) GetExamForTaking(ctx context.Context, examID int64) (ExamView, error) {
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return ExamView{}, fmt.Errorf("exam %d: %w", examID, err)
	}
	course, err := s.store.GetCourse(ctx, e.CourseID)
	if err != nil {
		return ExamView{}, fmt.Errorf("course %d: %w", e.CourseID, err)
	}
	questions, err := s.store.ListQuestions(ctx, examID)
	if err != nil {
		return ExamView{}, err
	}
	if len(questions) == 0 {
		return ExamView{}, fmt.Errorf("%w: exam %d has no questions", ErrFailedPrecondition, examID)
	}

	qviews := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		opts, err := s.store.ListOptions(ctx, q.ID)
		if err != nil {
			return ExamView{}, err
		}
		oviews := make([]OptionView, 0, len(opts))
		for _, o := range opts {
			oviews = append(oviews, OptionView{OptionID: o.ID, Text: o.Text})
		}
		qviews = append(qviews, QuestionView{
			QuestionID: q.ID,
			Text:       q.Text,
			Type:       q.Type,
			Options:    oviews,
		})
	}

	return ExamView{
		ExamID:          e.ID,
		Title:           e.Title,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		CreatedAt:       e.CreatedAt,
		CourseID:        course.ID,
		CourseName:      course.Name,
		Questions:       qviews,
	}, nil
}

// SubmitExam grades a submission with the exact-match rule, persists the
// result and returns the full breakdown. A second submission for the same
// (student, exam) pair fails with ErrAlreadySubmitted.
func (s *Service) SubmitExam(ctx context.Context, sub Submission) (ExamResultView, error) {
	e, err := s.store.GetExam(ctx, sub.ExamID)
	if err != nil {
		return ExamResultView{}, fmt.Errorf("exam %d: %w", sub.ExamID, err)
	}
	student, err := s.store.GetUser(ctx, sub.StudentID)
	if err != nil {
		return ExamResultView{}, fmt.Errorf("student %d: %w", sub.StudentID, err)
	}
	questions, err := s.store.ListQuestions(ctx, sub.ExamID)
	if err != nil {
		return ExamResultView{}, err
	}
	if len(questions) == 0 {
		return ExamResultView{}, fmt.Errorf("%w: exam %d has no questions", ErrFailedPrecondition, sub.ExamID)
	}

	var correct, wrong, empty int
	results := make([]QuestionResult, 0, len(questions))
	for _, q := range questions {
		opts, err := s.store.ListOptions(ctx, q.ID)
		if err != nil {
			return ExamResultView{}, err
		}
		var key []int64
		for _, o := range opts {
			if o.IsCorrect {
				key = append(key, o.ID)
			}
		}

		selected := findAnswer(sub.Answers, q.ID)
		outcome := grading.Evaluate(key, selected)
		switch outcome {
		case grading.Correct:
			correct++
		case grading.Wrong:
			wrong++
		default:
			empty++
		}

		results = append(results, QuestionResult{
			QuestionID:        q.ID,
			QuestionText:      q.Text,
			IsCorrect:         outcome == grading.Correct,
			StudentAnswerText: optionTexts(opts, selected),
			CorrectAnswerText: optionTexts(opts, key),
		})
	}

	total := len(questions)
	score := grading.Score(correct, total)

	r := ExamResult{
		ExamID:     e.ID,
		StudentID:  student.ID,
		Score:      score,
		FinishedAt: s.now().UTC(),
	}
	resultID, err := s.store.PutResult(ctx, r)
	if err != nil {
		return ExamResultView{}, err
	}

	return ExamResultView{
		ResultID:        resultID,
		ExamID:          e.ID,
		ExamTitle:       e.Title,
		StudentID:       student.ID,
		StudentName:     student.Name,
		Score:           score,
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		WrongAnswers:    wrong,
		EmptyAnswers:    empty,
		FinishedAt:      r.FinishedAt,
		QuestionResults: results,
	}, nil
}

// findAnswer returns the selection of the first answer entry matching the
// question, or nil if the question was left unanswered.
func findAnswer(answers []Answer, questionID int64) []int64 {
	for _, a := range answers {
		if a.QuestionID == questionID {
			return a.SelectedOptionIDs
		}
	}
	return nil
}

// optionTexts joins the texts of the given option ids in option order.
func optionTexts(opts []Option, ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var parts []string
	for _, o := range opts {
		if _, ok := want[o.ID]; ok {
			parts = append(parts, o.Text)
		}
	}
	return strings.Join(parts, ", ")
}
