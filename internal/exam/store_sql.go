package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SQLStore implements Store on database/sql. It works against both the
// sqlite and postgres schemas from internal/db; inserts use RETURNING so id
// generation is uniform across drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// --- Users ---

func (s *SQLStore) CreateUser(ctx context.Context, u User) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, name, email, role)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Username, u.PasswordHash, u.Name, u.Email, string(u.Role)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: username or email already taken", ErrInvalidArgument)
		}
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, email, role FROM users WHERE id=$1`, id))
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, email, role FROM users WHERE username=$1`, username))
}

func (s *SQLStore) scanUser(row *sql.Row) (User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Email, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("user: %w", ErrNotFound)
		}
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

func (s *SQLStore) ListUsersByRole(ctx context.Context, role Role) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, name, email, role FROM users WHERE role=$1 ORDER BY username`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		var r string
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &r); err != nil {
			return nil, err
		}
		u.Role = Role(r)
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- Courses ---

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO courses (code, name, teacher_id) VALUES ($1,$2,$3) RETURNING id`,
		c.Code, c.Name, c.TeacherID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: course code %q already exists", ErrInvalidArgument, c.Code)
		}
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) GetCourse(ctx context.Context, id int64) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, teacher_id FROM courses WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.TeacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, fmt.Errorf("course: %w", ErrNotFound)
	}
	return c, err
}

func (s *SQLStore) ListCourses(ctx context.Context) ([]Course, error) {
	return s.listCourses(ctx, `SELECT id, code, name, teacher_id FROM courses ORDER BY code`)
}

func (s *SQLStore) ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]Course, error) {
	return s.listCourses(ctx,
		`SELECT id, code, name, teacher_id FROM courses WHERE teacher_id=$1 ORDER BY code`, teacherID)
}

func (s *SQLStore) ListCoursesByStudent(ctx context.Context, studentID int64) ([]Course, error) {
	return s.listCourses(ctx,
		`SELECT c.id, c.code, c.name, c.teacher_id FROM courses c
		 JOIN enrollments e ON e.course_id = c.id
		 WHERE e.student_id=$1 ORDER BY c.code`, studentID)
}

func (s *SQLStore) listCourses(ctx context.Context, query string, args ...any) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.TeacherID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Enrollments ---

func (s *SQLStore) Enroll(ctx context.Context, courseID, studentID int64) (Enrollment, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO enrollments (course_id, student_id, created_at) VALUES ($1,$2,$3) RETURNING id`,
		courseID, studentID, now.Unix()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return Enrollment{}, fmt.Errorf("%w: already enrolled", ErrFailedPrecondition)
		}
		if isForeignKeyViolation(err) {
			return Enrollment{}, fmt.Errorf("course or student: %w", ErrNotFound)
		}
		return Enrollment{}, err
	}
	return Enrollment{ID: id, CourseID: courseID, StudentID: studentID, CreatedAt: now}, nil
}

// --- Exams ---

func (s *SQLStore) CreateExamGraph(ctx context.Context, e Exam, qs []Question, opts [][]Option) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var examID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO exams (course_id, title, description, duration_minutes, created_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		e.CourseID, e.Title, e.Description, e.DurationMinutes, e.CreatedAt.Unix()).Scan(&examID)
	if err != nil {
		return 0, err
	}

	for i, q := range qs {
		var questionID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO questions (exam_id, text, type, position) VALUES ($1,$2,$3,$4) RETURNING id`,
			examID, q.Text, string(q.Type), i).Scan(&questionID)
		if err != nil {
			return 0, err
		}
		for j, o := range opts[i] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO options (question_id, text, is_correct, position) VALUES ($1,$2,$3,$4)`,
				questionID, o.Text, o.IsCorrect, j); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return examID, nil
}

func (s *SQLStore) GetExam(ctx context.Context, id int64) (Exam, error) {
	var e Exam
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, title, description, duration_minutes, created_at FROM exams WHERE id=$1`, id).
		Scan(&e.ID, &e.CourseID, &e.Title, &e.Description, &e.DurationMinutes, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("exam: %w", ErrNotFound)
		}
		return Exam{}, err
	}
	e.CreatedAt = time.Unix(created, 0).UTC()
	return e, nil
}

func (s *SQLStore) ListExamsByCourse(ctx context.Context, courseID int64) ([]ExamSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.course_id, e.title, e.description, e.duration_minutes, e.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id)
		 FROM exams e WHERE e.course_id=$1 ORDER BY e.created_at, e.id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ExamSummary{}
	for rows.Next() {
		var es ExamSummary
		var created int64
		if err := rows.Scan(&es.ID, &es.CourseID, &es.Title, &es.Description,
			&es.DurationMinutes, &created, &es.QuestionCount); err != nil {
			return nil, err
		}
		es.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, es)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteExam(ctx context.Context, id int64) error {
	// questions and options go with it via ON DELETE CASCADE
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("exam: %w", ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, text, type FROM questions WHERE exam_id=$1 ORDER BY position, id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		var typ string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &typ); err != nil {
			return nil, err
		}
		q.Type = QuestionType(typ)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListOptions(ctx context.Context, questionID int64) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, text, is_correct FROM options WHERE question_id=$1 ORDER BY position, id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Option{}
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// --- Results ---

func (s *SQLStore) PutResult(ctx context.Context, r ExamResult) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, finished_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		r.ExamID, r.StudentID, r.Score.StringFixed(2), r.FinishedAt.Unix()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadySubmitted
		}
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) GetResult(ctx context.Context, id int64) (ExamResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, exam_id, student_id, score, finished_at FROM exam_results WHERE id=$1`, id)
	r, err := scanResult(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return ExamResult{}, fmt.Errorf("result: %w", ErrNotFound)
	}
	return r, err
}

func (s *SQLStore) ListResultsByStudent(ctx context.Context, studentID int64) ([]ExamResult, error) {
	return s.listResults(ctx,
		`SELECT id, exam_id, student_id, score, finished_at FROM exam_results
		 WHERE student_id=$1 ORDER BY finished_at DESC, id DESC`, studentID)
}

func (s *SQLStore) ListResultsByExam(ctx context.Context, examID int64) ([]ExamResult, error) {
	return s.listResults(ctx,
		`SELECT id, exam_id, student_id, score, finished_at FROM exam_results
		 WHERE exam_id=$1 ORDER BY finished_at DESC, id DESC`, examID)
}

func (s *SQLStore) listResults(ctx context.Context, query string, args ...any) ([]ExamResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ExamResult{}
	for rows.Next() {
		r, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(scan func(dest ...any) error) (ExamResult, error) {
	var r ExamResult
	var score string
	var finished int64
	if err := scan(&r.ID, &r.ExamID, &r.StudentID, &score, &finished); err != nil {
		return ExamResult{}, err
	}
	d, err := decimal.NewFromString(score)
	if err != nil {
		return ExamResult{}, fmt.Errorf("bad score %q: %w", score, err)
	}
	r.Score = d
	r.FinishedAt = time.Unix(finished, 0).UTC()
	return r, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") // postgres
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") // both drivers
}
