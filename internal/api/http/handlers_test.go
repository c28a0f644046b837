package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/true-learners/learny/internal/api/http"
	auth "github.com/true-learners/learny/internal/auth/middleware"
	"github.com/true-learners/learny/internal/db"
	"github.com/true-learners/learny/internal/exam"
	"github.com/true-learners/learny/internal/rbac"
)

// newTestServer wires the same router shape as cmd/gateway against an
// in-memory sqlite database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.DriverSQLite,
		fmt.Sprintf("file:%s.db?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })

	store := exam.NewSQLStore(dbh)
	svc := exam.NewService(store, time.Now)
	authSvc := auth.NewAuthService("test-secret", time.Hour)

	r := chi.NewRouter()
	r.Post("/auth/register", auth.RegisterHandler(store))
	r.Post("/auth/login", auth.LoginHandler(authSvc, store))
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.With(rbac.Require("course:create")).Post("/courses", api.CreateCourseHandler(store))
		pr.With(rbac.Require("course:enroll")).Post("/courses/{courseID}/enroll", api.EnrollHandler(store))
		pr.With(rbac.Require("exam:create")).Post("/exams", api.CreateExamHandler(svc))
		pr.With(rbac.Require("exam:take")).Get("/exams/{examID}/full", api.GetExamForTakingHandler(svc))
		pr.With(rbac.Require("exam:submit")).Post("/exams/submit", api.SubmitExamHandler(svc))
		pr.With(rbac.Require("exam:delete_own")).Delete("/exams/{examID}", api.DeleteExamHandler(store))
		pr.With(rbac.Require("result:view-own")).Get("/results/mine", api.ListMyResultsHandler(store))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{resultID}", api.GetResultHandler(store))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, wantStatus int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d; body: %s", method, url, resp.StatusCode, wantStatus, out.String())
	}
	return out.Bytes()
}

func register(t *testing.T, base, username, role string) {
	t.Helper()
	doJSON(t, "POST", base+"/auth/register", "", map[string]any{
		"username": username, "password": "pw-" + username,
		"name": username + " test", "email": username + "@example.com", "role": role,
	}, http.StatusCreated)
}

func login(t *testing.T, base, username string) string {
	t.Helper()
	b := doJSON(t, "POST", base+"/auth/login", "", map[string]any{
		"username": username, "password": "pw-" + username,
	}, http.StatusOK)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(b, &out); err != nil || out.AccessToken == "" {
		t.Fatalf("login response: %s (%v)", b, err)
	}
	return out.AccessToken
}

func TestExamFlow_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	register(t, base, "hoca", "teacher")
	register(t, base, "talebe", "student")
	teacherTok := login(t, base, "hoca")
	studentTok := login(t, base, "talebe")

	// Teacher creates a course.
	b := doJSON(t, "POST", base+"/courses", teacherTok,
		map[string]any{"code": "MATH101", "name": "Mathematics"}, http.StatusCreated)
	var course struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(b, &course)

	// Student cannot create exams.
	doJSON(t, "POST", base+"/exams", studentTok, map[string]any{}, http.StatusForbidden)

	// Teacher assembles the quiz.
	b = doJSON(t, "POST", base+"/exams", teacherTok, map[string]any{
		"course_id":        course.ID,
		"title":            "Quiz",
		"duration_minutes": 30,
		"questions": []map[string]any{{
			"text": "2+2=?",
			"type": "MultipleChoice",
			"options": []map[string]any{
				{"text": "3", "is_correct": false},
				{"text": "4", "is_correct": true},
				{"text": "5", "is_correct": false},
			},
		}},
	}, http.StatusCreated)
	var created struct {
		ExamID int64 `json:"exam_id"`
	}
	_ = json.Unmarshal(b, &created)

	// Invalid exam is rejected with 400.
	doJSON(t, "POST", base+"/exams", teacherTok, map[string]any{
		"course_id": course.ID, "title": " ", "duration_minutes": 30,
		"questions": []map[string]any{},
	}, http.StatusBadRequest)

	// Student enrolls and fetches the taking view.
	doJSON(t, "POST", fmt.Sprintf("%s/courses/%d/enroll", base, course.ID), studentTok, nil, http.StatusCreated)

	b = doJSON(t, "GET", fmt.Sprintf("%s/exams/%d/full", base, created.ExamID), studentTok, nil, http.StatusOK)
	if strings.Contains(strings.ToLower(string(b)), "correct") {
		t.Fatalf("taking view leaks answer key: %s", b)
	}
	var view exam.ExamView
	if err := json.Unmarshal(b, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.CourseName != "Mathematics" || len(view.Questions) != 1 || len(view.Questions[0].Options) != 3 {
		t.Fatalf("view shape: %+v", view)
	}

	var four int64
	for _, o := range view.Questions[0].Options {
		if o.Text == "4" {
			four = o.OptionID
		}
	}

	// Student submits the right answer. StudentID travels in the body, as
	// the exam page knows it from the login response.
	var me struct {
		User exam.User `json:"user"`
	}
	lb := doJSON(t, "POST", base+"/auth/login", "", map[string]any{
		"username": "talebe", "password": "pw-talebe",
	}, http.StatusOK)
	_ = json.Unmarshal(lb, &me)

	sub := map[string]any{
		"exam_id":    created.ExamID,
		"student_id": me.User.ID,
		"answers": []map[string]any{
			{"question_id": view.Questions[0].QuestionID, "selected_option_ids": []int64{four}},
		},
	}
	b = doJSON(t, "POST", base+"/exams/submit", studentTok, sub, http.StatusOK)
	var res exam.ExamResultView
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Score.StringFixed(2) != "100.00" || res.CorrectAnswers != 1 {
		t.Fatalf("result: %+v", res)
	}

	// Resubmission is rejected.
	doJSON(t, "POST", base+"/exams/submit", studentTok, sub, http.StatusUnprocessableEntity)

	// The result shows up on the student's dashboard.
	b = doJSON(t, "GET", base+"/results/mine", studentTok, nil, http.StatusOK)
	var mine []exam.ExamResult
	if err := json.Unmarshal(b, &mine); err != nil || len(mine) != 1 {
		t.Fatalf("results mine: %s (%v)", b, err)
	}

	// No token, no API.
	doJSON(t, "GET", fmt.Sprintf("%s/exams/%d/full", base, created.ExamID), "", nil, http.StatusUnauthorized)
}

func loginUser(t *testing.T, base, username string) (string, int64) {
	t.Helper()
	b := doJSON(t, "POST", base+"/auth/login", "", map[string]any{
		"username": username, "password": "pw-" + username,
	}, http.StatusOK)
	var out struct {
		AccessToken string    `json:"access_token"`
		User        exam.User `json:"user"`
	}
	if err := json.Unmarshal(b, &out); err != nil || out.AccessToken == "" {
		t.Fatalf("login response: %s (%v)", b, err)
	}
	return out.AccessToken, out.User.ID
}

// buildQuiz creates a course holding a one-question quiz.
func buildQuiz(t *testing.T, base, teacherTok string) (courseID, examID int64) {
	t.Helper()
	b := doJSON(t, "POST", base+"/courses", teacherTok,
		map[string]any{"code": "MATH101", "name": "Mathematics"}, http.StatusCreated)
	var course struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(b, &course)

	b = doJSON(t, "POST", base+"/exams", teacherTok, map[string]any{
		"course_id":        course.ID,
		"title":            "Quiz",
		"duration_minutes": 30,
		"questions": []map[string]any{{
			"text": "2+2=?",
			"type": "MultipleChoice",
			"options": []map[string]any{
				{"text": "4", "is_correct": true},
				{"text": "5", "is_correct": false},
			},
		}},
	}, http.StatusCreated)
	var created struct {
		ExamID int64 `json:"exam_id"`
	}
	_ = json.Unmarshal(b, &created)
	return course.ID, created.ExamID
}

// submitQuiz enrolls the student and answers the quiz's single question.
func submitQuiz(t *testing.T, base, tok string, courseID, examID, studentID int64) exam.ExamResultView {
	t.Helper()
	doJSON(t, "POST", fmt.Sprintf("%s/courses/%d/enroll", base, courseID), tok, nil, http.StatusCreated)
	b := doJSON(t, "GET", fmt.Sprintf("%s/exams/%d/full", base, examID), tok, nil, http.StatusOK)
	var view exam.ExamView
	if err := json.Unmarshal(b, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	q := view.Questions[0]
	b = doJSON(t, "POST", base+"/exams/submit", tok, map[string]any{
		"exam_id":    examID,
		"student_id": studentID,
		"answers": []map[string]any{
			{"question_id": q.QuestionID, "selected_option_ids": []int64{q.Options[0].OptionID}},
		},
	}, http.StatusOK)
	var res exam.ExamResultView
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return res
}

func TestGetResult_ScopedToOwner(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	register(t, base, "usta", "teacher")
	register(t, base, "ali", "student")
	register(t, base, "veli", "student")
	teacherTok := login(t, base, "usta")
	aliTok, aliID := loginUser(t, base, "ali")
	veliTok, _ := loginUser(t, base, "veli")

	courseID, examID := buildQuiz(t, base, teacherTok)
	res := submitQuiz(t, base, aliTok, courseID, examID, aliID)

	url := fmt.Sprintf("%s/results/%d", base, res.ResultID)
	// Another student cannot read ali's result, nor learn that it exists.
	doJSON(t, "GET", url, veliTok, nil, http.StatusNotFound)
	// The owner and the teacher can.
	doJSON(t, "GET", url, aliTok, nil, http.StatusOK)
	doJSON(t, "GET", url, teacherTok, nil, http.StatusOK)
}

func TestDeleteExam_OwnershipEnforced(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	register(t, base, "usta", "teacher")
	register(t, base, "rakip", "teacher")
	ownerTok := login(t, base, "usta")
	otherTok := login(t, base, "rakip")

	_, examID := buildQuiz(t, base, ownerTok)

	url := fmt.Sprintf("%s/exams/%d", base, examID)
	doJSON(t, "DELETE", url, otherTok, nil, http.StatusForbidden)
	doJSON(t, "DELETE", url, ownerTok, nil, http.StatusOK)
	// Gone once the owner has deleted it.
	doJSON(t, "DELETE", url, ownerTok, nil, http.StatusNotFound)
}
