package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/true-learners/learny/internal/exam"
	"github.com/true-learners/learny/internal/rbac"

	auth "github.com/true-learners/learny/internal/auth/middleware"
)

// POST /exams
func CreateExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in exam.CreateExamInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		id, err := svc.CreateExam(r.Context(), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"exam_id": id})
	}
}

// GET /exams/{examID}/full — the student-safe shape, no answer keys.
func GetExamForTakingHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "examID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := svc.GetExamForTaking(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// POST /exams/submit
func SubmitExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub exam.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.SubmitExam(r.Context(), sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /courses/{courseID}/exams
func ListExamsByCourseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "courseID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		list, err := store.ListExamsByCourse(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DELETE /exams/{examID}. Teachers may only delete exams in courses they
// own; admins may delete any.
func DeleteExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "examID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !rbac.Allowed(rbac.RoleFromContext(r.Context()), "exam:delete-any") {
			e, err := store.GetExam(r.Context(), id)
			if err != nil {
				writeErr(w, err)
				return
			}
			c, err := store.GetCourse(r.Context(), e.CourseID)
			if err != nil {
				writeErr(w, err)
				return
			}
			if c.TeacherID != auth.UserIDFromContext(r.Context()) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}
		if err := store.DeleteExam(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
