package http

import (
	"net/http"

	"github.com/true-learners/learny/internal/exam"
	"github.com/true-learners/learny/internal/rbac"

	auth "github.com/true-learners/learny/internal/auth/middleware"
)

// GET /results/{resultID}. Callers without result:view-all only see their
// own results; a foreign id reads as not found rather than leaking that the
// result exists.
func GetResultHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "resultID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := store.GetResult(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if !rbac.Allowed(rbac.RoleFromContext(r.Context()), "result:view-all") &&
			res.StudentID != auth.UserIDFromContext(r.Context()) {
			http.Error(w, "result: not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /results/mine — the authenticated student's results.
func ListMyResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := auth.UserIDFromContext(r.Context())
		if studentID == 0 {
			http.Error(w, "missing subject", http.StatusUnauthorized)
			return
		}
		list, err := store.ListResultsByStudent(r.Context(), studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /exams/{examID}/results — teacher dashboard.
func ListExamResultsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		list, err := store.ListResultsByExam(r.Context(), examID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /users?role=student
func ListUsersHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := exam.Role(r.URL.Query().Get("role"))
		if role == "" {
			role = exam.RoleStudent
		}
		list, err := store.ListUsersByRole(r.Context(), role)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
