package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/true-learners/learny/internal/exam"

	auth "github.com/true-learners/learny/internal/auth/middleware"
)

// POST /courses — the authenticated teacher owns the new course.
func CreateCourseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Code = strings.TrimSpace(req.Code)
		req.Name = strings.TrimSpace(req.Name)
		if req.Code == "" || req.Name == "" {
			http.Error(w, "code and name required", http.StatusBadRequest)
			return
		}
		teacherID := auth.UserIDFromContext(r.Context())
		if teacherID == 0 {
			http.Error(w, "missing subject", http.StatusUnauthorized)
			return
		}
		id, err := store.CreateCourse(r.Context(), exam.Course{
			Code:      req.Code,
			Name:      req.Name,
			TeacherID: teacherID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

// GET /courses/{courseID}
func GetCourseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "courseID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c, err := store.GetCourse(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /courses — ?mine=1 narrows to the caller's courses (taught for
// teachers, enrolled for students).
func ListCoursesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if r.URL.Query().Get("mine") != "" {
			userID := auth.UserIDFromContext(ctx)
			u, err := store.GetUser(ctx, userID)
			if err != nil {
				writeErr(w, err)
				return
			}
			var list []exam.Course
			if u.Role == exam.RoleTeacher {
				list, err = store.ListCoursesByTeacher(ctx, userID)
			} else {
				list, err = store.ListCoursesByStudent(ctx, userID)
			}
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list)
			return
		}
		list, err := store.ListCourses(ctx)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /courses/{courseID}/enroll — the authenticated student enrolls.
func EnrollHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := pathID(r, "courseID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		studentID := auth.UserIDFromContext(r.Context())
		if studentID == 0 {
			http.Error(w, "missing subject", http.StatusUnauthorized)
			return
		}
		// fail early with 404 on unknown course rather than an FK error
		if _, err := store.GetCourse(r.Context(), courseID); err != nil {
			writeErr(w, err)
			return
		}
		e, err := store.Enroll(r.Context(), courseID, studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}
