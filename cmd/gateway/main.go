package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/true-learners/learny/internal/api/http"
	auth "github.com/true-learners/learny/internal/auth/middleware"
	"github.com/true-learners/learny/internal/config"
	"github.com/true-learners/learny/internal/db"
	"github.com/true-learners/learny/internal/exam"
	"github.com/true-learners/learny/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh)
	svc := exam.NewService(store, time.Now)

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", auth.RegisterHandler(store))
	r.Post("/auth/login", auth.LoginHandler(authSvc, store))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Courses
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(store))
		pr.With(rbac.Require("course:list")).
			Get("/courses", api.ListCoursesHandler(store))
		pr.With(rbac.Require("course:list")).
			Get("/courses/{courseID}", api.GetCourseHandler(store))
		pr.With(rbac.Require("course:enroll")).
			Post("/courses/{courseID}/enroll", api.EnrollHandler(store))
		pr.With(rbac.RequireAny("exam:list", "exam:take")).
			Get("/courses/{courseID}/exams", api.ListExamsByCourseHandler(store))

		// Exams
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(svc))
		pr.With(rbac.Require("exam:take")).
			Get("/exams/{examID}/full", api.GetExamForTakingHandler(svc))
		pr.With(rbac.Require("exam:submit")).
			Post("/exams/submit", api.SubmitExamHandler(svc))
		pr.With(rbac.Require("exam:delete_own")).
			Delete("/exams/{examID}", api.DeleteExamHandler(store))

		// Results
		pr.With(rbac.Require("result:view-own")).
			Get("/results/mine", api.ListMyResultsHandler(store))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{resultID}", api.GetResultHandler(store))
		pr.With(rbac.Require("result:view-all")).
			Get("/exams/{examID}/results", api.ListExamResultsHandler(store))

		// Users
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
