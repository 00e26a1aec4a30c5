package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/courseloop/courseloop-lms/internal/api/http"
	auth "github.com/courseloop/courseloop-lms/internal/auth/middleware"
	"github.com/courseloop/courseloop-lms/internal/config"
	"github.com/courseloop/courseloop-lms/internal/db"
	"github.com/courseloop/courseloop-lms/internal/identity"
	"github.com/courseloop/courseloop-lms/internal/quiz"
	"github.com/courseloop/courseloop-lms/internal/rbac"
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

	store := quiz.NewSQLStore(dbh)
	engine := quiz.NewEngine(store, quiz.WithWindow(quiz.ParseWindow(cfg.CooldownWindow)))
	courses := identity.NewCourses(dbh)
	learners := identity.NewLearners(dbh)
	questions := identity.NewQuestions(dbh)

	if err := learners.EnsureAdmin(ctx, getenvOr("ADMIN_USER", ""), getenvOr("ADMIN_PASS_HASH", "")); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret)

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

	r.Post("/auth/login", auth.LoginHandler(authSvc, learners))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))

		// Learner flow
		pr.With(rbac.Require("section:list")).
			Get("/courses/{courseKey}/sections", api.ListSectionsHandler(engine, courses, learners))
		pr.With(rbac.Require("progress:view")).
			Get("/courses/{courseKey}/progress", api.ModuleProgressHandler(engine, courses, learners))
		pr.With(rbac.Require("attempt:start")).
			Post("/courses/{courseKey}/modules/{module}/sections/{section}/attempts",
				api.StartAttemptHandler(engine, courses, learners))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(engine))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(engine))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store))

		// Instructor/admin: authoring
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(courses))
		pr.With(rbac.Require("question:author")).
			Post("/courses/{courseKey}/questions", api.AuthorQuestionsHandler(courses, questions))
		pr.With(rbac.Require("question:author")).
			Put("/courses/{courseKey}/sections", api.UpsertSectionsHandler(courses, questions))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, window=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.CooldownWindow)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func getenvOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
