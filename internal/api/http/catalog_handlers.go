package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/courseloop/courseloop-lms/internal/auth/middleware"
	"github.com/courseloop/courseloop-lms/internal/identity"
	"github.com/courseloop/courseloop-lms/internal/quiz"
)

// GET /courses/{courseKey}/sections
func ListSectionsHandler(engine *quiz.Engine, courses *identity.Courses, learners *identity.Learners) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		courseID, err := courses.Resolve(r.Context(), chi.URLParam(r, "courseKey"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := learners.Ensure(r.Context(), actor.LearnerID); err != nil {
			httpError(w, err)
			return
		}
		rows, err := engine.SectionCatalog(r.Context(), actor.LearnerID, courseID)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, rows)
	}
}

// GET /courses/{courseKey}/progress
func ModuleProgressHandler(engine *quiz.Engine, courses *identity.Courses, learners *identity.Learners) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		courseID, err := courses.Resolve(r.Context(), chi.URLParam(r, "courseKey"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := learners.Ensure(r.Context(), actor.LearnerID); err != nil {
			httpError(w, err)
			return
		}
		modules, err := engine.ModuleSummary(r.Context(), actor.LearnerID, courseID)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, modules)
	}
}
