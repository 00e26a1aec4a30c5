package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	auth "github.com/courseloop/courseloop-lms/internal/auth/middleware"
	"github.com/courseloop/courseloop-lms/internal/quiz"
	"github.com/courseloop/courseloop-lms/internal/rbac"
)

// GET /attempts?course_id=...&learner_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all are scoped to their own attempts.
func ListAttemptsHandler(store quiz.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role := rbac.RoleFromContext(r.Context())

		opts := quiz.ListAttemptsOpts{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if v := strings.TrimSpace(r.URL.Query().Get("course_id")); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				http.Error(w, "bad course_id", http.StatusBadRequest)
				return
			}
			opts.CourseID = id
		}
		if v := strings.TrimSpace(r.URL.Query().Get("learner_id")); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				http.Error(w, "bad learner_id", http.StatusBadRequest)
				return
			}
			opts.LearnerID = id
		}
		if !checker.Has(role, "attempt:view-all") {
			opts.LearnerID = actor.LearnerID
		}

		list, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, list)
	}
}
