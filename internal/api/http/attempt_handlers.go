package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	auth "github.com/courseloop/courseloop-lms/internal/auth/middleware"
	"github.com/courseloop/courseloop-lms/internal/identity"
	"github.com/courseloop/courseloop-lms/internal/quiz"
)

// POST /courses/{courseKey}/modules/{module}/sections/{section}/attempts?limit=5
func StartAttemptHandler(engine *quiz.Engine, courses *identity.Courses, learners *identity.Learners) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		module, err := strconv.Atoi(chi.URLParam(r, "module"))
		if err != nil {
			http.Error(w, "bad module", http.StatusBadRequest)
			return
		}
		section, err := strconv.Atoi(chi.URLParam(r, "section"))
		if err != nil {
			http.Error(w, "bad section", http.StatusBadRequest)
			return
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 0)

		courseID, err := courses.Resolve(r.Context(), chi.URLParam(r, "courseKey"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := learners.Ensure(r.Context(), actor.LearnerID); err != nil {
			httpError(w, err)
			return
		}
		started, err := engine.StartAttempt(r.Context(), actor.LearnerID, courseID, module, section, limit)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, started)
	}
}

// POST /attempts/{attemptID}/submit  { "answers": [{"question_id": "...", "option_id": "..."}] }
func SubmitAttemptHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		attemptID, err := uuid.Parse(chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, "bad attempt id", http.StatusBadRequest)
			return
		}
		var req struct {
			Answers []quiz.AnswerInput `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := engine.SubmitAttempt(r.Context(), attemptID, actor, req.Answers)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		attemptID, err := uuid.Parse(chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, "bad attempt id", http.StatusBadRequest)
			return
		}
		a, err := engine.GetAttempt(r.Context(), attemptID, actor)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, a)
	}
}
