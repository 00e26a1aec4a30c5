package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courseloop/courseloop-lms/internal/identity"
)

// POST /courses  { "slug": "...", "title": "...", "cooldown_window": "7d" }
func CreateCourseHandler(courses *identity.Courses) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Slug           string `json:"slug"`
			Title          string `json:"title"`
			CooldownWindow string `json:"cooldown_window"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		id, err := courses.Create(r.Context(), req.Slug, req.Title, req.CooldownWindow)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, map[string]string{"id": id.String(), "slug": req.Slug})
	}
}

// POST /courses/{courseKey}/questions  [ {question}, ... ]
func AuthorQuestionsHandler(courses *identity.Courses, questions *identity.Questions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := courses.Resolve(r.Context(), chi.URLParam(r, "courseKey"))
		if err != nil {
			httpError(w, err)
			return
		}
		var inputs []identity.QuestionInput
		if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		ids, err := questions.Author(r.Context(), courseID, inputs)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, map[string]any{"inserted": len(ids), "ids": ids})
	}
}

// PUT /courses/{courseKey}/sections  [ {module_number, section_index, title, position}, ... ]
func UpsertSectionsHandler(courses *identity.Courses, questions *identity.Questions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := courses.Resolve(r.Context(), chi.URLParam(r, "courseKey"))
		if err != nil {
			httpError(w, err)
			return
		}
		var inputs []identity.SectionInput
		if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := questions.UpsertSections(r.Context(), courseID, inputs); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, map[string]int{"updated": len(inputs)})
	}
}
