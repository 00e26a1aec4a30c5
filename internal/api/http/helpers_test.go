package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/courseloop/courseloop-lms/internal/quiz"
)

func TestHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{quiz.Invalidf("limit out of range"), http.StatusBadRequest},
		{quiz.ErrNotFound, http.StatusNotFound},
		{quiz.ErrForbidden, http.StatusForbidden},
		{quiz.ErrInvalidState, http.StatusUnprocessableEntity},
		{http.ErrBodyNotAllowed, http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		httpError(rec, c.err)
		if rec.Code != c.want {
			t.Errorf("httpError(%v) = %d, want %d", c.err, rec.Code, c.want)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := parseIntDefault("", 5); got != 5 {
		t.Errorf("empty = %d, want 5", got)
	}
	if got := parseIntDefault("12", 5); got != 12 {
		t.Errorf("12 = %d", got)
	}
	if got := parseIntDefault("twelve", 5); got != 5 {
		t.Errorf("garbage = %d, want 5", got)
	}
}
