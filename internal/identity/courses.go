package identity

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/courseloop/courseloop-lms/internal/quiz"
)

// Courses resolves human-readable course keys to canonical ids and
// guards course row existence for foreign keys.
type Courses struct {
	db *sql.DB
}

func NewCourses(db *sql.DB) *Courses { return &Courses{db: db} }

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Resolve accepts either a canonical UUID or a slug and returns the
// course id. A canonical UUID is trusted: the placeholder row is
// ensured so foreign keys hold before any progress row is written.
// Unknown slugs fail NotFound.
func (c *Courses) Resolve(ctx context.Context, key string) (uuid.UUID, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil, quiz.Invalidf("course key required")
	}
	if id, err := uuid.Parse(key); err == nil {
		if err := c.Ensure(ctx, id); err != nil {
			return uuid.Nil, err
		}
		return id, nil
	}

	var idStr string
	err := c.db.QueryRowContext(ctx, `SELECT id FROM courses WHERE slug=$1`, key).Scan(&idStr)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, quiz.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(idStr)
}

// Create inserts a course. The cooldown window override is optional and
// must parse if present.
func (c *Courses) Create(ctx context.Context, slug, title, window string) (uuid.UUID, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if !slugRe.MatchString(slug) {
		return uuid.Nil, quiz.Invalidf("invalid slug %q", slug)
	}
	if strings.TrimSpace(title) == "" {
		return uuid.Nil, quiz.Invalidf("title required")
	}
	window = strings.TrimSpace(window)
	if window != "" && !quiz.ValidWindow(window) {
		return uuid.Nil, quiz.Invalidf("invalid cooldown window %q", window)
	}

	id := uuid.New()
	var w any
	if window != "" {
		w = window
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO courses (id, slug, title, cooldown_window, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		id.String(), slug, title, w, time.Now().Unix())
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Ensure creates a placeholder course row so progress rows can
// reference it. Idempotent under concurrent calls.
func (c *Courses) Ensure(ctx context.Context, id uuid.UUID) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO courses (id, slug, title, created_at)
		VALUES ($1,$2,'',$3)
		ON CONFLICT (id) DO NOTHING`,
		id.String(), id.String(), time.Now().Unix())
	return err
}
