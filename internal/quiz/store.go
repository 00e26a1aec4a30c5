package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SampleLimitMax bounds the question pool sampler; SampleLimitDefault
// applies when the caller passes no limit.
const (
	SampleLimitDefault = 5
	SampleLimitMax     = 20
)

type ListAttemptsOpts struct {
	CourseID  uuid.UUID // optional filter
	LearnerID uuid.UUID // optional filter; forced to the caller for learners
	Status    string    // optional: in_progress|passed|failed
	Limit     int
	Offset    int
}

// AttemptDigest is the latest-attempt view the catalog shows per section.
type AttemptDigest struct {
	Status       AttemptStatus
	ScorePercent int
	At           time.Time
}

type Store interface {
	// Question bank. SampleQuestions draws up to limit questions for the
	// (course, module, section) triple without replacement, in random
	// order, options and correctness included. Empty result means the
	// section has no authored questions.
	SampleQuestions(ctx context.Context, courseID uuid.UUID, module, section, limit int) ([]Question, error)
	ModuleNumbers(ctx context.Context, courseID uuid.UUID) ([]int, error)
	MaxSectionIndex(ctx context.Context, courseID uuid.UUID, module int) (int, error)
	SectionInfos(ctx context.Context, courseID uuid.UUID) ([]SectionInfo, error)

	// Attempts. PutAttempt stores a new in-progress attempt with its
	// frozen snapshot. FinishAttempt writes answers, score, status and
	// completion time; it is the attempt's single mutation.
	PutAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (Attempt, error)
	FinishAttempt(ctx context.Context, a Attempt) error
	LatestAttempts(ctx context.Context, learnerID, courseID uuid.UUID) (map[SectionKey]AttemptDigest, error)
	PassedSections(ctx context.Context, learnerID, courseID uuid.UUID) (map[SectionKey]bool, error)
	ListAttempts(ctx context.Context, opts ListAttemptsOpts) ([]AttemptSummary, error)

	// Module progress. EnsureProgress must behave as atomic get-or-create
	// under concurrent first access: insert, ignore conflict, then read,
	// so concurrent callers converge on one row and one unlock clock.
	GetProgress(ctx context.Context, learnerID, courseID uuid.UUID, module int) (ModuleProgress, bool, error)
	EnsureProgress(ctx context.Context, learnerID, courseID uuid.UUID, module int, unlockedAt, cooldownUntil time.Time) (ModuleProgress, error)
	// MarkPassed ORs quiz_passed to true and sets passed_at/completed_at
	// only if previously unset. It never un-passes a module.
	MarkPassed(ctx context.Context, learnerID, courseID uuid.UUID, module int, at time.Time) error

	// CourseWindow returns the course's cooldown window spec ("" if none).
	CourseWindow(ctx context.Context, courseID uuid.UUID) (string, error)
}
