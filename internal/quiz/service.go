package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actor is the already-authenticated caller. SystemReviewer is the
// explicit capability that bypasses attempt ownership, replacing any
// magic-id comparison.
type Actor struct {
	LearnerID      uuid.UUID
	SystemReviewer bool
}

// Engine is the module/quiz progression engine. It is request-scoped
// and stateless between calls; all durable state lives in the store.
type Engine struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

type EngineOption func(*Engine)

// WithWindow overrides the default cooldown window (courses may still
// carry their own stored override).
func WithWindow(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithClock pins the engine clock; tests use this.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, window: DefaultWindow, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// StartedAttempt is what a learner gets back from StartAttempt: the
// attempt id plus the answer-stripped question set.
type StartedAttempt struct {
	AttemptID uuid.UUID  `json:"attempt_id"`
	Questions []Question `json:"questions"`
}

// StartAttempt samples the pool for the section, persists an attempt
// with the full snapshot, and ensures the module's progress row exists.
// Returns ErrNotFound if the section has no authored questions.
func (e *Engine) StartAttempt(ctx context.Context, learnerID, courseID uuid.UUID, module, section, limit int) (StartedAttempt, error) {
	if module < 1 {
		return StartedAttempt{}, Invalidf("module must be >= 1")
	}
	if section < 0 {
		return StartedAttempt{}, Invalidf("section must be >= 0")
	}
	if limit == 0 {
		limit = SampleLimitDefault
	}
	if limit < 0 || limit > SampleLimitMax {
		return StartedAttempt{}, Invalidf("limit must be between 1 and %d", SampleLimitMax)
	}

	qs, err := e.store.SampleQuestions(ctx, courseID, module, section, limit)
	if err != nil {
		return StartedAttempt{}, err
	}
	if len(qs) == 0 {
		return StartedAttempt{}, ErrNotFound
	}

	a := Attempt{
		ID:           uuid.New(),
		LearnerID:    learnerID,
		CourseID:     courseID,
		ModuleNumber: module,
		SectionIndex: section,
		Snapshot:     qs,
		Total:        len(qs),
		Status:       AttemptInProgress,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.store.PutAttempt(ctx, a); err != nil {
		return StartedAttempt{}, err
	}

	// Materialize progress rows for every reachable module, this one
	// included. Does not mark anything passed.
	if _, err := e.resolveModules(ctx, learnerID, courseID); err != nil {
		return StartedAttempt{}, err
	}

	return StartedAttempt{AttemptID: a.ID, Questions: StripAnswers(qs)}, nil
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID uuid.UUID `json:"question_id"`
	OptionID   uuid.UUID `json:"option_id"`
}

// SubmitResult is the grading detail plus the refreshed module summary.
type SubmitResult struct {
	AttemptID    uuid.UUID        `json:"attempt_id"`
	Score        int              `json:"score"`
	Total        int              `json:"total"`
	ScorePercent int              `json:"score_percent"`
	Passed       bool             `json:"passed"`
	Results      []QuestionResult `json:"results"`
	Modules      []ModuleState    `json:"modules"`
}

// SubmitAttempt grades the attempt against its frozen snapshot and
// finalizes it. Attempts are submit-once: a second submit fails with
// ErrInvalidState.
func (e *Engine) SubmitAttempt(ctx context.Context, attemptID uuid.UUID, actor Actor, answers []AnswerInput) (SubmitResult, error) {
	a, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	if a.LearnerID != actor.LearnerID && !actor.SystemReviewer {
		return SubmitResult{}, ErrForbidden
	}
	if a.Status != AttemptInProgress {
		return SubmitResult{}, ErrInvalidState
	}
	if len(a.Snapshot) == 0 {
		return SubmitResult{}, ErrInvalidState
	}

	// A payload missing its question id is a malformed answer, not a
	// shape error: the attempt exists, the submission cannot be graded.
	chosen := make(map[uuid.UUID]uuid.UUID, len(answers))
	for _, in := range answers {
		if in.QuestionID == uuid.Nil {
			return SubmitResult{}, ErrInvalidState
		}
		chosen[in.QuestionID] = in.OptionID
	}

	results, correct := gradeSnapshot(a.Snapshot, chosen)
	percent := ScorePercent(correct, len(a.Snapshot))
	passed := percent >= PassThreshold

	now := e.now().UTC()
	a.Answers = chosen
	a.Score = correct
	a.Total = len(a.Snapshot)
	a.CompletedAt = &now
	if passed {
		a.Status = AttemptPassed
	} else {
		a.Status = AttemptFailed
	}
	if err := e.store.FinishAttempt(ctx, a); err != nil {
		return SubmitResult{}, err
	}

	if passed {
		last, err := e.store.MaxSectionIndex(ctx, a.CourseID, a.ModuleNumber)
		if err != nil {
			return SubmitResult{}, err
		}
		if a.SectionIndex == last {
			if err := e.markModulePassed(ctx, a.LearnerID, a.CourseID, a.ModuleNumber); err != nil {
				return SubmitResult{}, err
			}
		}
	}

	modules, err := e.ModuleSummary(ctx, a.LearnerID, a.CourseID)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{
		AttemptID:    a.ID,
		Score:        correct,
		Total:        len(a.Snapshot),
		ScorePercent: percent,
		Passed:       passed,
		Results:      results,
		Modules:      modules,
	}, nil
}

// GetAttempt returns an attempt visible to the actor.
func (e *Engine) GetAttempt(ctx context.Context, attemptID uuid.UUID, actor Actor) (Attempt, error) {
	a, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.LearnerID != actor.LearnerID && !actor.SystemReviewer {
		return Attempt{}, ErrForbidden
	}
	return a, nil
}
