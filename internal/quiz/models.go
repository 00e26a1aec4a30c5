package quiz

import (
	"time"

	"github.com/google/uuid"
)

type Option struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	IsCorrect bool      `json:"is_correct,omitempty"`
}

type Question struct {
	ID           uuid.UUID `json:"id"`
	CourseID     uuid.UUID `json:"course_id"`
	ModuleNumber int       `json:"module_number"`
	SectionIndex int       `json:"section_index"`
	Prompt       string    `json:"prompt"`
	Position     int       `json:"position"`
	Options      []Option  `json:"options"`
}

// StripAnswers removes correctness flags before questions leave the
// trusted boundary. The originals are untouched.
func StripAnswers(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		q.Options = append([]Option(nil), q.Options...)
		for j := range q.Options {
			q.Options[j].IsCorrect = false
		}
		out[i] = q
	}
	return out
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptPassed     AttemptStatus = "passed"
	AttemptFailed     AttemptStatus = "failed"
)

// Attempt is one learner's instance of answering a sampled section.
// Snapshot is frozen at creation and is the only thing grading reads;
// later edits to the question bank never change an attempt's outcome.
type Attempt struct {
	ID           uuid.UUID               `json:"id"`
	LearnerID    uuid.UUID               `json:"learner_id"`
	CourseID     uuid.UUID               `json:"course_id"`
	ModuleNumber int                     `json:"module_number"`
	SectionIndex int                     `json:"section_index"`
	Snapshot     []Question              `json:"-"`
	Answers      map[uuid.UUID]uuid.UUID `json:"answers,omitempty"`
	Score        int                     `json:"score"`
	Total        int                     `json:"total"`
	Status       AttemptStatus           `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
}

// ModuleProgress is the durable unlock/pass state for one
// (learner, course, module). Created lazily the first time the module
// becomes reachable; never deleted; QuizPassed only ever flips to true.
type ModuleProgress struct {
	LearnerID     uuid.UUID
	CourseID      uuid.UUID
	ModuleNumber  int
	UnlockedAt    time.Time
	CooldownUntil time.Time
	QuizPassed    bool
	PassedAt      *time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

// ModuleState is the resolved, presentable view of one module.
type ModuleState struct {
	ModuleNumber     int        `json:"module_number"`
	Unlocked         bool       `json:"unlocked"`
	QuizPassed       bool       `json:"quiz_passed"`
	LockedByQuiz     bool       `json:"locked_by_quiz"`
	LockedByCooldown bool       `json:"locked_by_cooldown"`
	UnlockedAt       *time.Time `json:"unlocked_at,omitempty"`
	CooldownUntil    *time.Time `json:"cooldown_until,omitempty"`
	PassedAt         *time.Time `json:"passed_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// SectionKey identifies the smallest gated unit of quiz content.
type SectionKey struct {
	ModuleNumber int `json:"module_number"`
	SectionIndex int `json:"section_index"`
}

// SectionInfo is authoring-side metadata for one section: how many
// questions it has and how it is titled and ordered within its module.
type SectionInfo struct {
	SectionKey
	Title         string
	Position      int
	QuestionCount int
}

// SectionRow is one entry of the learner-facing section catalog.
type SectionRow struct {
	SectionKey
	Title         string         `json:"title"`
	QuestionCount int            `json:"question_count"`
	Unlocked      bool           `json:"unlocked"`
	Passed        bool           `json:"passed"`
	LatestStatus  AttemptStatus  `json:"latest_status,omitempty"`
	LatestPercent *int           `json:"latest_percent,omitempty"`
	LatestAt      *time.Time     `json:"latest_at,omitempty"`
	Module        ModuleState    `json:"module"`
}

// AttemptSummary is a digest row for attempt listings.
type AttemptSummary struct {
	ID           uuid.UUID     `json:"id"`
	LearnerID    uuid.UUID     `json:"learner_id"`
	CourseID     uuid.UUID     `json:"course_id"`
	ModuleNumber int           `json:"module_number"`
	SectionIndex int           `json:"section_index"`
	Score        int           `json:"score"`
	Total        int           `json:"total"`
	Status       AttemptStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}
