package identity

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/courseloop/courseloop-lms/internal/quiz"
)

type OptionInput struct {
	Label     string `json:"label"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	ModuleNumber int           `json:"module_number"`
	SectionIndex int           `json:"section_index"`
	Prompt       string        `json:"prompt"`
	Position     int           `json:"position"`
	Options      []OptionInput `json:"options"`
}

type SectionInput struct {
	ModuleNumber int    `json:"module_number"`
	SectionIndex int    `json:"section_index"`
	Title        string `json:"title"`
	Position     int    `json:"position"`
}

// ValidateQuestion enforces the authoring invariants, in particular
// that exactly one option is flagged correct; grading relies on it.
func ValidateQuestion(in QuestionInput) error {
	if in.ModuleNumber < 1 {
		return quiz.Invalidf("module_number must be >= 1")
	}
	if in.SectionIndex < 0 {
		return quiz.Invalidf("section_index must be >= 0")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return quiz.Invalidf("prompt required")
	}
	if len(in.Options) < 2 {
		return quiz.Invalidf("question needs at least 2 options")
	}
	correct := 0
	for _, o := range in.Options {
		if strings.TrimSpace(o.Label) == "" {
			return quiz.Invalidf("option label required")
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return quiz.Invalidf("exactly one option must be correct, got %d", correct)
	}
	return nil
}

// Questions authors the question bank. Authoring is out-of-band from
// attempts: existing snapshots never see later edits.
type Questions struct {
	db *sql.DB
}

func NewQuestions(db *sql.DB) *Questions { return &Questions{db: db} }

// Author inserts a batch of questions with their options in one
// transaction. The whole batch is rejected if any question is invalid.
// Returns are named so the deferred commit error reaches the caller.
func (q *Questions) Author(ctx context.Context, courseID uuid.UUID, inputs []QuestionInput) (ids []uuid.UUID, err error) {
	if len(inputs) == 0 {
		return nil, quiz.Invalidf("no questions supplied")
	}
	for _, in := range inputs {
		if err := ValidateQuestion(in); err != nil {
			return nil, err
		}
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	ids = make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		qid := uuid.New()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (id, course_id, module_number, section_index, prompt, position)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			qid.String(), courseID.String(), in.ModuleNumber, in.SectionIndex, in.Prompt, in.Position)
		if err != nil {
			return nil, err
		}
		for _, o := range in.Options {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO options (id, question_id, label, is_correct)
				VALUES ($1,$2,$3,$4)`,
				uuid.New().String(), qid.String(), o.Label, o.IsCorrect)
			if err != nil {
				return nil, err
			}
		}
		ids = append(ids, qid)
	}
	return ids, nil
}

// UpsertSections writes section display metadata (title, order hint).
func (q *Questions) UpsertSections(ctx context.Context, courseID uuid.UUID, inputs []SectionInput) error {
	for _, in := range inputs {
		if in.ModuleNumber < 1 || in.SectionIndex < 0 {
			return quiz.Invalidf("bad section key %d/%d", in.ModuleNumber, in.SectionIndex)
		}
		if strings.TrimSpace(in.Title) == "" {
			return quiz.Invalidf("section title required")
		}
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO course_sections (course_id, module_number, section_index, title, position)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (course_id, module_number, section_index)
			DO UPDATE SET title=EXCLUDED.title, position=EXCLUDED.position`,
			courseID.String(), in.ModuleNumber, in.SectionIndex, in.Title, in.Position)
		if err != nil {
			return err
		}
	}
	return nil
}
