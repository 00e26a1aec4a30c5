package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SQLStore implements Store over database/sql. Placeholders are $N,
// which both the pgx stdlib driver and modernc sqlite accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) SampleQuestions(ctx context.Context, courseID uuid.UUID, module, section, limit int) ([]Question, error) {
	if limit <= 0 {
		limit = SampleLimitDefault
	}
	if limit > SampleLimitMax {
		limit = SampleLimitMax
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt, position
		  FROM questions
		 WHERE course_id=$1 AND module_number=$2 AND section_index=$3
		 ORDER BY random()
		 LIMIT $4`, courseID.String(), module, section, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q := Question{CourseID: courseID, ModuleNumber: module, SectionIndex: section}
		var id string
		if err := rows.Scan(&id, &q.Prompt, &q.Position); err != nil {
			return nil, err
		}
		if q.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		opts, err := s.questionOptions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Options = opts
	}
	return out, nil
}

func (s *SQLStore) questionOptions(ctx context.Context, questionID uuid.UUID) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, is_correct FROM options WHERE question_id=$1 ORDER BY id`,
		questionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		var o Option
		var id string
		if err := rows.Scan(&id, &o.Label, &o.IsCorrect); err != nil {
			return nil, err
		}
		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) ModuleNumbers(ctx context.Context, courseID uuid.UUID) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT module_number FROM questions WHERE course_id=$1 ORDER BY module_number`,
		courseID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) MaxSectionIndex(ctx context.Context, courseID uuid.UUID, module int) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(section_index), -1) FROM questions WHERE course_id=$1 AND module_number=$2`,
		courseID.String(), module).Scan(&max)
	return max, err
}

func (s *SQLStore) SectionInfos(ctx context.Context, courseID uuid.UUID) ([]SectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.module_number, q.section_index, COUNT(*),
		       COALESCE(cs.title, ''), COALESCE(cs.position, q.section_index)
		  FROM questions q
		  LEFT JOIN course_sections cs
		    ON cs.course_id=q.course_id AND cs.module_number=q.module_number AND cs.section_index=q.section_index
		 WHERE q.course_id=$1
		 GROUP BY q.module_number, q.section_index, cs.title, cs.position
		 ORDER BY q.module_number, COALESCE(cs.position, q.section_index), q.section_index`,
		courseID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SectionInfo
	for rows.Next() {
		var info SectionInfo
		if err := rows.Scan(&info.ModuleNumber, &info.SectionIndex, &info.QuestionCount, &info.Title, &info.Position); err != nil {
			return nil, err
		}
		if info.Title == "" {
			info.Title = "Section " + strconv.Itoa(info.SectionIndex+1)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	snap, err := json.Marshal(a.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, learner_id, course_id, module_number, section_index,
		                      snapshot_json, answers_json, score, total, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,'{}',0,$7,$8,$9)`,
		a.ID.String(), a.LearnerID.String(), a.CourseID.String(), a.ModuleNumber, a.SectionIndex,
		string(snap), a.Total, string(a.Status), a.CreatedAt.Unix())
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id uuid.UUID) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, learner_id, course_id, module_number, section_index,
		       snapshot_json, answers_json, score, total, status, created_at, completed_at
		  FROM attempts WHERE id=$1`, id.String())

	var a Attempt
	var aid, lid, cid, snap, answers, status string
	var createdAt int64
	var completedAt sql.NullInt64
	err := row.Scan(&aid, &lid, &cid, &a.ModuleNumber, &a.SectionIndex,
		&snap, &answers, &a.Score, &a.Total, &status, &createdAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	if a.ID, err = uuid.Parse(aid); err != nil {
		return Attempt{}, err
	}
	if a.LearnerID, err = uuid.Parse(lid); err != nil {
		return Attempt{}, err
	}
	if a.CourseID, err = uuid.Parse(cid); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(snap), &a.Snapshot); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s: bad snapshot: %w", aid, err)
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		a.Answers = map[uuid.UUID]uuid.UUID{}
	}
	a.Status = AttemptStatus(status)
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		a.CompletedAt = &t
	}
	return a, nil
}

// FinishAttempt is the attempt's single mutation. The status guard in
// the WHERE clause makes the terminal transition one-way even under
// concurrent submits.
func (s *SQLStore) FinishAttempt(ctx context.Context, a Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	var completedAt any
	if a.CompletedAt != nil {
		completedAt = a.CompletedAt.Unix()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE attempts
		   SET answers_json=$1, score=$2, total=$3, status=$4, completed_at=$5
		 WHERE id=$6 AND status=$7`,
		string(answers), a.Score, a.Total, string(a.Status), completedAt,
		a.ID.String(), string(AttemptInProgress))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrInvalidState
	}
	return nil
}

func (s *SQLStore) LatestAttempts(ctx context.Context, learnerID, courseID uuid.UUID) (map[SectionKey]AttemptDigest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module_number, section_index, status, score, total, created_at
		  FROM attempts
		 WHERE learner_id=$1 AND course_id=$2
		 ORDER BY created_at ASC, id ASC`,
		learnerID.String(), courseID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[SectionKey]AttemptDigest{}
	for rows.Next() {
		var key SectionKey
		var status string
		var score, total int
		var createdAt int64
		if err := rows.Scan(&key.ModuleNumber, &key.SectionIndex, &status, &score, &total, &createdAt); err != nil {
			return nil, err
		}
		out[key] = AttemptDigest{
			Status:       AttemptStatus(status),
			ScorePercent: ScorePercent(score, total),
			At:           time.Unix(createdAt, 0).UTC(),
		}
	}
	return out, rows.Err()
}

func (s *SQLStore) PassedSections(ctx context.Context, learnerID, courseID uuid.UUID) (map[SectionKey]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT module_number, section_index
		  FROM attempts
		 WHERE learner_id=$1 AND course_id=$2 AND status=$3`,
		learnerID.String(), courseID.String(), string(AttemptPassed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[SectionKey]bool{}
	for rows.Next() {
		var key SectionKey
		if err := rows.Scan(&key.ModuleNumber, &key.SectionIndex); err != nil {
			return nil, err
		}
		out[key] = true
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts ListAttemptsOpts) ([]AttemptSummary, error) {
	sqlStr := `
		SELECT id, learner_id, course_id, module_number, section_index,
		       score, total, status, created_at, completed_at
		  FROM attempts WHERE 1=1`
	var args []any
	if opts.CourseID != uuid.Nil {
		args = append(args, opts.CourseID.String())
		sqlStr += ` AND course_id=$` + strconv.Itoa(len(args))
	}
	if opts.LearnerID != uuid.Nil {
		args = append(args, opts.LearnerID.String())
		sqlStr += ` AND learner_id=$` + strconv.Itoa(len(args))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		sqlStr += ` AND status=$` + strconv.Itoa(len(args))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	sqlStr += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AttemptSummary{}
	for rows.Next() {
		var a AttemptSummary
		var aid, lid, cid, status string
		var createdAt int64
		var completedAt sql.NullInt64
		if err := rows.Scan(&aid, &lid, &cid, &a.ModuleNumber, &a.SectionIndex,
			&a.Score, &a.Total, &status, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		if a.ID, err = uuid.Parse(aid); err != nil {
			return nil, err
		}
		if a.LearnerID, err = uuid.Parse(lid); err != nil {
			return nil, err
		}
		if a.CourseID, err = uuid.Parse(cid); err != nil {
			return nil, err
		}
		a.Status = AttemptStatus(status)
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		if completedAt.Valid {
			t := time.Unix(completedAt.Int64, 0).UTC()
			a.CompletedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetProgress(ctx context.Context, learnerID, courseID uuid.UUID, module int) (ModuleProgress, bool, error) {
	p, err := s.scanProgress(s.db.QueryRowContext(ctx, `
		SELECT learner_id, course_id, module_number, unlocked_at, cooldown_until,
		       quiz_passed, passed_at, completed_at, updated_at
		  FROM module_progress
		 WHERE learner_id=$1 AND course_id=$2 AND module_number=$3`,
		learnerID.String(), courseID.String(), module))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ModuleProgress{}, false, nil
		}
		return ModuleProgress{}, false, err
	}
	return p, true, nil
}

// EnsureProgress is the concurrency-critical get-or-create: insert with
// conflict-ignore, then read back, so concurrent first-touch requests
// converge on a single row and a single unlock clock.
func (s *SQLStore) EnsureProgress(ctx context.Context, learnerID, courseID uuid.UUID, module int, unlockedAt, cooldownUntil time.Time) (ModuleProgress, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO module_progress (learner_id, course_id, module_number,
		                             unlocked_at, cooldown_until, quiz_passed, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (learner_id, course_id, module_number) DO NOTHING`,
		learnerID.String(), courseID.String(), module,
		unlockedAt.Unix(), cooldownUntil.Unix(), false, unlockedAt.Unix())
	if err != nil {
		return ModuleProgress{}, err
	}
	p, exists, err := s.GetProgress(ctx, learnerID, courseID, module)
	if err != nil {
		return ModuleProgress{}, err
	}
	if !exists {
		return ModuleProgress{}, errors.New("module_progress row missing after ensure")
	}
	return p, nil
}

func (s *SQLStore) MarkPassed(ctx context.Context, learnerID, courseID uuid.UUID, module int, at time.Time) error {
	// quiz_passed OR $4 keeps the flag monotonic under concurrent
	// submissions; passed_at/completed_at stick to their first value.
	_, err := s.db.ExecContext(ctx, `
		UPDATE module_progress
		   SET quiz_passed   = quiz_passed OR $4,
		       passed_at     = COALESCE(passed_at, $5),
		       completed_at  = COALESCE(completed_at, $5),
		       updated_at    = $5
		 WHERE learner_id=$1 AND course_id=$2 AND module_number=$3`,
		learnerID.String(), courseID.String(), module, true, at.Unix())
	return err
}

func (s *SQLStore) CourseWindow(ctx context.Context, courseID uuid.UUID) (string, error) {
	var spec sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT cooldown_window FROM courses WHERE id=$1`, courseID.String()).Scan(&spec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return spec.String, nil
}

func (s *SQLStore) scanProgress(row *sql.Row) (ModuleProgress, error) {
	var p ModuleProgress
	var lid, cid string
	var unlockedAt, cooldownUntil, updatedAt int64
	var passedAt, completedAt sql.NullInt64
	err := row.Scan(&lid, &cid, &p.ModuleNumber, &unlockedAt, &cooldownUntil,
		&p.QuizPassed, &passedAt, &completedAt, &updatedAt)
	if err != nil {
		return ModuleProgress{}, err
	}
	if p.LearnerID, err = uuid.Parse(lid); err != nil {
		return ModuleProgress{}, err
	}
	if p.CourseID, err = uuid.Parse(cid); err != nil {
		return ModuleProgress{}, err
	}
	p.UnlockedAt = time.Unix(unlockedAt, 0).UTC()
	p.CooldownUntil = time.Unix(cooldownUntil, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if passedAt.Valid {
		t := time.Unix(passedAt.Int64, 0).UTC()
		p.PassedAt = &t
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		p.CompletedAt = &t
	}
	return p, nil
}
