package quiz_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/courseloop/courseloop-lms/internal/quiz"
)

/* ---------------- In-memory fake that satisfies quiz.Store ---------------- */

type progKey struct {
	learner uuid.UUID
	course  uuid.UUID
	module  int
}

type fakeStore struct {
	mu       sync.Mutex
	bank     []quiz.Question // the live question bank; tests mutate it freely
	attempts map[uuid.UUID]quiz.Attempt
	progress map[progKey]quiz.ModuleProgress
	windows  map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		attempts: map[uuid.UUID]quiz.Attempt{},
		progress: map[progKey]quiz.ModuleProgress{},
		windows:  map[uuid.UUID]string{},
	}
}

func copyQuestion(q quiz.Question) quiz.Question {
	q.Options = append([]quiz.Option(nil), q.Options...)
	return q
}

func (s *fakeStore) SampleQuestions(_ context.Context, courseID uuid.UUID, module, section, limit int) ([]quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = quiz.SampleLimitDefault
	}
	var out []quiz.Question
	for _, q := range s.bank {
		if q.CourseID == courseID && q.ModuleNumber == module && q.SectionIndex == section {
			out = append(out, copyQuestion(q))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ModuleNumbers(_ context.Context, courseID uuid.UUID) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int]bool{}
	for _, q := range s.bank {
		if q.CourseID == courseID {
			seen[q.ModuleNumber] = true
		}
	}
	var out []int
	for m := range seen {
		out = append(out, m)
	}
	sort.Ints(out)
	return out, nil
}

func (s *fakeStore) MaxSectionIndex(_ context.Context, courseID uuid.UUID, module int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := -1
	for _, q := range s.bank {
		if q.CourseID == courseID && q.ModuleNumber == module && q.SectionIndex > max {
			max = q.SectionIndex
		}
	}
	return max, nil
}

func (s *fakeStore) SectionInfos(_ context.Context, courseID uuid.UUID) ([]quiz.SectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[quiz.SectionKey]int{}
	for _, q := range s.bank {
		if q.CourseID == courseID {
			counts[quiz.SectionKey{ModuleNumber: q.ModuleNumber, SectionIndex: q.SectionIndex}]++
		}
	}
	var out []quiz.SectionInfo
	for key, n := range counts {
		out = append(out, quiz.SectionInfo{SectionKey: key, Position: key.SectionIndex, QuestionCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModuleNumber != out[j].ModuleNumber {
			return out[i].ModuleNumber < out[j].ModuleNumber
		}
		return out[i].SectionIndex < out[j].SectionIndex
	})
	return out, nil
}

func (s *fakeStore) PutAttempt(_ context.Context, a quiz.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Freeze the snapshot the way the SQL store's JSON column does.
	snap := make([]quiz.Question, len(a.Snapshot))
	for i, q := range a.Snapshot {
		snap[i] = copyQuestion(q)
	}
	a.Snapshot = snap
	s.attempts[a.ID] = a
	return nil
}

func (s *fakeStore) GetAttempt(_ context.Context, id uuid.UUID) (quiz.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return quiz.Attempt{}, quiz.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) FinishAttempt(_ context.Context, a quiz.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.attempts[a.ID]
	if !ok {
		return quiz.ErrNotFound
	}
	if cur.Status != quiz.AttemptInProgress {
		return quiz.ErrInvalidState
	}
	s.attempts[a.ID] = a
	return nil
}

func (s *fakeStore) LatestAttempts(_ context.Context, learnerID, courseID uuid.UUID) (map[quiz.SectionKey]quiz.AttemptDigest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latestAt := map[quiz.SectionKey]time.Time{}
	out := map[quiz.SectionKey]quiz.AttemptDigest{}
	for _, a := range s.attempts {
		if a.LearnerID != learnerID || a.CourseID != courseID {
			continue
		}
		key := quiz.SectionKey{ModuleNumber: a.ModuleNumber, SectionIndex: a.SectionIndex}
		if prev, ok := latestAt[key]; ok && a.CreatedAt.Before(prev) {
			continue
		}
		latestAt[key] = a.CreatedAt
		out[key] = quiz.AttemptDigest{
			Status:       a.Status,
			ScorePercent: quiz.ScorePercent(a.Score, a.Total),
			At:           a.CreatedAt,
		}
	}
	return out, nil
}

func (s *fakeStore) PassedSections(_ context.Context, learnerID, courseID uuid.UUID) (map[quiz.SectionKey]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[quiz.SectionKey]bool{}
	for _, a := range s.attempts {
		if a.LearnerID == learnerID && a.CourseID == courseID && a.Status == quiz.AttemptPassed {
			out[quiz.SectionKey{ModuleNumber: a.ModuleNumber, SectionIndex: a.SectionIndex}] = true
		}
	}
	return out, nil
}

func (s *fakeStore) ListAttempts(_ context.Context, opts quiz.ListAttemptsOpts) ([]quiz.AttemptSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []quiz.AttemptSummary
	for _, a := range s.attempts {
		if opts.CourseID != uuid.Nil && a.CourseID != opts.CourseID {
			continue
		}
		if opts.LearnerID != uuid.Nil && a.LearnerID != opts.LearnerID {
			continue
		}
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		out = append(out, quiz.AttemptSummary{
			ID: a.ID, LearnerID: a.LearnerID, CourseID: a.CourseID,
			ModuleNumber: a.ModuleNumber, SectionIndex: a.SectionIndex,
			Score: a.Score, Total: a.Total, Status: a.Status,
			CreatedAt: a.CreatedAt, CompletedAt: a.CompletedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) GetProgress(_ context.Context, learnerID, courseID uuid.UUID, module int) (quiz.ModuleProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progKey{learnerID, courseID, module}]
	return p, ok, nil
}

func (s *fakeStore) EnsureProgress(_ context.Context, learnerID, courseID uuid.UUID, module int, unlockedAt, cooldownUntil time.Time) (quiz.ModuleProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progKey{learnerID, courseID, module}
	if p, ok := s.progress[key]; ok {
		return p, nil // conflict-ignore: first writer wins
	}
	p := quiz.ModuleProgress{
		LearnerID:     learnerID,
		CourseID:      courseID,
		ModuleNumber:  module,
		UnlockedAt:    unlockedAt,
		CooldownUntil: cooldownUntil,
		UpdatedAt:     unlockedAt,
	}
	s.progress[key] = p
	return p, nil
}

func (s *fakeStore) MarkPassed(_ context.Context, learnerID, courseID uuid.UUID, module int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progKey{learnerID, courseID, module}
	p, ok := s.progress[key]
	if !ok {
		return nil
	}
	p.QuizPassed = true
	if p.PassedAt == nil {
		t := at
		p.PassedAt = &t
	}
	if p.CompletedAt == nil {
		t := at
		p.CompletedAt = &t
	}
	p.UpdatedAt = at
	s.progress[key] = p
	return nil
}

func (s *fakeStore) CourseWindow(_ context.Context, courseID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[courseID], nil
}

/* ---------------- seeding helpers ---------------- */

// seedSection authors n questions for the triple; the first option of
// each question is the correct one.
func (s *fakeStore) seedSection(courseID uuid.UUID, module, section, n int) []quiz.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []quiz.Question
	for i := 0; i < n; i++ {
		q := quiz.Question{
			ID:           uuid.New(),
			CourseID:     courseID,
			ModuleNumber: module,
			SectionIndex: section,
			Prompt:       "prompt",
			Position:     i,
			Options: []quiz.Option{
				{ID: uuid.New(), Label: "right", IsCorrect: true},
				{ID: uuid.New(), Label: "wrong"},
				{ID: uuid.New(), Label: "also wrong"},
			},
		}
		s.bank = append(s.bank, q)
		out = append(out, q)
	}
	return out
}

// correctOption returns the live bank's correct option id for a question.
func (s *fakeStore) correctOption(questionID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.bank {
		if q.ID == questionID {
			for _, o := range q.Options {
				if o.IsCorrect {
					return o.ID
				}
			}
		}
	}
	return uuid.Nil
}
