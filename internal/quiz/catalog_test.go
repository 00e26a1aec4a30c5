package quiz_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courseloop/courseloop-lms/internal/quiz"
)

func passSection(t *testing.T, e *quiz.Engine, fs *fakeStore, learner, course uuid.UUID, module, section int) {
	t.Helper()
	started, err := e.StartAttempt(context.Background(), learner, course, module, section, 20)
	if err != nil {
		t.Fatal(err)
	}
	answers := answersFor(fs, attemptSnapshot(fs, started.AttemptID), len(started.Questions))
	if _, err := e.SubmitAttempt(context.Background(), started.AttemptID, quiz.Actor{LearnerID: learner}, answers); err != nil {
		t.Fatal(err)
	}
}

func failSection(t *testing.T, e *quiz.Engine, fs *fakeStore, learner, course uuid.UUID, module, section int) {
	t.Helper()
	started, err := e.StartAttempt(context.Background(), learner, course, module, section, 20)
	if err != nil {
		t.Fatal(err)
	}
	answers := answersFor(fs, attemptSnapshot(fs, started.AttemptID), 0)
	if _, err := e.SubmitAttempt(context.Background(), started.AttemptID, quiz.Actor{LearnerID: learner}, answers); err != nil {
		t.Fatal(err)
	}
}

func rowFor(t *testing.T, rows []quiz.SectionRow, module, section int) quiz.SectionRow {
	t.Helper()
	for _, r := range rows {
		if r.ModuleNumber == module && r.SectionIndex == section {
			return r
		}
	}
	t.Fatalf("no row for module %d section %d", module, section)
	return quiz.SectionRow{}
}

func TestCatalogSectionsUnlockInOrder(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(fs, &now)
	learner, course := uuid.New(), uuid.New()
	fs.seedSection(course, 1, 0, 2)
	fs.seedSection(course, 1, 1, 2)
	fs.seedSection(course, 1, 2, 2)

	rows, err := e.SectionCatalog(context.Background(), learner, course)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(rows))
	}
	if !rowFor(t, rows, 1, 0).Unlocked {
		t.Fatal("section 0 should open with its module")
	}
	if rowFor(t, rows, 1, 1).Unlocked || rowFor(t, rows, 1, 2).Unlocked {
		t.Fatal("later sections should wait on section 0")
	}

	passSection(t, e, fs, learner, course, 1, 0)
	rows, err = e.SectionCatalog(context.Background(), learner, course)
	if err != nil {
		t.Fatal(err)
	}
	if !rowFor(t, rows, 1, 0).Passed {
		t.Fatal("section 0 not marked passed")
	}
	if !rowFor(t, rows, 1, 1).Unlocked {
		t.Fatal("section 1 should open once section 0 passes")
	}
	if rowFor(t, rows, 1, 2).Unlocked {
		t.Fatal("section 2 should still wait on section 1")
	}
}

func TestCatalogFailedAttemptDoesNotUnlockNext(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(fs, &now)
	learner, course := uuid.New(), uuid.New()
	fs.seedSection(course, 1, 0, 4)
	fs.seedSection(course, 1, 1, 4)

	failSection(t, e, fs, learner, course, 1, 0)
	rows, err := e.SectionCatalog(context.Background(), learner, course)
	if err != nil {
		t.Fatal(err)
	}
	r0 := rowFor(t, rows, 1, 0)
	if r0.Passed {
		t.Fatal("failed section reported as passed")
	}
	if r0.LatestStatus != quiz.AttemptFailed {
		t.Fatalf("latest status = %q, want failed", r0.LatestStatus)
	}
	if r0.LatestPercent == nil || *r0.LatestPercent != 0 {
		t.Fatalf("latest percent = %v, want 0", r0.LatestPercent)
	}
	if rowFor(t, rows, 1, 1).Unlocked {
		t.Fatal("section 1 opened on a failed attempt")
	}
}

func TestCatalogLatestAttemptWinsOverEarlier(t *testing.T) {
	fs := newFakeStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := t0
	e := newTestEngine(fs, &now)
	learner, course := uuid.New(), uuid.New()
	fs.seedSection(course, 1, 0, 4)

	failSection(t, e, fs, learner, course, 1, 0)
	now = t0.Add(time.Hour)
	passSection(t, e, fs, learner, course, 1, 0)

	rows, err := e.SectionCatalog(context.Background(), learner, course)
	if err != nil {
		t.Fatal(err)
	}
	r := rowFor(t, rows, 1, 0)
	if r.LatestStatus != quiz.AttemptPassed {
		t.Fatalf("latest status = %q, want passed", r.LatestStatus)
	}
	if r.LatestPercent == nil || *r.LatestPercent != 100 {
		t.Fatalf("latest percent = %v, want 100", r.LatestPercent)
	}
	if !r.Passed {
		t.Fatal("any passing attempt should keep the section passed")
	}
}

func TestCatalogLockedModuleCarriesGateMetadata(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(fs, &now)
	learner, course := uuid.New(), uuid.New()
	fs.seedSection(course, 1, 0, 2)
	fs.seedSection(course, 2, 0, 2)

	rows, err := e.SectionCatalog(context.Background(), learner, course)
	if err != nil {
		t.Fatal(err)
	}
	r := rowFor(t, rows, 2, 0)
	if r.Unlocked {
		t.Fatal("section of a locked module must be locked")
	}
	if !r.Module.LockedByQuiz {
		t.Fatalf("row should carry the module gate: %+v", r.Module)
	}
}

func TestCatalogIsolatedPerLearner(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(fs, &now)
	a, b, course := uuid.New(), uuid.New(), uuid.New()
	fs.seedSection(course, 1, 0, 2)
	fs.seedSection(course, 1, 1, 2)

	passSection(t, e, fs, a, course, 1, 0)

	rows, err := e.SectionCatalog(context.Background(), b, course)
	if err != nil {
		t.Fatal(err)
	}
	if rowFor(t, rows, 1, 0).Passed || rowFor(t, rows, 1, 1).Unlocked {
		t.Fatal("learner b inherited learner a's progress")
	}
}
