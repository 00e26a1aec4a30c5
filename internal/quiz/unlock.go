package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// resolveModules walks the course's modules in ascending order and
// resolves each one to Unlocked, LockedByQuiz or LockedByCooldown,
// lazily materializing a progress row the first time a module becomes
// reachable. The first module has no predecessor gate. The cooldown on
// module N+1 runs from the moment module N unlocked, not from when its
// quiz was passed.
func (e *Engine) resolveModules(ctx context.Context, learnerID, courseID uuid.UUID) ([]ModuleState, error) {
	modules, err := e.store.ModuleNumbers(ctx, courseID)
	if err != nil {
		return nil, err
	}
	window, err := e.courseWindow(ctx, courseID)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()

	states := make([]ModuleState, 0, len(modules))
	var prev *ModuleProgress
	for i, m := range modules {
		row, exists, err := e.store.GetProgress(ctx, learnerID, courseID, m)
		if err != nil {
			return nil, err
		}

		st := ModuleState{ModuleNumber: m}
		canUnlock := true
		if i > 0 {
			prevPassed := prev != nil && prev.QuizPassed
			waitingOnQuiz := !prevPassed
			waitingOnCooldown := false
			if prevPassed {
				cooldownUntil := prev.UnlockedAt.Add(window)
				waitingOnCooldown = now.Before(cooldownUntil)
				if waitingOnCooldown {
					st.CooldownUntil = &cooldownUntil
				}
			}
			canUnlock = !waitingOnQuiz && !waitingOnCooldown
			st.LockedByQuiz = waitingOnQuiz
			st.LockedByCooldown = waitingOnCooldown
		}

		if canUnlock && !exists {
			row, err = e.store.EnsureProgress(ctx, learnerID, courseID, m, now, now.Add(window))
			if err != nil {
				return nil, err
			}
			exists = true
		}

		if exists {
			st.Unlocked = true
			st.LockedByQuiz = false
			st.LockedByCooldown = false
			st.CooldownUntil = nil
			st.QuizPassed = row.QuizPassed
			unlockedAt := row.UnlockedAt
			st.UnlockedAt = &unlockedAt
			st.PassedAt = row.PassedAt
			updatedAt := row.UpdatedAt
			st.UpdatedAt = &updatedAt
			rowCopy := row
			prev = &rowCopy
		} else {
			prev = nil
		}
		states = append(states, st)
	}
	return states, nil
}

// markModulePassed idempotently ensures the module's row exists, then
// applies the monotonic pass update.
func (e *Engine) markModulePassed(ctx context.Context, learnerID, courseID uuid.UUID, module int) error {
	now := e.now().UTC()
	window, err := e.courseWindow(ctx, courseID)
	if err != nil {
		return err
	}
	if _, exists, err := e.store.GetProgress(ctx, learnerID, courseID, module); err != nil {
		return err
	} else if !exists {
		if _, err := e.store.EnsureProgress(ctx, learnerID, courseID, module, now, now.Add(window)); err != nil {
			return err
		}
	}
	return e.store.MarkPassed(ctx, learnerID, courseID, module, now)
}

func (e *Engine) courseWindow(ctx context.Context, courseID uuid.UUID) (time.Duration, error) {
	spec, err := e.store.CourseWindow(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if spec == "" {
		return e.window, nil
	}
	return ParseWindow(spec), nil
}
