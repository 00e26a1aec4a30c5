package quiz

import (
	"context"

	"github.com/google/uuid"
)

// ModuleSummary resolves every module that has questions in the course
// into an ordered, presentable list.
func (e *Engine) ModuleSummary(ctx context.Context, learnerID, courseID uuid.UUID) ([]ModuleState, error) {
	return e.resolveModules(ctx, learnerID, courseID)
}

// SectionCatalog composes module state and attempt history into the
// ordered view of every quiz section. Within an unlocked module a
// running gate starts at the module's unlocked flag and is ANDed with
// each section's pass, so section N+1 only unlocks once section N has
// a passing attempt.
func (e *Engine) SectionCatalog(ctx context.Context, learnerID, courseID uuid.UUID) ([]SectionRow, error) {
	infos, err := e.store.SectionInfos(ctx, courseID)
	if err != nil {
		return nil, err
	}
	states, err := e.resolveModules(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	byModule := make(map[int]ModuleState, len(states))
	for _, st := range states {
		byModule[st.ModuleNumber] = st
	}
	passed, err := e.store.PassedSections(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	latest, err := e.store.LatestAttempts(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}

	rows := make([]SectionRow, 0, len(infos))
	gate := false
	currentModule := -1
	for _, info := range infos {
		mod := byModule[info.ModuleNumber]
		if info.ModuleNumber != currentModule {
			currentModule = info.ModuleNumber
			gate = mod.Unlocked
		}

		row := SectionRow{
			SectionKey:    info.SectionKey,
			Title:         info.Title,
			QuestionCount: info.QuestionCount,
			Unlocked:      gate,
			Passed:        passed[info.SectionKey],
			Module:        mod,
		}
		if d, ok := latest[info.SectionKey]; ok {
			row.LatestStatus = d.Status
			pct := d.ScorePercent
			row.LatestPercent = &pct
			at := d.At
			row.LatestAt = &at
		}
		gate = gate && row.Passed
		rows = append(rows, row)
	}
	return rows, nil
}
