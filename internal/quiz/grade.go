package quiz

import (
	"math"

	"github.com/google/uuid"
)

// PassThreshold is the minimum score percent for a passing attempt.
const PassThreshold = 70

// QuestionResult is the per-question grading detail returned on submit.
type QuestionResult struct {
	QuestionID      uuid.UUID `json:"question_id"`
	ChosenOptionID  uuid.UUID `json:"chosen_option_id,omitempty"`
	CorrectOptionID uuid.UUID `json:"correct_option_id"`
	Correct         bool      `json:"correct"`
}

// gradeSnapshot grades submitted answers against the frozen snapshot
// only. Authoring enforces exactly one correct option per question, so
// the first flagged option is the answer key.
func gradeSnapshot(snapshot []Question, answers map[uuid.UUID]uuid.UUID) ([]QuestionResult, int) {
	results := make([]QuestionResult, 0, len(snapshot))
	correct := 0
	for _, q := range snapshot {
		r := QuestionResult{QuestionID: q.ID}
		for _, o := range q.Options {
			if o.IsCorrect {
				r.CorrectOptionID = o.ID
				break
			}
		}
		if chosen, ok := answers[q.ID]; ok {
			r.ChosenOptionID = chosen
			r.Correct = chosen != uuid.Nil && chosen == r.CorrectOptionID
		}
		if r.Correct {
			correct++
		}
		results = append(results, r)
	}
	return results, correct
}

// ScorePercent rounds 100*correct/total to the nearest integer.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
