// ABOUTME: Pluggable scoring strategies for questionnaire submissions
// ABOUTME: Each strategy is a pure function from an answer set to an integer score

package engine

import (
	"encoding/json"
	"fmt"
)

// ScoreFunc is a pure scoring strategy over a decoded answer set.
type ScoreFunc func(answers map[string]int64) (int64, error)

// scorers maps questionnaire types to their strategy. Unknown types fall
// back to plain summation, which is what the generic instruments use.
var scorers = map[string]ScoreFunc{
	"sum":        SumScore,
	"sas":        boundedSum(1, 5),
	"nomophobia": boundedSum(1, 7),
}

// ScoreAnswers decodes a raw JSON answer set and applies the strategy for
// the questionnaire type. Malformed JSON or out-of-range answers are
// validation errors.
func ScoreAnswers(questionnaireType string, raw []byte) (int64, error) {
	var answers map[string]int64
	if err := json.Unmarshal(raw, &answers); err != nil {
		return 0, fmt.Errorf("%w: decoding answers: %v", ErrValidation, err)
	}
	if len(answers) == 0 {
		return 0, fmt.Errorf("%w: empty answer set", ErrValidation)
	}

	scorer, ok := scorers[questionnaireType]
	if !ok {
		scorer = SumScore
	}
	return scorer(answers)
}

// SumScore sums all answer values.
func SumScore(answers map[string]int64) (int64, error) {
	var total int64
	for _, v := range answers {
		total += v
	}
	return total, nil
}

// boundedSum sums answers, rejecting values outside [min, max]. Likert-style
// instruments have a fixed per-item range.
func boundedSum(min, max int64) ScoreFunc {
	return func(answers map[string]int64) (int64, error) {
		var total int64
		for item, v := range answers {
			if v < min || v > max {
				return 0, fmt.Errorf("%w: answer %q out of range [%d, %d]", ErrValidation, item, min, max)
			}
			total += v
		}
		return total, nil
	}
}
