// Package grade compares a response set against an answer key and produces
// an immutable per-question result with optional weighted scoring.
package grade

import (
	"fmt"

	"github.com/omrsim/omrsim/internal/model"
)

// KeyCardinalityError rejects a key that does not cover exactly the
// sheet's question count. Keys are never padded or truncated to fit.
type KeyCardinalityError struct {
	Expected int
	Actual   int
}

func (e *KeyCardinalityError) Error() string {
	return fmt.Sprintf("answer key must cover questions 1..%d exactly, got %d entries", e.Expected, e.Actual)
}

// ValidateKey checks that key covers questions 1..questionCount exactly.
// Callers must run this before Grade.
func ValidateKey(key model.AnswerKey, questionCount int) error {
	if len(key) != questionCount {
		return &KeyCardinalityError{Expected: questionCount, Actual: len(key)}
	}
	for q := 1; q <= questionCount; q++ {
		if _, ok := key[q]; !ok {
			return &KeyCardinalityError{Expected: questionCount, Actual: len(key)}
		}
	}
	return nil
}

// Grade walks questions 1..questionCount in order: no response is
// Unanswered, a response equal to the key entry is Correct, anything else
// Incorrect. The tallies feed the marking scheme. Grade assumes the key
// already passed ValidateKey.
func Grade(responses model.ResponseSet, key model.AnswerKey, scheme Scheme, questionCount int) model.GradeResult {
	result := model.GradeResult{
		PerQuestion: make([]model.QuestionVerdict, 0, questionCount),
	}
	for q := 1; q <= questionCount; q++ {
		row := model.QuestionVerdict{Question: q}
		if correct, ok := key[q]; ok {
			c := correct
			row.CorrectChoice = &c
		}
		user, answered := responses[q]
		switch {
		case !answered:
			row.Verdict = model.VerdictUnanswered
			result.Unanswered++
		case row.CorrectChoice != nil && user == *row.CorrectChoice:
			u := user
			row.UserChoice = &u
			row.Verdict = model.VerdictCorrect
			result.Correct++
		default:
			u := user
			row.UserChoice = &u
			row.Verdict = model.VerdictIncorrect
			result.Incorrect++
		}
		result.PerQuestion = append(result.PerQuestion, row)
	}
	if s := scheme.Score(result.Correct, result.Incorrect, questionCount); s != nil {
		total, max := s.Total, s.Max
		result.TotalScore = &total
		result.MaxScore = &max
	}
	return result
}
