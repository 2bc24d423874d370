package sheet

import (
	"errors"
	"fmt"

	"github.com/omrsim/omrsim/internal/model"
)

// ErrNoAnswerKey rejects a grade attempt on a sheet that never received a
// key. Finalize is the sanctioned key-less path.
var ErrNoAnswerKey = errors.New("no answer key submitted")

// ConfigInvalidError rejects a generate request whose question count falls
// outside the allowed range.
type ConfigInvalidError struct {
	Count int
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("question count must be between %d and %d, got %d",
		model.MinQuestions, model.MaxQuestions, e.Count)
}

// QuestionRangeError rejects a response aimed at a question the sheet does
// not have.
type QuestionRangeError struct {
	Question int
	Count    int
}

func (e *QuestionRangeError) Error() string {
	return fmt.Sprintf("question %d is outside the sheet's 1..%d range", e.Question, e.Count)
}

// PhaseError rejects an operation invoked in the wrong lifecycle phase.
// The prior state is always left intact.
type PhaseError struct {
	Op    string
	Phase model.Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("cannot %s while sheet is %s", e.Op, e.Phase)
}
