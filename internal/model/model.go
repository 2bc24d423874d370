package model

import "strings"

// Question count limits for a generated sheet.
const (
	MinQuestions = 1
	MaxQuestions = 200
)

// Choice is one of the four bubble positions on a sheet row.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// ParseChoice normalizes a raw token to a Choice. Lowercase letters are
// accepted; anything outside A-D is rejected.
func ParseChoice(s string) (Choice, bool) {
	switch Choice(strings.ToUpper(strings.TrimSpace(s))) {
	case ChoiceA:
		return ChoiceA, true
	case ChoiceB:
		return ChoiceB, true
	case ChoiceC:
		return ChoiceC, true
	case ChoiceD:
		return ChoiceD, true
	}
	return "", false
}

// SheetConfig holds the parameters a sheet was generated with.
// WrongMarks is stored as a penalty (<= 0) once the sheet is generated.
type SheetConfig struct {
	QuestionCount int      `json:"question_count"`
	CorrectMarks  *float64 `json:"correct_marks,omitempty"`
	WrongMarks    *float64 `json:"wrong_marks,omitempty"`
}

// AnswerKey maps a question number to its correct choice.
type AnswerKey map[int]Choice

// ResponseSet maps a question number to the bubble the user filled.
// A missing entry means the question is unanswered.
type ResponseSet map[int]Choice

// Phase is the lifecycle state of a sheet session.
type Phase string

const (
	PhaseEmpty          Phase = "empty"
	PhaseOpen           Phase = "open"
	PhaseGraded         Phase = "graded"
	PhaseLockedUngraded Phase = "locked_ungraded"
)

// Verdict is the grading outcome for a single question.
type Verdict string

const (
	VerdictCorrect    Verdict = "correct"
	VerdictIncorrect  Verdict = "incorrect"
	VerdictUnanswered Verdict = "unanswered"
)

// QuestionVerdict is one row of a grade result.
type QuestionVerdict struct {
	Question      int     `json:"question"`
	UserChoice    *Choice `json:"user_choice,omitempty"`
	CorrectChoice *Choice `json:"correct_choice,omitempty"`
	Verdict       Verdict `json:"verdict"`
}

// GradeResult is the outcome of grading a full sheet. Score fields are
// present only when a marking scheme was configured. The value is created
// once per grading pass and never modified afterwards.
type GradeResult struct {
	Correct     int               `json:"correct"`
	Incorrect   int               `json:"incorrect"`
	Unanswered  int               `json:"unanswered"`
	TotalScore  *float64          `json:"total_score,omitempty"`
	MaxScore    *float64          `json:"max_score,omitempty"`
	PerQuestion []QuestionVerdict `json:"per_question"`
}

// Clone returns an independent copy so callers cannot alias the
// session-owned result.
func (g *GradeResult) Clone() *GradeResult {
	if g == nil {
		return nil
	}
	out := *g
	out.PerQuestion = make([]QuestionVerdict, len(g.PerQuestion))
	copy(out.PerQuestion, g.PerQuestion)
	return &out
}
