package grade

import "github.com/omrsim/omrsim/internal/model"

// Scheme is the configured marking scheme. A nil CorrectMarks means no
// scheme was supplied and grading reports raw counts only. WrongMarks is
// expected to already be a penalty (<= 0); normalizing a positive value is
// the sheet's job at configuration time, not the scorer's.
type Scheme struct {
	CorrectMarks *float64
	WrongMarks   *float64
}

// SchemeFromConfig builds a Scheme from a generated sheet's config.
func SchemeFromConfig(cfg model.SheetConfig) Scheme {
	return Scheme{CorrectMarks: cfg.CorrectMarks, WrongMarks: cfg.WrongMarks}
}

// ScoreSummary is the weighted score for a graded sheet.
type ScoreSummary struct {
	Total float64
	Max   float64
}

// Score computes the weighted score for the given tallies, or nil when the
// scheme is not configured.
func (s Scheme) Score(correct, incorrect, questionCount int) *ScoreSummary {
	if s.CorrectMarks == nil {
		return nil
	}
	wrong := 0.0
	if s.WrongMarks != nil {
		wrong = *s.WrongMarks
	}
	return &ScoreSummary{
		Total: float64(correct)*(*s.CorrectMarks) + float64(incorrect)*wrong,
		Max:   float64(questionCount) * *s.CorrectMarks,
	}
}
