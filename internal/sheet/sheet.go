// Package sheet owns the lifecycle of one simulated bubble sheet:
// empty -> open -> graded (or locked without grading) -> back to empty on
// reset. All transitions are synchronous and serialized per session; a
// rejected transition leaves the previous state untouched.
package sheet

import (
	"sync"

	"github.com/omrsim/omrsim/internal/grade"
	"github.com/omrsim/omrsim/internal/model"
	"github.com/omrsim/omrsim/internal/timer"
)

// Session is a single sheet session. It exclusively owns its answer key,
// response set and grade result; snapshots handed out are copies.
type Session struct {
	mu        sync.Mutex
	id        string
	phase     model.Phase
	config    model.SheetConfig
	responses model.ResponseSet
	key       model.AnswerKey
	result    *model.GradeResult
	clock     timer.Timer
}

// New returns an empty session.
func New(id string) *Session {
	return &Session{id: id, phase: model.PhaseEmpty}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Generate opens a fresh sheet with the given configuration and starts the
// session timer. The question count is immutable afterwards; generating
// again requires a reset first. A positive wrong-marks value is normalized
// to its negative here, at configuration time.
func (s *Session) Generate(cfg model.SheetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseEmpty {
		return &PhaseError{Op: "generate", Phase: s.phase}
	}
	if cfg.QuestionCount < model.MinQuestions || cfg.QuestionCount > model.MaxQuestions {
		return &ConfigInvalidError{Count: cfg.QuestionCount}
	}

	stored := model.SheetConfig{QuestionCount: cfg.QuestionCount}
	if cfg.CorrectMarks != nil {
		v := *cfg.CorrectMarks
		stored.CorrectMarks = &v
	}
	if cfg.WrongMarks != nil {
		v := *cfg.WrongMarks
		if v > 0 {
			v = -v
		}
		stored.WrongMarks = &v
	}

	s.config = stored
	s.responses = make(model.ResponseSet, cfg.QuestionCount)
	s.key = nil
	s.result = nil
	s.phase = model.PhaseOpen
	s.clock.Start()
	return nil
}

// Respond records the user's bubble for a question. Passing an empty
// choice is handled by ClearResponse, not here.
func (s *Session) Respond(question int, choice model.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseOpen {
		return &PhaseError{Op: "respond", Phase: s.phase}
	}
	if question < 1 || question > s.config.QuestionCount {
		return &QuestionRangeError{Question: question, Count: s.config.QuestionCount}
	}
	s.responses[question] = choice
	return nil
}

// ClearResponse erases the bubble for a question, returning it to
// unanswered.
func (s *Session) ClearResponse(question int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseOpen {
		return &PhaseError{Op: "respond", Phase: s.phase}
	}
	if question < 1 || question > s.config.QuestionCount {
		return &QuestionRangeError{Question: question, Count: s.config.QuestionCount}
	}
	delete(s.responses, question)
	return nil
}

// SubmitKey attaches an answer key to the open sheet. The key must cover
// exactly the sheet's question count; a mismatched key is rejected whole,
// never padded or truncated. Submitting again replaces the previous key.
func (s *Session) SubmitKey(key model.AnswerKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseOpen {
		return &PhaseError{Op: "submit key", Phase: s.phase}
	}
	if err := grade.ValidateKey(key, s.config.QuestionCount); err != nil {
		return err
	}
	owned := make(model.AnswerKey, len(key))
	for q, c := range key {
		owned[q] = c
	}
	s.key = owned
	return nil
}

// Grade compares responses against the submitted key, freezes the sheet
// and stops the timer. Graded is terminal; grading twice is rejected, so
// the result attached here is never recomputed.
func (s *Session) Grade() (*model.GradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseOpen {
		return nil, &PhaseError{Op: "grade", Phase: s.phase}
	}
	if s.key == nil {
		return nil, ErrNoAnswerKey
	}

	result := grade.Grade(s.responses, s.key, grade.SchemeFromConfig(s.config), s.config.QuestionCount)
	s.result = &result
	s.phase = model.PhaseGraded
	s.clock.Stop()
	return result.Clone(), nil
}

// Finalize locks the sheet without grading: responses freeze and the timer
// stops, but no result is produced. This is the user-confirmed "no key"
// path, terminal like Graded.
func (s *Session) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseOpen {
		return &PhaseError{Op: "finalize", Phase: s.phase}
	}
	s.phase = model.PhaseLockedUngraded
	s.clock.Stop()
	return nil
}

// Reset returns the session to empty from any phase, discarding responses,
// key, result and timer in one step. It never fails.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = model.PhaseEmpty
	s.config = model.SheetConfig{}
	s.responses = nil
	s.key = nil
	s.result = nil
	s.clock.Reset()
}

// View returns a read-only snapshot of the sheet for renderers.
func (s *Session) View() model.SheetView {
	s.mu.Lock()
	defer s.mu.Unlock()

	responses := make(model.ResponseSet, len(s.responses))
	for q, c := range s.responses {
		responses[q] = c
	}
	return model.SheetView{
		SessionID:    s.id,
		Phase:        s.phase,
		Config:       s.config,
		Responses:    responses,
		KeySubmitted: s.key != nil,
		ElapsedMS:    s.clock.Elapsed().Milliseconds(),
	}
}

// Report assembles the renderer-agnostic session report: config snapshot
// and timing always, the grade result only when the sheet was graded. It
// never mutates the session.
func (s *Session) Report() model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.Report{
		SessionID: s.id,
		Phase:     s.phase,
		Config:    s.config,
		ElapsedMS: s.clock.Elapsed().Milliseconds(),
		Graded:    s.phase == model.PhaseGraded,
		Result:    s.result.Clone(),
	}
}
