// Package handler is the thin event-dispatch shim between HTTP and the
// sheet state machine. It decodes requests, invokes one transition, and
// writes the resulting snapshot or error; it never computes grades or
// parses keys beyond dispatching to the core packages.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omrsim/omrsim/internal/answerkey"
	"github.com/omrsim/omrsim/internal/decode"
	"github.com/omrsim/omrsim/internal/i18n"
	"github.com/omrsim/omrsim/internal/model"
	"github.com/omrsim/omrsim/internal/sheet"
	"github.com/omrsim/omrsim/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSheet)
			r.Delete("/", h.handleDeleteSession)
			r.Post("/generate", h.handleGenerate)
			r.Post("/responses", h.handleRespond)
			r.Post("/key", h.handleSubmitKey)
			r.Post("/key/upload", h.handleUploadKey)
			r.Post("/grade", h.handleGrade)
			r.Post("/finalize", h.handleFinalize)
			r.Post("/reset", h.handleReset)
			r.Get("/report", h.handleReport)
		})
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*sheet.Session, bool) {
	sess, err := h.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	writeJSON(w, http.StatusCreated, sess.View())
}

func (h *Handler) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	QuestionCount int      `json:"question_count"`
	CorrectMarks  *float64 `json:"correct_marks"`
	WrongMarks    *float64 `json:"wrong_marks"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg := model.SheetConfig{
		QuestionCount: req.QuestionCount,
		CorrectMarks:  req.CorrectMarks,
		WrongMarks:    req.WrongMarks,
	}
	if cfg.QuestionCount == 0 {
		cfg.QuestionCount = h.config.DefaultQuestionCount
	}
	if cfg.CorrectMarks == nil {
		cfg.CorrectMarks = h.config.DefaultCorrectMarks
	}
	if cfg.WrongMarks == nil {
		cfg.WrongMarks = h.config.DefaultWrongMarks
	}

	if err := sess.Generate(cfg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

type respondRequest struct {
	Question int    `json:"question"`
	Choice   string `json:"choice"`
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req respondRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// An empty choice erases the bubble.
	if req.Choice == "" {
		if err := sess.ClearResponse(req.Question); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.View())
		return
	}

	choice, valid := model.ParseChoice(req.Choice)
	if !valid {
		writeErrorMessage(w, http.StatusBadRequest, "invalid_choice", i18n.T(r.Context(), "ErrInvalidChoice"), nil)
		return
	}
	if err := sess.Respond(req.Question, choice); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

type keyRequest struct {
	Key string `json:"key"`
}

type keyResponse struct {
	Accepted int    `json:"accepted"`
	Message  string `json:"message"`
}

func (h *Handler) handleSubmitKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view := sess.View()
	if view.Phase != model.PhaseOpen {
		writeError(w, r, &sheet.PhaseError{Op: "submit key", Phase: view.Phase})
		return
	}
	key, err := answerkey.ParseString(req.Key, view.Config.QuestionCount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.SubmitKey(key); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keyResponse{
		Accepted: len(key),
		Message:  i18n.Tp(r.Context(), "KeyEntriesAccepted", len(key)),
	})
}

func (h *Handler) handleUploadKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	file, header, err := r.FormFile("key")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "decode_failure", i18n.T(r.Context(), "ErrDecodeFailure"), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, &decode.FailureError{Source: header.Filename, Err: err})
		return
	}

	decoded, err := decode.KeySource(header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		key      model.AnswerKey
		accepted int
	)
	if decoded.Rows != nil {
		key, accepted, err = answerkey.ParseRows(decoded.Rows)
	} else {
		key, accepted, err = answerkey.ParseText(decoded.Text)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := sess.SubmitKey(key); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keyResponse{
		Accepted: accepted,
		Message:  i18n.Tp(r.Context(), "KeyEntriesAccepted", accepted),
	})
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	result, err := sess.Grade()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Finalize(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Report())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return false
	}
	return true
}
