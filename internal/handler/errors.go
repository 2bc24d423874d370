package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omrsim/omrsim/internal/answerkey"
	"github.com/omrsim/omrsim/internal/decode"
	"github.com/omrsim/omrsim/internal/grade"
	"github.com/omrsim/omrsim/internal/i18n"
	"github.com/omrsim/omrsim/internal/model"
	"github.com/omrsim/omrsim/internal/sheet"
	"github.com/omrsim/omrsim/internal/store"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message, Details: details}})
}

// writeError maps the core error taxonomy onto HTTP statuses and localized
// messages. Every branch reports the violated constraint plus the counts
// involved; nothing here is fatal to the session.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		configErr *sheet.ConfigInvalidError
		rangeErr  *sheet.QuestionRangeError
		phaseErr  *sheet.PhaseError
		lengthErr *answerkey.LengthMismatchError
		cardErr   *grade.KeyCardinalityError
		decodeErr *decode.FailureError
	)

	switch {
	case errors.As(err, &configErr):
		writeErrorMessage(w, http.StatusBadRequest, "config_invalid",
			i18n.Td(ctx, "ErrConfigInvalid", map[string]any{
				"Min": model.MinQuestions, "Max": model.MaxQuestions, "Count": configErr.Count,
			}),
			map[string]any{"count": configErr.Count})

	case errors.As(err, &rangeErr):
		writeErrorMessage(w, http.StatusBadRequest, "question_out_of_range",
			i18n.Td(ctx, "ErrQuestionRange", map[string]any{
				"Question": rangeErr.Question, "Count": rangeErr.Count,
			}),
			map[string]any{"question": rangeErr.Question, "question_count": rangeErr.Count})

	case errors.As(err, &phaseErr):
		writeErrorMessage(w, http.StatusConflict, "wrong_phase",
			i18n.Td(ctx, "ErrWrongPhase", map[string]any{"Phase": string(phaseErr.Phase)}),
			map[string]any{"phase": string(phaseErr.Phase), "op": phaseErr.Op})

	case errors.As(err, &lengthErr):
		writeErrorMessage(w, http.StatusBadRequest, "length_mismatch",
			i18n.Td(ctx, "ErrLengthMismatch", map[string]any{
				"Expected": lengthErr.Expected, "Actual": lengthErr.Actual,
			}),
			map[string]any{"expected": lengthErr.Expected, "actual": lengthErr.Actual})

	case errors.As(err, &cardErr):
		writeErrorMessage(w, http.StatusBadRequest, "key_cardinality_mismatch",
			i18n.Td(ctx, "ErrKeyCardinality", map[string]any{
				"Expected": cardErr.Expected, "Actual": cardErr.Actual,
			}),
			map[string]any{"expected": cardErr.Expected, "actual": cardErr.Actual})

	case errors.Is(err, answerkey.ErrNoValidEntries):
		writeErrorMessage(w, http.StatusBadRequest, "no_valid_entries",
			i18n.T(ctx, "ErrNoValidEntries"), nil)

	case errors.As(err, &decodeErr):
		// Surfaced as-is: the decoder's reason is opaque to the core.
		writeErrorMessage(w, http.StatusBadRequest, "decode_failure",
			i18n.T(ctx, "ErrDecodeFailure"),
			map[string]any{"detail": decodeErr.Error()})

	case errors.Is(err, sheet.ErrNoAnswerKey):
		writeErrorMessage(w, http.StatusConflict, "no_answer_key",
			i18n.T(ctx, "ErrNoAnswerKey"), nil)

	case errors.Is(err, store.ErrSessionNotFound):
		writeErrorMessage(w, http.StatusNotFound, "session_not_found",
			i18n.T(ctx, "ErrSessionNotFound"), nil)

	default:
		slog.Error("unhandled error", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}
