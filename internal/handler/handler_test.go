package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/omrsim/omrsim/internal/i18n"
	"github.com/omrsim/omrsim/internal/model"
	"github.com/omrsim/omrsim/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	h := New(store.New(), model.ServerConfig{
		DefaultQuestionCount: 10,
		MaxUploadBytes:       1 << 20,
	})
	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var view model.SheetView
	decodeInto(t, resp, &view)
	if view.SessionID == "" {
		t.Fatal("empty session ID")
	}
	return view.SessionID
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeInto(t, resp, &body)
	if body.Error.Message == "" {
		t.Error("error response carries no message")
	}
	return body.Error.Code
}

func TestFullGradingFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp := doJSON(t, http.MethodPost, base+"/generate", map[string]any{
		"question_count": 3, "correct_marks": 2, "wrong_marks": 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status %d", resp.StatusCode)
	}
	var view model.SheetView
	decodeInto(t, resp, &view)
	if view.Phase != model.PhaseOpen {
		t.Fatalf("phase = %q, want open", view.Phase)
	}
	if view.Config.WrongMarks == nil || *view.Config.WrongMarks != -1 {
		t.Errorf("wrong marks = %v, want normalized -1", view.Config.WrongMarks)
	}

	for _, r := range []map[string]any{
		{"question": 1, "choice": "A"},
		{"question": 2, "choice": "c"},
	} {
		resp = doJSON(t, http.MethodPost, base+"/responses", r)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("respond %v: status %d", r, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp = doJSON(t, http.MethodPost, base+"/key", map[string]any{"key": "ABC"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit key: status %d", resp.StatusCode)
	}
	var kr keyResponse
	decodeInto(t, resp, &kr)
	if kr.Accepted != 3 {
		t.Errorf("accepted = %d, want 3", kr.Accepted)
	}

	resp = doJSON(t, http.MethodPost, base+"/grade", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grade: status %d", resp.StatusCode)
	}
	var result model.GradeResult
	decodeInto(t, resp, &result)
	if result.Correct != 1 || result.Incorrect != 1 || result.Unanswered != 1 {
		t.Errorf("tallies = %d/%d/%d, want 1/1/1", result.Correct, result.Incorrect, result.Unanswered)
	}
	if result.TotalScore == nil || *result.TotalScore != 1 {
		t.Errorf("total = %v, want 1", result.TotalScore)
	}

	// Responses are frozen after grading.
	resp = doJSON(t, http.MethodPost, base+"/responses", map[string]any{"question": 3, "choice": "C"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("respond after grade: status %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "wrong_phase" {
		t.Errorf("code = %q, want wrong_phase", code)
	}

	resp = doJSON(t, http.MethodGet, base+"/report", nil)
	var report model.Report
	decodeInto(t, resp, &report)
	if !report.Graded || report.Result == nil {
		t.Fatal("report missing grade result")
	}
	if len(report.Result.PerQuestion) != 3 {
		t.Errorf("per-question rows = %d, want 3", len(report.Result.PerQuestion))
	}

	// Reset returns to empty.
	resp = doJSON(t, http.MethodPost, base+"/reset", nil)
	decodeInto(t, resp, &view)
	if view.Phase != model.PhaseEmpty || view.KeySubmitted || view.ElapsedMS != 0 {
		t.Errorf("reset view = %+v", view)
	}
}

func TestGenerateErrors(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp := doJSON(t, http.MethodPost, base+"/generate", map[string]any{"question_count": 201})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "config_invalid" {
		t.Errorf("code = %q, want config_invalid", code)
	}

	// Omitted count falls back to the server default.
	resp = doJSON(t, http.MethodPost, base+"/generate", map[string]any{})
	var view model.SheetView
	decodeInto(t, resp, &view)
	if view.Config.QuestionCount != 10 {
		t.Errorf("default question count = %d, want 10", view.Config.QuestionCount)
	}
}

func TestTypedKeyLengthMismatch(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp := doJSON(t, http.MethodPost, base+"/generate", map[string]any{"question_count": 4})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/key", map[string]any{"key": "ABC"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "length_mismatch" {
		t.Errorf("code = %q, want length_mismatch", code)
	}
}

func TestGradeWithoutKeyConflicts(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp := doJSON(t, http.MethodPost, base+"/generate", map[string]any{"question_count": 2})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/grade", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "no_answer_key" {
		t.Errorf("code = %q, want no_answer_key", code)
	}

	// Finalize is the sanctioned key-less path.
	resp = doJSON(t, http.MethodPost, base+"/finalize", nil)
	var view model.SheetView
	decodeInto(t, resp, &view)
	if view.Phase != model.PhaseLockedUngraded {
		t.Errorf("phase = %q, want locked_ungraded", view.Phase)
	}
}

func TestUploadKeyCSV(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp := doJSON(t, http.MethodPost, base+"/generate", map[string]any{"question_count": 2})
	resp.Body.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("key", "key.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("1,a\nbogus row\n2,B\n")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, base+"/key/upload", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	var kr keyResponse
	decodeInto(t, resp, &kr)
	if kr.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", kr.Accepted)
	}
	if !strings.Contains(kr.Message, "2") {
		t.Errorf("message %q should mention the count", kr.Message)
	}

	resp = doJSON(t, http.MethodPost, base+"/grade", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("grade after upload: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/sessions/does-not-exist", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "session_not_found" {
		t.Errorf("code = %q, want session_not_found", code)
	}
}
