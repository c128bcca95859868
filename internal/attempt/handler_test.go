package attempt

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"quiz-engine/internal/auth"
)

const handlerTestSecret = "handler-test-secret"

func newTestRouter(t *testing.T, svc *Service) http.Handler {
	t.Helper()

	handler := NewHandler(svc)
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.ParticipantMiddleware(handlerTestSecret))
	api.HandleFunc("/attempts/start", handler.StartAttempt).Methods("POST")
	api.HandleFunc("/attempts/{id}/answers/{questionID}", handler.SaveAnswer).Methods("PUT")
	api.HandleFunc("/attempts/{id}/answers", handler.ListAnswers).Methods("GET")
	api.HandleFunc("/attempts/{id}/submit", handler.Submit).Methods("POST")
	api.HandleFunc("/attempts/{id}/timer", handler.TimerState).Methods("GET")
	api.HandleFunc("/attempts/{id}/result", handler.Result).Methods("GET")
	return router
}

func participantToken(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.NewService(handlerTestSecret).IssueToken(email, "tester")
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, router http.Handler, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStartEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t)
	router := newTestRouter(t, svc)
	token := participantToken(t, "a@b.com")

	rec := doRequest(t, router, token, "POST", "/api/attempts/start", `{"quiz_code":"ABC123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AttemptID        uint      `json:"attempt_id"`
		StartedAt        time.Time `json:"started_at"`
		Resumed          bool      `json:"resumed"`
		RemainingSeconds int       `json:"remaining_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.AttemptID == 0 || resp.Resumed {
		t.Errorf("unexpected start response: %+v", resp)
	}

	// Same participant, same quiz: resume, same attempt.
	rec = doRequest(t, router, token, "POST", "/api/attempts/start", `{"quiz_code":"ABC123"}`)
	var resumed struct {
		AttemptID uint `json:"attempt_id"`
		Resumed   bool `json:"resumed"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resumed)
	if !resumed.Resumed || resumed.AttemptID != resp.AttemptID {
		t.Errorf("resume response: %+v", resumed)
	}

	rec = doRequest(t, router, token, "POST", "/api/attempts/start", `{"quiz_code":"NOPE"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown quiz status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, router, token, "POST", "/api/attempts/start", `{"quiz_code":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank quiz code status = %d, want 400", rec.Code)
	}
}

func TestSaveListSubmitFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	router := newTestRouter(t, svc)
	token := participantToken(t, "a@b.com")

	start, err := svc.StartOrResume("ABC123", "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	base := fmt.Sprintf("/api/attempts/%d", start.Attempt.ID)

	rec := doRequest(t, router, token, "PUT", base+"/answers/13", `{"answer":"paris"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, token, "GET", base+"/answers", "")
	var listResp struct {
		Answers map[uint]string `json:"answers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decoding answers: %v", err)
	}
	if listResp.Answers[13] != "paris" || len(listResp.Answers) != 4 {
		t.Errorf("answers = %v", listResp.Answers)
	}

	rec = doRequest(t, router, token, "GET", base+"/result", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("result before submit status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, router, token, "POST", base+"/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}
	var first struct {
		TakenAt time.Time `json:"taken_at"`
	}
	json.Unmarshal(rec.Body.Bytes(), &first)

	// Repeat submit is idempotent at the HTTP boundary too.
	rec = doRequest(t, router, token, "POST", base+"/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat submit status = %d", rec.Code)
	}
	var second struct {
		TakenAt time.Time `json:"taken_at"`
	}
	json.Unmarshal(rec.Body.Bytes(), &second)
	if !first.TakenAt.Equal(second.TakenAt) {
		t.Errorf("taken_at changed on repeat submit: %v vs %v", first.TakenAt, second.TakenAt)
	}

	rec = doRequest(t, router, token, "PUT", base+"/answers/13", `{"answer":"late"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("save after submit status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, router, token, "GET", base+"/result", "")
	if rec.Code != http.StatusOK {
		t.Errorf("result after submit status = %d", rec.Code)
	}
}

func TestForeignAttemptReadsAsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	router := newTestRouter(t, svc)

	start, err := svc.StartOrResume("ABC123", "owner@b.com")
	if err != nil {
		t.Fatal(err)
	}

	otherToken := participantToken(t, "intruder@b.com")
	rec := doRequest(t, router, otherToken, "GET", fmt.Sprintf("/api/attempts/%d/timer", start.Attempt.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign attempt status = %d, want 404", rec.Code)
	}
}

func TestTimerEndpoint(t *testing.T) {
	svc, _, _ := newTestService(t)
	router := newTestRouter(t, svc)
	token := participantToken(t, "a@b.com")

	start, err := svc.StartOrResume("ABC123", "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return start.Attempt.StartedAt.Add(20 * time.Second) }

	rec := doRequest(t, router, token, "GET", fmt.Sprintf("/api/attempts/%d/timer", start.Attempt.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("timer status = %d", rec.Code)
	}
	var state TimerState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding timer state: %v", err)
	}
	if state.RemainingSeconds != 40 || state.Expired {
		t.Errorf("timer state = %+v", state)
	}
}
