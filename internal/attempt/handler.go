// internal/attempt/handler.go
package attempt

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"quiz-engine/internal/auth"
	"quiz-engine/internal/catalog"
	"quiz-engine/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type startRequest struct {
	QuizCode string `json:"quiz_code"`
}

type startResponse struct {
	AttemptID        uint            `json:"attempt_id"`
	StartedAt        time.Time       `json:"started_at"`
	Resumed          bool            `json:"resumed"`
	Quiz             models.QuizDTO  `json:"quiz"`
	QuestionOrder    []int           `json:"question_order"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Answers          map[uint]string `json:"answers"`
}

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.ParticipantFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.StartOrResume(req.QuizCode, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, startResponse{
		AttemptID:        result.Attempt.ID,
		StartedAt:        result.Attempt.StartedAt,
		Resumed:          result.Resumed,
		Quiz:             result.Quiz.ToDTO(false),
		QuestionOrder:    result.QuestionOrder,
		RemainingSeconds: result.RemainingSeconds,
		Answers:          result.Answers,
	})
}

type saveAnswerRequest struct {
	Answer string `json:"answer"`
}

func (h *Handler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	att, ok := h.ownedAttempt(w, r)
	if !ok {
		return
	}

	questionID, err := pathID(r, "questionID")
	if err != nil {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	var req saveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SaveAnswer(att.ID, questionID, req.Answer); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "saved"})
}

func (h *Handler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	att, ok := h.ownedAttempt(w, r)
	if !ok {
		return
	}

	answers, err := h.service.ListAnswers(att.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"answers": answers})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	att, ok := h.ownedAttempt(w, r)
	if !ok {
		return
	}

	result, err := h.service.Submit(att.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"taken_at": result.TakenAt})
}

func (h *Handler) TimerState(w http.ResponseWriter, r *http.Request) {
	att, ok := h.ownedAttempt(w, r)
	if !ok {
		return
	}

	state, err := h.service.TimerState(att.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, state)
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	att, ok := h.ownedAttempt(w, r)
	if !ok {
		return
	}

	result, err := h.service.Result(att.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, result)
}

// ownedAttempt resolves the {id} path variable to an attempt owned by the
// requesting participant. Foreign attempts read as not found rather than
// forbidden so attempt ids do not leak.
func (h *Handler) ownedAttempt(w http.ResponseWriter, r *http.Request) (*models.QuizAttempt, bool) {
	email, ok := auth.ParticipantFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	attemptID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid attempt id", http.StatusBadRequest)
		return nil, false
	}

	att, err := h.service.GetAttempt(attemptID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if att.ParticipantEmail != email {
		http.Error(w, "Attempt not found", http.StatusNotFound)
		return nil, false
	}
	return att, true
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAttemptNotFound), errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, catalog.ErrQuizNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrNotSubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
