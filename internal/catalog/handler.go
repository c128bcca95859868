// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/cache"
)

type Handler struct {
	service *Service
	cache   *cache.RedisCache
}

func NewHandler(service *Service, cache *cache.RedisCache) *Handler {
	return &Handler{service: service, cache: cache}
}

// CreateQuiz is the seeding seam for the catalog: it accepts a complete quiz
// definition in one POST. Authoring UX lives elsewhere.
func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz models.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.CreateQuiz(&quiz); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quiz.ToDTO(true))
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	quizCode := vars["quizCode"]

	quiz, err := h.service.GetQuizByCode(quizCode)
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			http.Error(w, "Quiz not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quiz.ToDTO(false))
}

// GetResults serves the score-ordered result set maintained by read-time
// scoring of submitted attempts.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	quizCode := vars["quizCode"]

	if _, err := h.service.GetQuizByCode(quizCode); err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			http.Error(w, "Quiz not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	entries, err := h.cache.GetResults(quizCode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"quiz_code": quizCode,
		"results":   entries,
	})
}
