// internal/catalog/service.go
package catalog

import (
	"math/rand"

	"go.uber.org/zap"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/cache"
	"quiz-engine/pkg/logger"
)

// Service is the read-only question catalog the attempt engine consumes.
// Quiz definitions are cached by share code; the engine never mutates them.
type Service struct {
	repo  *Repository
	cache *cache.RedisCache
}

func NewService(repo *Repository, cache *cache.RedisCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) CreateQuiz(quiz *models.Quiz) error {
	quiz.QuizCode = generateQuizCode()
	if quiz.TimerMode == "" {
		quiz.TimerMode = models.TimerModeNone
	}

	if err := s.repo.CreateQuiz(quiz); err != nil {
		return err
	}

	// Cache failures are not fatal; the next read falls through to the DB.
	if err := s.cache.SetQuiz(quiz); err != nil {
		logger.Log.Warn("caching quiz", zap.String("code", quiz.QuizCode), zap.Error(err))
	}
	return nil
}

func (s *Service) GetQuizByCode(code string) (*models.Quiz, error) {
	quiz, err := s.cache.GetQuiz(code)
	if err == nil {
		return quiz, nil
	}

	quiz, err = s.repo.GetQuizByCode(code)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetQuiz(quiz); err != nil {
		logger.Log.Warn("caching quiz", zap.String("code", code), zap.Error(err))
	}
	return quiz, nil
}

func (s *Service) GetQuizByID(quizID uint) (*models.Quiz, error) {
	return s.repo.GetQuizByID(quizID)
}

func generateQuizCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, 6)
	for i := range code {
		code[i] = charset[rand.Intn(len(charset))]
	}
	return string(code)
}
