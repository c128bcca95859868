// internal/catalog/repository.go
package catalog

import (
	"errors"

	"gorm.io/gorm"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/logger"

	"go.uber.org/zap"
)

var ErrQuizNotFound = errors.New("quiz not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateQuiz(quiz *models.Quiz) error {
	err := r.db.Create(quiz).Error
	if err != nil {
		logger.Log.Error("creating quiz", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) GetQuizByCode(code string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id asc")
	}).Preload("Questions.Options").
		Where("quiz_code = ?", code).
		First(&quiz).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		logger.Log.Error("getting quiz by code", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) GetQuizByID(quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id asc")
	}).Preload("Questions.Options").
		First(&quiz, quizID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		logger.Log.Error("getting quiz", zap.Uint("quiz_id", quizID), zap.Error(err))
		return nil, err
	}
	return &quiz, nil
}
