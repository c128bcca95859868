// internal/attempt/repository.go
package attempt

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/logger"
)

// Repository owns the quiz_attempts and attempt_answers tables. No other
// component writes either table. Correctness under concurrent requests relies
// on the storage constraints (unique indexes, ON CONFLICT, conditional UPDATE),
// never on in-process locking: requests for the same participant may arrive at
// independent processes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrGetAttempt inserts a fresh attempt for (quiz, participant) or returns
// the existing one. The insert uses ON CONFLICT DO NOTHING against the
// composite unique index; losing the race simply falls back to the select, so
// two concurrent starts both observe the same row and the same StartedAt.
func (r *Repository) CreateOrGetAttempt(quizID uint, participantEmail string, startedAt time.Time) (*models.QuizAttempt, bool, error) {
	row := models.QuizAttempt{
		QuizID:           quizID,
		ParticipantEmail: participantEmail,
		StartedAt:        startedAt,
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quiz_id"}, {Name: "participant_email"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		logger.Log.Error("creating attempt",
			zap.Uint("quiz_id", quizID),
			zap.String("participant", participantEmail),
			zap.Error(result.Error))
		return nil, false, result.Error
	}

	if result.RowsAffected > 0 {
		return &row, true, nil
	}

	existing, err := r.getByKey(quizID, participantEmail)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *Repository) getByKey(quizID uint, participantEmail string) (*models.QuizAttempt, error) {
	var row models.QuizAttempt
	err := r.db.Where("quiz_id = ? AND participant_email = ?", quizID, participantEmail).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) GetAttempt(attemptID uint) (*models.QuizAttempt, error) {
	var row models.QuizAttempt
	err := r.db.First(&row, attemptID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		logger.Log.Error("getting attempt", zap.Uint("attempt_id", attemptID), zap.Error(err))
		return nil, err
	}
	return &row, nil
}

// MarkSubmitted performs the single-writer terminal transition. The WHERE
// clause on submitted=false is the guard: of two racing callers exactly one
// sees a row updated, the other reports won=false and must re-read.
func (r *Repository) MarkSubmitted(attemptID uint, takenAt time.Time) (bool, error) {
	result := r.db.Model(&models.QuizAttempt{}).
		Where("id = ? AND submitted = ?", attemptID, false).
		Updates(map[string]interface{}{
			"submitted": true,
			"taken_at":  takenAt,
		})
	if result.Error != nil {
		logger.Log.Error("marking attempt submitted",
			zap.Uint("attempt_id", attemptID), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpsertAnswer writes the latest answer for (attempt, question). ON CONFLICT
// DO UPDATE against the composite unique index makes the write idempotent and
// last-committed-wins; there is at most one row per key, ever.
func (r *Repository) UpsertAnswer(attemptID, questionID uint, answer string) error {
	row := models.AttemptAnswer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		Answer:     answer,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"answer":     answer,
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		logger.Log.Error("upserting answer",
			zap.Uint("attempt_id", attemptID),
			zap.Uint("question_id", questionID),
			zap.Error(err))
	}
	return err
}

func (r *Repository) ListAnswers(attemptID uint) ([]models.AttemptAnswer, error) {
	var rows []models.AttemptAnswer
	err := r.db.Where("attempt_id = ?", attemptID).Find(&rows).Error
	if err != nil {
		logger.Log.Error("listing answers", zap.Uint("attempt_id", attemptID), zap.Error(err))
		return nil, err
	}
	return rows, nil
}
