// internal/models/quiz.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// TimerMode is the time-pressure policy for a quiz.
type TimerMode string

const (
	TimerModeNone     TimerMode = "none"     // unlimited
	TimerModeGlobal   TimerMode = "global"   // one countdown for the whole quiz, server-enforced
	TimerModeQuestion TimerMode = "question" // advisory per-question countdowns, UI only
)

// QuestionType discriminates the four supported question variants.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFillInBlank    QuestionType = "fill_in_blank"
	QuestionOpenEnded      QuestionType = "open_ended"
)

type Quiz struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description"`
	CreatorID        uint           `json:"creator_id"`
	QuizCode         string         `json:"quiz_code" gorm:"unique"`
	TimerMode        TimerMode      `json:"timer_mode" gorm:"default:none"`
	TimerSeconds     int            `json:"timer_seconds"`
	ShuffleQuestions bool           `json:"shuffle_questions"`
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	QuizID    uint           `json:"quiz_id"`
	Type      QuestionType   `json:"type" gorm:"not null"`
	Text      string         `json:"text" gorm:"not null"`
	Points    int            `json:"points"`
	TimeLimit int            `json:"time_limit"` // advisory per-question seconds, 0 = none
	Options   []Option       `json:"options,omitempty" gorm:"foreignKey:QuestionID"`

	// true_false
	CorrectBool bool   `json:"correct_bool"`
	Explanation string `json:"explanation"`

	// fill_in_blank
	CorrectText     string `json:"correct_text"`
	AcceptedAnswers string `json:"accepted_answers"` // comma-delimited alternates

	// open_ended
	Guidelines string `json:"guidelines"`
}

type Option struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	QuestionID uint           `json:"question_id"`
	Text       string         `json:"text" gorm:"not null"`
	IsCorrect  bool           `json:"is_correct"`
}
