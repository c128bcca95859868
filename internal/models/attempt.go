// internal/models/attempt.go
package models

import "time"

// QuizAttempt is one participant's run through one quiz. The composite unique
// index is the only guard against duplicate attempts; creation races resolve at
// the storage layer, never with an application lock.
type QuizAttempt struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	QuizID           uint       `json:"quiz_id" gorm:"not null;uniqueIndex:idx_attempt_quiz_participant"`
	ParticipantEmail string     `json:"participant_email" gorm:"not null;uniqueIndex:idx_attempt_quiz_participant"`
	StartedAt        time.Time  `json:"started_at"` // set once at creation, never reset on resume
	Submitted        bool       `json:"submitted" gorm:"default:false"`
	TakenAt          *time.Time `json:"taken_at,omitempty"` // set once, at the submit transition
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AttemptAnswer holds the latest saved answer for one question of one attempt.
// At most one row per (attempt, question); every write is an upsert.
type AttemptAnswer struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AttemptID  uint      `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	Answer     string    `json:"answer"` // raw serialized response, independent of question type
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
