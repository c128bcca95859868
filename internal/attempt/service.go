// internal/attempt/service.go
package attempt

import (
	"time"

	"go.uber.org/zap"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/logger"
)

// Store is the persistence boundary for attempts and answers.
type Store interface {
	CreateOrGetAttempt(quizID uint, participantEmail string, startedAt time.Time) (*models.QuizAttempt, bool, error)
	GetAttempt(attemptID uint) (*models.QuizAttempt, error)
	MarkSubmitted(attemptID uint, takenAt time.Time) (bool, error)
	UpsertAnswer(attemptID, questionID uint, answer string) error
	ListAnswers(attemptID uint) ([]models.AttemptAnswer, error)
}

// Catalog is the read-only quiz/question collaborator.
type Catalog interface {
	GetQuizByCode(code string) (*models.Quiz, error)
	GetQuizByID(quizID uint) (*models.Quiz, error)
}

// ResultSink receives lazily computed attempt totals (the redis ZSET).
type ResultSink interface {
	RecordResult(quizCode, participantEmail string, score int) error
}

type Service struct {
	store   Store
	catalog Catalog
	results ResultSink
	now     func() time.Time
}

func NewService(store Store, catalog Catalog, results ResultSink) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		results: results,
		now:     time.Now,
	}
}

// StartResult is everything a session needs to render the quiz form: the
// attempt identity, prior answers and the presentation order.
type StartResult struct {
	Attempt          *models.QuizAttempt
	Quiz             *models.Quiz
	Resumed          bool
	QuestionOrder    []int
	RemainingSeconds int
	Answers          map[uint]string
}

// StartOrResume creates the participant's attempt for a quiz or resumes the
// existing one. Resuming never resets StartedAt. A submitted attempt is a
// distinct terminal signal, not a resumable attempt.
func (s *Service) StartOrResume(quizCode, participantEmail string) (*StartResult, error) {
	if quizCode == "" || participantEmail == "" {
		return nil, ErrValidation
	}

	quiz, err := s.catalog.GetQuizByCode(quizCode)
	if err != nil {
		return nil, err
	}

	att, isNew, err := s.store.CreateOrGetAttempt(quiz.ID, participantEmail, s.now())
	if err != nil {
		return nil, err
	}
	if att.Submitted {
		return nil, ErrAlreadySubmitted
	}

	answers, err := s.listAnswers(att, quiz)
	if err != nil {
		return nil, err
	}

	remaining := 0
	if quiz.TimerMode == models.TimerModeGlobal {
		remaining = Remaining(att.StartedAt, quiz.TimerSeconds, s.now())
	}

	logger.Log.Info("attempt session opened",
		zap.Uint("attempt_id", att.ID),
		zap.Uint("quiz_id", quiz.ID),
		zap.String("participant", participantEmail),
		zap.Bool("resumed", !isNew))

	return &StartResult{
		Attempt:          att,
		Quiz:             quiz,
		Resumed:          !isNew,
		QuestionOrder:    QuestionOrder(quiz.ShuffleQuestions, len(quiz.Questions), OrderSeed(att.ID, att.StartedAt)),
		RemainingSeconds: remaining,
		Answers:          answers,
	}, nil
}

func (s *Service) GetAttempt(attemptID uint) (*models.QuizAttempt, error) {
	return s.store.GetAttempt(attemptID)
}

func (s *Service) QuizForAttempt(attemptID uint) (*models.Quiz, error) {
	att, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	return s.catalog.GetQuizByID(att.QuizID)
}

// SaveAnswer upserts one answer while the attempt is still active. Empty
// answers are storable; whether empty counts as unanswered is caller policy.
func (s *Service) SaveAnswer(attemptID, questionID uint, answer string) error {
	att, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return err
	}
	if att.Submitted {
		return ErrAlreadySubmitted
	}

	quiz, err := s.catalog.GetQuizByID(att.QuizID)
	if err != nil {
		return err
	}
	if !quizHasQuestion(quiz, questionID) {
		return ErrQuestionNotFound
	}

	return s.store.UpsertAnswer(attemptID, questionID, answer)
}

// ListAnswers returns a snapshot with every question of the quiz represented;
// questions with no stored answer map to the empty string so downstream
// all-answered checks never special-case missing keys.
func (s *Service) ListAnswers(attemptID uint) (map[uint]string, error) {
	att, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.catalog.GetQuizByID(att.QuizID)
	if err != nil {
		return nil, err
	}
	return s.listAnswers(att, quiz)
}

func (s *Service) listAnswers(att *models.QuizAttempt, quiz *models.Quiz) (map[uint]string, error) {
	rows, err := s.store.ListAnswers(att.ID)
	if err != nil {
		return nil, err
	}

	answers := make(map[uint]string, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers[q.ID] = ""
	}
	for _, row := range rows {
		answers[row.QuestionID] = row.Answer
	}
	return answers, nil
}

type SubmitResult struct {
	TakenAt time.Time
}

// Submit drives the one-way Active -> Submitted transition. The conditional
// UPDATE in the store is the race guard: of a button click and a timer expiry
// landing together, exactly one caller wins the write, and the loser returns
// the winner's TakenAt. Repeat calls are idempotent and never re-run side
// effects. A failed transition leaves the attempt Active.
func (s *Service) Submit(attemptID uint) (*SubmitResult, error) {
	att, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if att.Submitted && att.TakenAt != nil {
		return &SubmitResult{TakenAt: *att.TakenAt}, nil
	}

	takenAt := s.now()
	won, err := s.store.MarkSubmitted(attemptID, takenAt)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race; the terminal row already carries the real TakenAt.
		att, err = s.store.GetAttempt(attemptID)
		if err != nil {
			return nil, err
		}
		if att.TakenAt == nil {
			return nil, ErrAttemptNotFound
		}
		return &SubmitResult{TakenAt: *att.TakenAt}, nil
	}

	logger.Log.Info("attempt submitted",
		zap.Uint("attempt_id", attemptID),
		zap.Time("taken_at", takenAt))
	return &SubmitResult{TakenAt: takenAt}, nil
}

type TimerState struct {
	TimerMode        models.TimerMode `json:"timer_mode"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Expired          bool             `json:"expired"`
}

func (s *Service) TimerState(attemptID uint) (*TimerState, error) {
	att, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.catalog.GetQuizByID(att.QuizID)
	if err != nil {
		return nil, err
	}

	state := &TimerState{TimerMode: quiz.TimerMode}
	if quiz.TimerMode == models.TimerModeGlobal {
		state.RemainingSeconds = Remaining(att.StartedAt, quiz.TimerSeconds, s.now())
		state.Expired = state.RemainingSeconds == 0
	}
	return state, nil
}

type QuestionResult struct {
	QuestionID    uint   `json:"question_id"`
	Answer        string `json:"answer"`
	Answered      bool   `json:"answered"`
	Gradable      bool   `json:"gradable"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
	PointsAwarded int    `json:"points_awarded"`
}

type AttemptResult struct {
	AttemptID        uint             `json:"attempt_id"`
	ParticipantEmail string           `json:"participant_email"`
	TakenAt          time.Time        `json:"taken_at"`
	Questions        []QuestionResult `json:"questions"`
	TotalAwarded     int              `json:"total_awarded"`
	TotalPossible    int              `json:"total_possible"`
}

// Result grades a submitted attempt lazily at read time by joining the stored
// answers against the catalog's answer keys. No denormalized score is stored;
// the per-quiz redis result set is refreshed as a side effect (idempotent,
// best effort).
func (s *Service) Result(attemptID uint) (*AttemptResult, error) {
	att, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if !att.Submitted || att.TakenAt == nil {
		return nil, ErrNotSubmitted
	}

	quiz, err := s.catalog.GetQuizByID(att.QuizID)
	if err != nil {
		return nil, err
	}
	answers, err := s.listAnswers(att, quiz)
	if err != nil {
		return nil, err
	}

	result := &AttemptResult{
		AttemptID:        att.ID,
		ParticipantEmail: att.ParticipantEmail,
		TakenAt:          *att.TakenAt,
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		key := models.KeyFor(q)
		answer := answers[q.ID]

		qr := QuestionResult{
			QuestionID: q.ID,
			Answer:     answer,
			Answered:   answer != "",
			Gradable:   key.Gradable(),
			Points:     q.Points,
		}
		if key.Gradable() && key.Match(answer) {
			qr.Correct = true
			qr.PointsAwarded = q.Points
		}
		result.Questions = append(result.Questions, qr)
		result.TotalAwarded += qr.PointsAwarded
		result.TotalPossible += q.Points
	}

	if s.results != nil {
		if err := s.results.RecordResult(quiz.QuizCode, att.ParticipantEmail, result.TotalAwarded); err != nil {
			logger.Log.Warn("recording result",
				zap.Uint("attempt_id", att.ID), zap.Error(err))
		}
	}
	return result, nil
}

func quizHasQuestion(quiz *models.Quiz, questionID uint) bool {
	for _, q := range quiz.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}
