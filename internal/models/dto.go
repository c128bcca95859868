// internal/models/dto.go
package models

// QuizDTO is the participant-facing view of a quiz. Correctness data is only
// present for the quiz host.
type QuizDTO struct {
	ID               uint          `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	QuizCode         string        `json:"quiz_code"`
	TimerMode        TimerMode     `json:"timer_mode"`
	TimerSeconds     int           `json:"timer_seconds"`
	ShuffleQuestions bool          `json:"shuffle_questions"`
	Questions        []QuestionDTO `json:"questions"`
}

type QuestionDTO struct {
	ID        uint         `json:"id"`
	Type      QuestionType `json:"type"`
	Text      string       `json:"text"`
	Points    int          `json:"points"`
	TimeLimit int          `json:"time_limit"`
	Options   []OptionDTO  `json:"options,omitempty"`

	// Host-only fields.
	CorrectBool     *bool  `json:"correct_bool,omitempty"`
	CorrectText     string `json:"correct_text,omitempty"`
	AcceptedAnswers string `json:"accepted_answers,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
	Guidelines      string `json:"guidelines,omitempty"`
}

type OptionDTO struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"` // host only
}

func (q Quiz) ToDTO(isHost bool) QuizDTO {
	questionDTOs := make([]QuestionDTO, len(q.Questions))
	for i, question := range q.Questions {
		questionDTOs[i] = question.ToDTO(isHost)
	}

	return QuizDTO{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		QuizCode:         q.QuizCode,
		TimerMode:        q.TimerMode,
		TimerSeconds:     q.TimerSeconds,
		ShuffleQuestions: q.ShuffleQuestions,
		Questions:        questionDTOs,
	}
}

func (q Question) ToDTO(isHost bool) QuestionDTO {
	optionDTOs := make([]OptionDTO, len(q.Options))
	for i, opt := range q.Options {
		optionDTOs[i] = OptionDTO{
			ID:   opt.ID,
			Text: opt.Text,
		}
		if isHost {
			correct := opt.IsCorrect
			optionDTOs[i].IsCorrect = &correct
		}
	}

	dto := QuestionDTO{
		ID:        q.ID,
		Type:      q.Type,
		Text:      q.Text,
		Points:    q.Points,
		TimeLimit: q.TimeLimit,
		Options:   optionDTOs,
		// Guidelines are shown to participants so they know what to write.
		Guidelines: q.Guidelines,
	}
	if isHost {
		correct := q.CorrectBool
		dto.CorrectBool = &correct
		dto.CorrectText = q.CorrectText
		dto.AcceptedAnswers = q.AcceptedAnswers
		dto.Explanation = q.Explanation
	}
	return dto
}
