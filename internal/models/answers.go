// internal/models/answers.go
package models

import (
	"strconv"
	"strings"
)

// AnswerKey is the per-type comparison rule for a question. Each question type
// carries its own key variant; the raw answer text a participant saved is only
// interpreted here, at the point where the question's type is known.
type AnswerKey interface {
	// Match reports whether the raw stored answer text counts as correct.
	Match(answerText string) bool
	// Gradable reports whether the key can decide correctness at all.
	// Open-ended questions are stored but graded manually.
	Gradable() bool
}

// KeyFor resolves a question to its answer key.
func KeyFor(q *Question) AnswerKey {
	switch q.Type {
	case QuestionMultipleChoice:
		correct := make(map[uint]bool)
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct[opt.ID] = true
			}
		}
		return MultipleChoiceKey{Correct: correct}
	case QuestionTrueFalse:
		return TrueFalseKey{Correct: q.CorrectBool}
	case QuestionFillInBlank:
		accepted := []string{normalizeAnswer(q.CorrectText)}
		for _, alt := range strings.Split(q.AcceptedAnswers, ",") {
			if n := normalizeAnswer(alt); n != "" {
				accepted = append(accepted, n)
			}
		}
		return FillInBlankKey{Accepted: accepted}
	default:
		return OpenEndedKey{}
	}
}

// normalizeAnswer lowercases and trims; string comparisons for true_false and
// fill_in_blank are case-insensitive at comparison time, not at storage time.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MultipleChoiceKey compares the selected option id set against the correct
// set. The stored answer is a comma-delimited list of option ids.
type MultipleChoiceKey struct {
	Correct map[uint]bool
}

func (k MultipleChoiceKey) Match(answerText string) bool {
	selected := ParseOptionIDs(answerText)
	if len(selected) != len(k.Correct) || len(k.Correct) == 0 {
		return false
	}
	for id := range selected {
		if !k.Correct[id] {
			return false
		}
	}
	return true
}

func (k MultipleChoiceKey) Gradable() bool { return true }

// ParseOptionIDs parses a comma-delimited option id list, ignoring blanks and
// anything non-numeric.
func ParseOptionIDs(answerText string) map[uint]bool {
	ids := make(map[uint]bool)
	for _, part := range strings.Split(answerText, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}
		ids[uint(n)] = true
	}
	return ids
}

type TrueFalseKey struct {
	Correct bool
}

func (k TrueFalseKey) Match(answerText string) bool {
	switch normalizeAnswer(answerText) {
	case "true":
		return k.Correct
	case "false":
		return !k.Correct
	}
	return false
}

func (k TrueFalseKey) Gradable() bool { return true }

type FillInBlankKey struct {
	Accepted []string // already normalized; first entry is the primary answer
}

func (k FillInBlankKey) Match(answerText string) bool {
	got := normalizeAnswer(answerText)
	if got == "" {
		return false
	}
	for _, want := range k.Accepted {
		if got == want {
			return true
		}
	}
	return false
}

func (k FillInBlankKey) Gradable() bool { return true }

// OpenEndedKey never auto-matches; free-text responses are graded by a person.
type OpenEndedKey struct{}

func (OpenEndedKey) Match(string) bool { return false }
func (OpenEndedKey) Gradable() bool    { return false }
