// internal/attempt/errors.go
package attempt

import "errors"

var (
	ErrValidation       = errors.New("missing required identifier")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrNotSubmitted     = errors.New("attempt not submitted yet")
	ErrQuestionNotFound = errors.New("question not part of quiz")
)
