// internal/attempt/autosave.go
package attempt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-engine/pkg/logger"
)

const defaultDebounce = 600 * time.Millisecond

var ErrCoordinatorClosed = errors.New("auto-save coordinator closed")

// AnswerSaver persists one answer. Implemented by the attempt Service.
type AnswerSaver interface {
	SaveAnswer(attemptID, questionID uint, answer string) error
}

type edit struct {
	questionID uint
	answer     string
}

// Coordinator batches a participant's edit stream into answer upserts. A single
// worker drains a bounded edit channel into a latest-value-per-question map and
// flushes it after a debounce window of quiescence, so rapid edits to the same
// question cost one write. Failed questions keep their pending value and retry
// on the next cycle without blocking the rest of the flush.
type Coordinator struct {
	attemptID uint
	saver     AnswerSaver
	debounce  time.Duration

	// onSaveError surfaces per-question flush failures asynchronously; the
	// participant's local edit is never rolled back.
	onSaveError func(questionID uint, err error)

	edits    chan edit
	flushReq chan chan error
	closed   chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewCoordinator(attemptID uint, saver AnswerSaver, debounce time.Duration, onSaveError func(uint, error)) *Coordinator {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	c := &Coordinator{
		attemptID:   attemptID,
		saver:       saver,
		debounce:    debounce,
		onSaveError: onSaveError,
		edits:       make(chan edit, 64),
		flushReq:    make(chan chan error),
		closed:      make(chan struct{}),
		done:        make(chan struct{}),
	}
	go c.run()
	return c
}

// Edit queues one (question, answer) event. Returns false once the coordinator
// is closed.
func (c *Coordinator) Edit(questionID uint, answer string) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.edits <- edit{questionID: questionID, answer: answer}:
		return true
	case <-c.closed:
		return false
	}
}

// Flush forces a synchronous drain of everything pending. Used before the
// submit transition so no in-flight answer is silently lost.
func (c *Coordinator) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case c.flushReq <- reply:
	case <-c.closed:
		return ErrCoordinatorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after a final flush of anything still pending.
func (c *Coordinator) Close() {
	c.once.Do(func() {
		close(c.closed)
	})
	<-c.done
}

func (c *Coordinator) run() {
	defer close(c.done)

	pending := make(map[uint]string)
	var timer *time.Timer
	var timerC <-chan time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	armTimer := func() {
		stopTimer()
		timer = time.NewTimer(c.debounce)
		timerC = timer.C
	}

	for {
		select {
		case e := <-c.edits:
			pending[e.questionID] = e.answer
			armTimer()

		case <-timerC:
			timer = nil
			timerC = nil
			c.flush(pending)
			if len(pending) > 0 {
				// Failed saves retry next cycle with the latest value.
				armTimer()
			}

		case reply := <-c.flushReq:
			c.drainEdits(pending)
			stopTimer()
			reply <- c.flush(pending)
			if len(pending) > 0 {
				// Retained failures retry on the debounce cycle, same as
				// a failed timer flush.
				armTimer()
			}

		case <-c.closed:
			c.drainEdits(pending)
			stopTimer()
			c.flush(pending)
			return
		}
	}
}

// drainEdits pulls any edits that raced the flush request off the channel so
// a forced flush covers them too.
func (c *Coordinator) drainEdits(pending map[uint]string) {
	for {
		select {
		case e := <-c.edits:
			pending[e.questionID] = e.answer
		default:
			return
		}
	}
}

// flush writes every pending question once. Failure domains are independent:
// one question's error is reported and its value retained, the others proceed.
func (c *Coordinator) flush(pending map[uint]string) error {
	var errs []error
	for questionID, answer := range pending {
		if err := c.saver.SaveAnswer(c.attemptID, questionID, answer); err != nil {
			logger.Log.Warn("auto-save flush failed",
				zap.Uint("attempt_id", c.attemptID),
				zap.Uint("question_id", questionID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("question %d: %w", questionID, err))
			if c.onSaveError != nil {
				c.onSaveError(questionID, err)
			}
			continue
		}
		delete(pending, questionID)
	}
	return errors.Join(errs...)
}
