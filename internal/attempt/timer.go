// internal/attempt/timer.go
package attempt

import (
	"time"

	"quiz-engine/internal/models"
)

// Remaining derives the seconds left on a global countdown from wall-clock
// timestamps alone: max(0, total - floor(now - startedAt)). Nothing is
// decremented or persisted, so missed ticks and clock adjustments self-correct
// on the next call. Never negative.
func Remaining(startedAt time.Time, totalSeconds int, now time.Time) int {
	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := totalSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanContinue reports whether the participant may keep working. Only the
// global mode is server-enforced; none and question modes never block.
func CanContinue(mode models.TimerMode, startedAt time.Time, totalSeconds int, now time.Time, alreadyExpired bool) bool {
	if mode != models.TimerModeGlobal {
		return true
	}
	return Remaining(startedAt, totalSeconds, now) > 0 && !alreadyExpired
}

// TimerSession is the per-client-session countdown state. It is a plain value
// object driven by an external periodic tick from a single goroutine; it holds
// no goroutine, no persisted countdown and no lock. Expiry is edge-triggered:
// the first tick observing zero remaining fires the callback exactly once.
type TimerSession struct {
	mode         models.TimerMode
	startedAt    time.Time
	totalSeconds int
	onExpire     func()

	started bool
	stopped bool
	expired bool
}

func NewTimerSession(mode models.TimerMode, startedAt time.Time, totalSeconds int, onExpire func()) *TimerSession {
	return &TimerSession{
		mode:         mode,
		startedAt:    startedAt,
		totalSeconds: totalSeconds,
		onExpire:     onExpire,
	}
}

func (s *TimerSession) Start() {
	s.started = true
}

// Tick recomputes the remaining time and fires the expiry callback on the
// first tick at or past zero. Returns the remaining seconds for the UI.
func (s *TimerSession) Tick(now time.Time) int {
	if s.mode != models.TimerModeGlobal {
		return 0
	}

	remaining := Remaining(s.startedAt, s.totalSeconds, now)
	if !s.started || s.stopped {
		return remaining
	}

	if remaining == 0 && !s.expired {
		s.expired = true
		if s.onExpire != nil {
			s.onExpire()
		}
	}
	return remaining
}

// Stop cancels the local session only; server-side attempt state is untouched
// and the attempt stays resumable.
func (s *TimerSession) Stop() {
	s.stopped = true
}

func (s *TimerSession) Expired() bool {
	return s.expired
}

func (s *TimerSession) CanContinue(now time.Time) bool {
	return CanContinue(s.mode, s.startedAt, s.totalSeconds, now, s.expired)
}
