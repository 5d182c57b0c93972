package sim

import (
	"github.com/sirupsen/logrus"
)

// ServerAccessCredits returns the remaining server-access credits; InfiniteCredits if unlimited.
func (q *Queue) ServerAccessCredits() int {
	return q.credits
}

// HasServerAccessCredits reports whether a job may be started.
func (q *Queue) HasServerAccessCredits() bool {
	return q.credits > 0
}

// SetServerAccessCredits sets the credits at time. A zero-to-positive change fires
// REGAINED_CREDITS and lets the discipline start jobs; a positive-to-zero change fires
// OUT_OF_CREDITS. Negative values fail with ErrInvalidArgument.
func (q *Queue) SetServerAccessCredits(time float64, credits int) error {
	if credits < 0 {
		return invalidArgument("%s: negative server-access credits %d", q.name, credits)
	}
	q.guardTopLevel("set server-access credits")
	if err := q.checkTime("set server-access credits", time); err != nil {
		return err
	}
	top := q.BeginBatch(time)
	q.update(time)
	old := q.credits
	q.credits = credits
	logrus.Tracef("[t=%g] %s: server-access credits %d -> %d", time, q.name, old, credits)
	regained := old == 0 && credits > 0
	if regained {
		q.AddNotification(NotificationRegainedCredits, nil)
	} else if old > 0 && credits == 0 {
		q.AddNotification(NotificationOutOfCredits, nil)
	}
	if w, ok := q.discipline.(CreditsWatcher); ok && old != credits {
		w.ServerAccessCreditsChanged(q, time)
	}
	if regained {
		q.discipline.RescheduleForNewCredits(q, time)
	}
	q.CommitBatch(top)
	return nil
}

// takeCredit consumes one credit for a start. Infinite credits are never decremented.
func (q *Queue) takeCredit() {
	if q.credits == 0 {
		invalidState("%s: server-access credits exhausted", q.name)
	}
	if q.credits == InfiniteCredits {
		return
	}
	q.credits--
	if q.credits == 0 {
		q.AddNotification(NotificationOutOfCredits, nil)
	}
}
