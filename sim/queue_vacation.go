package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// IsOnVacation reports whether the queue is on queue-access vacation.
func (q *Queue) IsOnVacation() bool {
	return q.vacation
}

// StartVacation puts the queue on queue-access vacation at time until StopVacation.
// A pending vacation end is cancelled. Starting while on vacation only changes the end.
func (q *Queue) StartVacation(time float64) error {
	q.guardTopLevel("start vacation")
	if err := q.checkTime("start vacation", time); err != nil {
		return err
	}
	top := q.BeginBatch(time)
	q.update(time)
	q.cancelVacationEnd()
	q.startVacation(time)
	q.CommitBatch(top)
	return nil
}

// StartVacationFor puts the queue on queue-access vacation at time for duration.
func (q *Queue) StartVacationFor(time, duration float64) error {
	q.guardTopLevel("start vacation")
	if err := q.checkTime("start vacation", time); err != nil {
		return err
	}
	if duration < 0 || math.IsNaN(duration) {
		return invalidArgument("%s: vacation duration %g", q.name, duration)
	}
	top := q.BeginBatch(time)
	q.update(time)
	q.cancelVacationEnd()
	q.vacationEnd = q.ScheduleEvent(time+duration, EventKindVacationEnd, "vacation-end", func(t float64) {
		q.vacationEnd = Handle{}
		top := q.BeginBatch(t)
		q.update(t)
		q.stopVacation(t)
		q.CommitBatch(top)
	})
	q.startVacation(time)
	q.CommitBatch(top)
	return nil
}

// StopVacation ends the queue-access vacation at time, if any.
func (q *Queue) StopVacation(time float64) error {
	q.guardTopLevel("stop vacation")
	if err := q.checkTime("stop vacation", time); err != nil {
		return err
	}
	top := q.BeginBatch(time)
	q.update(time)
	q.cancelVacationEnd()
	q.stopVacation(time)
	q.CommitBatch(top)
	return nil
}

func (q *Queue) startVacation(time float64) {
	if q.vacation {
		return
	}
	q.vacation = true
	q.AddNotification(NotificationVacationStart, nil)
	logrus.Tracef("[t=%g] %s: queue-access vacation starts", time, q.name)
}

func (q *Queue) stopVacation(time float64) {
	if !q.vacation {
		return
	}
	q.vacation = false
	q.AddNotification(NotificationVacationEnd, nil)
	logrus.Tracef("[t=%g] %s: queue-access vacation ends", time, q.name)
}

func (q *Queue) cancelVacationEnd() {
	if !q.vacationEnd.IsZero() {
		q.CancelEvent(q.vacationEnd)
		q.vacationEnd = Handle{}
	}
}
