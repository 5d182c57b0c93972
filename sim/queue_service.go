package sim

import (
	"github.com/sirupsen/logrus"
)

// StartJob moves a waiting job into service at time, consuming one server-access credit.
// It is a discipline primitive and panics with ErrInvalidState if the job is not waiting
// or the queue is out of credits.
func (q *Queue) StartJob(job *Job, time float64) {
	if job == nil || job.queue != q {
		invalidState("%s: start of a job that is not present", q.name)
	}
	if q.inServiceSet[job] {
		invalidState("%s: start of %s which is already in service", q.name, job.Name())
	}
	if q.credits == 0 {
		invalidState("%s: start of %s without server-access credits", q.name, job.Name())
	}
	top := q.BeginBatch(time)
	q.update(time)
	q.inServiceSet[job] = true
	q.inService = append(q.inService, job)
	q.AddNotification(NotificationStart, job)
	logrus.Tracef("[t=%g] %s: start of %s", time, q.name, job.Name())
	q.takeCredit()
	q.CommitBatch(top)
}

// ScheduleDeparture schedules the departure of job at time, replacing any departure already
// scheduled for it. The departure fires only while the returned handle is still registered.
func (q *Queue) ScheduleDeparture(job *Job, time float64) Handle {
	if job == nil || job.queue != q {
		invalidState("%s: departure scheduled for a job that is not present", q.name)
	}
	if h, ok := q.departures[job]; ok {
		q.CancelEvent(h)
	}
	var h Handle
	h = q.ScheduleEvent(time, EventKindDeparture, job.Name(), func(t float64) {
		if q.departures[job] != h {
			invalidState("%s: departure event of %s superseded but fired", q.name, job.Name())
		}
		delete(q.departures, job)
		q.Depart(job, t)
	})
	q.departures[job] = h
	return h
}

// DepartureHandle returns the handle of the departure scheduled for job, if any.
func (q *Queue) DepartureHandle(job *Job) (Handle, bool) {
	h, ok := q.departures[job]
	return h, ok
}

// ScheduleEvent schedules action on the queue's event list and tracks it as one of the
// queue's events. A tracked event that fires after having been dropped from the queue's
// bookkeeping panics with ErrInvalidState.
func (q *Queue) ScheduleEvent(time float64, kind EventKind, name string, action func(time float64)) Handle {
	h, err := q.eventList.ScheduleAt(time, kind, q.name+"/"+name, func(h Handle, t float64) {
		if _, ok := q.scheduled[h]; !ok {
			invalidState("%s: %s event %s fired but is not registered", q.name, kind, h)
		}
		delete(q.scheduled, h)
		action(t)
	})
	if err != nil {
		invalidState("%s: scheduling %s: %v", q.name, kind, err)
	}
	q.scheduled[h] = kind
	return h
}

// CancelEvent cancels an event scheduled through ScheduleEvent and reports whether it was pending.
func (q *Queue) CancelEvent(h Handle) bool {
	if _, ok := q.scheduled[h]; !ok {
		return false
	}
	delete(q.scheduled, h)
	return q.eventList.Remove(h)
}

// NumberOfScheduledEvents returns how many of the queue's events are pending.
func (q *Queue) NumberOfScheduledEvents() int {
	return len(q.scheduled)
}
