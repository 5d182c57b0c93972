package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// singleServer serves jobs in arrival order on one server; the discipline used by the
// queue tests of this package.
type singleServer struct {
	BaseDiscipline
}

func (singleServer) start(q *Queue, time float64) {
	for q.NumberOfJobsInService() == 0 && q.HasServerAccessCredits() {
		job := q.FirstWaiting()
		if job == nil {
			return
		}
		q.StartJob(job, time)
		if st := job.RequiredServiceTime(q); st == 0 {
			q.Depart(job, time)
		} else {
			q.ScheduleDeparture(job, time+st)
		}
	}
}

func (d singleServer) RescheduleAfterArrival(q *Queue, _ *Job, time float64) { d.start(q, time) }
func (d singleServer) RescheduleAfterDrop(q *Queue, _ *Job, time float64)    { d.start(q, time) }
func (d singleServer) RescheduleAfterRevocation(q *Queue, _ *Job, time float64, _ bool) {
	d.start(q, time)
}
func (d singleServer) RescheduleAfterDeparture(q *Queue, _ *Job, time float64) { d.start(q, time) }
func (d singleServer) RescheduleForNewCredits(q *Queue, time float64)         { d.start(q, time) }

func (singleServer) IsStartArmed(q *Queue) bool {
	return q.NumberOfJobs() == 0
}

// notificationLog records every notification it receives.
type notificationLog struct {
	got []Notification
}

func (l *notificationLog) Notify(n Notification) {
	l.got = append(l.got, n)
}

// jobEvents flattens the job sub-notifications into "KIND(job)@t" strings.
func (l *notificationLog) jobEvents() []string {
	var out []string
	for _, n := range l.got {
		for _, s := range n.Subs {
			if s.Job != nil {
				out = append(out, fmt.Sprintf("%s@%g", s, n.Time))
			}
		}
	}
	return out
}

func (l *notificationLog) count(k NotificationKind) int {
	c := 0
	for _, n := range l.got {
		for _, s := range n.Subs {
			if s.Kind == k {
				c++
			}
		}
	}
	return c
}

// newTestQueue returns a single-server queue at clock 0 with a log attached.
func newTestQueue(t *testing.T) (*EventList, *Queue, *notificationLog) {
	t.Helper()
	el := NewEventList()
	el.ResetTo(0)
	q := NewQueue(el, "q", singleServer{})
	log := &notificationLog{}
	q.RegisterListener(log)
	require.Equal(t, 0.0, q.LastUpdateTime())
	return el, q, log
}

// at schedules fn on el at time.
func at(t *testing.T, el *EventList, time float64, fn func(time float64)) {
	t.Helper()
	_, err := el.ScheduleAt(time, EventKindAction, "test", func(_ Handle, now float64) { fn(now) })
	require.NoError(t, err)
}
