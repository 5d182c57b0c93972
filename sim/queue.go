// Implements the Queue lifecycle: arrival, drop, revocation, departure, reset.
// Vacations and server-access credits live in queue_vacation.go and queue_credits.go;
// the primitives disciplines drive service with live in queue_service.go.

package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// InfiniteCredits is the server-access credit count that is never decremented.
const InfiniteCredits = math.MaxInt

// Queue is a service station. Its scheduling behavior is supplied by a Discipline; the Queue
// itself guarantees the lifecycle contract: every top-level operation validates, updates,
// mutates, notifies and reschedules, and produces exactly one atomic notification batch.
type Queue struct {
	Entity

	discipline Discipline

	jobs         []*Job // arrival order unless the discipline inserted elsewhere
	inService    []*Job // start order
	inServiceSet map[*Job]bool

	departures map[*Job]Handle
	scheduled  map[Handle]EventKind

	vacation    bool
	vacationEnd Handle

	credits    int
	startArmed bool
}

// NewQueue creates a queue attached to el and registers it for EventList resets.
func NewQueue(el *EventList, name string, d Discipline) *Queue {
	if el == nil {
		panic(fmt.Sprintf("NewQueue(%q): nil event list", name))
	}
	if d == nil {
		panic(fmt.Sprintf("NewQueue(%q): nil discipline", name))
	}
	q := &Queue{
		discipline:   d,
		inServiceSet: make(map[*Job]bool),
		departures:   make(map[*Job]Handle),
		scheduled:    make(map[Handle]EventKind),
		credits:      InfiniteCredits,
	}
	q.initEntity(el, name)
	q.beforeCommit = q.checkStartArmed
	q.startArmed = d.IsStartArmed(q)
	el.AddResetListener(q)
	return q
}

// Discipline returns the queue's discipline.
func (q *Queue) Discipline() Discipline {
	return q.discipline
}

// Jobs returns the jobs present, in queue order.
func (q *Queue) Jobs() []*Job {
	return append([]*Job(nil), q.jobs...)
}

// JobsWaiting returns the jobs present but not in service, in queue order.
func (q *Queue) JobsWaiting() []*Job {
	waiting := make([]*Job, 0, len(q.jobs)-len(q.inService))
	for _, j := range q.jobs {
		if !q.inServiceSet[j] {
			waiting = append(waiting, j)
		}
	}
	return waiting
}

// FirstWaiting returns the first job in queue order that is not in service, or nil.
func (q *Queue) FirstWaiting() *Job {
	for _, j := range q.jobs {
		if !q.inServiceSet[j] {
			return j
		}
	}
	return nil
}

// JobsInService returns the jobs in service, in start order.
func (q *Queue) JobsInService() []*Job {
	return append([]*Job(nil), q.inService...)
}

// NumberOfJobs returns the number of jobs present.
func (q *Queue) NumberOfJobs() int {
	return len(q.jobs)
}

// NumberOfJobsInService returns the number of jobs in service.
func (q *Queue) NumberOfJobsInService() int {
	return len(q.inService)
}

// NumberOfJobsWaiting returns the number of jobs present but not in service.
func (q *Queue) NumberOfJobsWaiting() int {
	return len(q.jobs) - len(q.inService)
}

// Contains reports whether job is present.
func (q *Queue) Contains(job *Job) bool {
	return job != nil && job.queue == q
}

// IsInService reports whether job is in service.
func (q *Queue) IsInService(job *Job) bool {
	return q.inServiceSet[job]
}

// IsStartArmed reports the discipline's start-armed status.
func (q *Queue) IsStartArmed() bool {
	return q.discipline.IsStartArmed(q)
}

// Arrive lets job enter the queue at time.
//
// It fails with ErrInvalidArgument if job visits a queue already, if time lies before the last
// update, or if the job's required service time is negative. On vacation the job is dropped
// within the same batch.
func (q *Queue) Arrive(job *Job, time float64) error {
	if job == nil {
		return invalidArgument("%s: arrival of nil job", q.name)
	}
	q.guardTopLevel("arrive")
	if job.queue != nil {
		return invalidArgument("%s: arrival of %s which is visiting %s", q.name, job.Name(), job.queue.Name())
	}
	if err := q.checkTime("arrive", time); err != nil {
		return err
	}
	if st := job.RequiredServiceTime(q); st < 0 || math.IsNaN(st) {
		return invalidArgument("%s: arrival of %s with service time %g", q.name, job.Name(), st)
	}
	for _, j := range q.jobs {
		if j == job {
			invalidState("%s: %s present without back-reference", q.name, job.Name())
		}
	}

	top := q.BeginBatch(time)
	q.update(time)
	pos := q.discipline.InsertOnArrival(q, job, time)
	if pos < 0 || pos > len(q.jobs) {
		invalidState("%s: discipline inserted %s at %d of %d", q.name, job.Name(), pos, len(q.jobs))
	}
	q.jobs = append(q.jobs, nil)
	copy(q.jobs[pos+1:], q.jobs[pos:])
	q.jobs[pos] = job
	job.queue = q
	q.AddNotification(NotificationArrival, job)
	logrus.Tracef("[t=%g] %s: arrival of %s", time, q.name, job.Name())
	if q.vacation {
		q.drop(job, time)
	} else {
		q.discipline.RescheduleAfterArrival(q, job, time)
	}
	q.CommitBatch(top)
	return nil
}

// Revoke asks the queue to give up job at time and reports whether it did.
//
// The discipline may refuse, typically because the job is in service and interruptService
// is false. It fails with ErrInvalidArgument if job is not present.
func (q *Queue) Revoke(job *Job, time float64, interruptService bool) (bool, error) {
	if job == nil {
		return false, invalidArgument("%s: revocation of nil job", q.name)
	}
	q.guardTopLevel("revoke")
	if job.queue != q {
		return false, invalidArgument("%s: revocation of %s which is not present", q.name, job.Name())
	}
	if err := q.checkTime("revoke", time); err != nil {
		return false, err
	}

	top := q.BeginBatch(time)
	q.update(time)
	if !q.discipline.RemoveOnRevocation(q, job, time, interruptService) {
		q.CommitBatch(top)
		return false, nil
	}
	q.remove(job)
	q.AddNotification(NotificationRevocation, job)
	logrus.Tracef("[t=%g] %s: revocation of %s", time, q.name, job.Name())
	q.discipline.RescheduleAfterRevocation(q, job, time, interruptService)
	q.CommitBatch(top)
	return true, nil
}

// Drop removes job from the queue on the queue's own initiative. It is a discipline
// primitive: the job must be present, otherwise it panics with ErrInvalidState.
func (q *Queue) Drop(job *Job, time float64) {
	if job == nil || job.queue != q {
		invalidState("%s: drop of a job that is not present", q.name)
	}
	top := q.BeginBatch(time)
	q.drop(job, time)
	q.CommitBatch(top)
}

func (q *Queue) drop(job *Job, time float64) {
	q.update(time)
	q.discipline.RemoveOnDrop(q, job, time)
	q.remove(job)
	q.AddNotification(NotificationDrop, job)
	logrus.Tracef("[t=%g] %s: drop of %s", time, q.name, job.Name())
	q.discipline.RescheduleAfterDrop(q, job, time)
}

// Depart lets job leave the queue at time. It is a discipline primitive used for
// immediate departures; scheduled departures go through ScheduleDeparture.
func (q *Queue) Depart(job *Job, time float64) {
	if job == nil || job.queue != q {
		invalidState("%s: departure of a job that is not present", q.name)
	}
	top := q.BeginBatch(time)
	q.update(time)
	q.discipline.RemoveOnDeparture(q, job, time)
	q.remove(job)
	q.AddNotification(NotificationDeparture, job)
	logrus.Tracef("[t=%g] %s: departure of %s", time, q.name, job.Name())
	q.discipline.RescheduleAfterDeparture(q, job, time)
	q.CommitBatch(top)
}

// remove takes job out of every queue structure, cancels its pending departure and clears
// the back-reference.
func (q *Queue) remove(job *Job) {
	idx := -1
	for i, j := range q.jobs {
		if j == job {
			idx = i
			break
		}
	}
	if idx < 0 {
		invalidState("%s: %s has a back-reference but is not present", q.name, job.Name())
	}
	q.jobs = append(q.jobs[:idx], q.jobs[idx+1:]...)
	if q.inServiceSet[job] {
		delete(q.inServiceSet, job)
		for i, j := range q.inService {
			if j == job {
				q.inService = append(q.inService[:i], q.inService[i+1:]...)
				break
			}
		}
	}
	if h, ok := q.departures[job]; ok {
		q.CancelEvent(h)
		delete(q.departures, job)
	}
	job.queue = nil
}

// Reset returns the queue to its ground state: empty, no vacation, infinite credits,
// nothing scheduled. It fires a singleton RESET notification.
func (q *Queue) Reset() {
	q.guardTopLevel("reset")
	for h := range q.scheduled {
		q.eventList.Remove(h)
	}
	q.scheduled = make(map[Handle]EventKind)
	q.departures = make(map[*Job]Handle)
	for _, j := range q.jobs {
		if j.queue == q {
			j.queue = nil
		}
	}
	q.jobs = nil
	q.inService = nil
	q.inServiceSet = make(map[*Job]bool)
	q.vacation = false
	q.vacationEnd = Handle{}
	q.credits = InfiniteCredits
	q.discipline.Reset(q)
	q.startArmed = q.discipline.IsStartArmed(q)
	q.resetEntity()
}

// checkStartArmed reports a start-armed change when a top-level batch closes.
func (q *Queue) checkStartArmed() {
	sta := q.discipline.IsStartArmed(q)
	if sta == q.startArmed {
		return
	}
	q.update(q.batch.Time())
	q.startArmed = sta
	if sta {
		q.AddNotification(NotificationStartArmed, nil)
	} else {
		q.AddNotification(NotificationLostStartArmed, nil)
	}
}

func (q *Queue) String() string {
	var sb strings.Builder
	sb.WriteString(q.name)
	sb.WriteString("[")
	for i, j := range q.jobs {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(j.Name())
		if q.inServiceSet[j] {
			sb.WriteString("*")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
