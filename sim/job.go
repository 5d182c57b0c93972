package sim

import "fmt"

// ServiceTimeFunc returns the service time a job requires at a given queue.
type ServiceTimeFunc func(q *Queue) float64

// Job is an entity that visits at most one Queue at a time.
//
// The queue a job visits is a back-reference owned by that queue: only Queue operations set
// or clear it, and Queue() is non-nil exactly while the queue holds the job.
type Job struct {
	Entity

	queue       *Queue
	serviceTime ServiceTimeFunc
}

// NewJob creates a job that requires serviceTime at every queue it visits.
// el may be nil; a job attached to an EventList is reset with it.
func NewJob(el *EventList, name string, serviceTime float64) *Job {
	return NewJobWithServiceTime(el, name, func(*Queue) float64 { return serviceTime })
}

// NewJobWithServiceTime creates a job whose required service time depends on the queue.
func NewJobWithServiceTime(el *EventList, name string, fn ServiceTimeFunc) *Job {
	if fn == nil {
		panic(fmt.Sprintf("NewJobWithServiceTime(%q): nil service time function", name))
	}
	j := &Job{serviceTime: fn}
	j.initEntity(el, name)
	if el != nil {
		el.AddResetListener(j)
	}
	return j
}

// Queue returns the queue the job is visiting, nil if none.
func (j *Job) Queue() *Queue {
	return j.queue
}

// RequiredServiceTime returns the service time the job requires at q.
func (j *Job) RequiredServiceTime(q *Queue) float64 {
	return j.serviceTime(q)
}

// Reset fires the job's RESET notification. The queue back-reference is cleared by the
// queue holding the job when that queue resets.
func (j *Job) Reset() {
	j.resetEntity()
}

func (j *Job) String() string {
	if j.queue == nil {
		return j.name
	}
	return fmt.Sprintf("%s@%s", j.name, j.queue.Name())
}
