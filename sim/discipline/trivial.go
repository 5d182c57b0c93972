package discipline

import (
	"github.com/jandejongh/jqueues-sub004/sim"
)

// Sink holds every job forever; jobs only leave by revocation.
type Sink struct {
	sim.BaseDiscipline
}

// IsStartArmed is always false: nothing ever starts.
func (Sink) IsStartArmed(*sim.Queue) bool { return false }

// Zero lets every job depart on arrival without starting it.
type Zero struct {
	sim.BaseDiscipline
}

// RescheduleAfterArrival departs the job.
func (Zero) RescheduleAfterArrival(q *sim.Queue, job *sim.Job, time float64) {
	q.Depart(job, time)
}

// IsStartArmed is always false: nothing ever starts.
func (Zero) IsStartArmed(*sim.Queue) bool { return false }

// Drop drops every job on arrival.
type Drop struct {
	sim.BaseDiscipline
}

// RescheduleAfterArrival drops the job.
func (Drop) RescheduleAfterArrival(q *sim.Queue, job *sim.Job, time float64) {
	q.Drop(job, time)
}

// IsStartArmed is always false: nothing ever starts.
func (Drop) IsStartArmed(*sim.Queue) bool { return false }
