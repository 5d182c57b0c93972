package discipline

import (
	"fmt"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// FCFS serves jobs in arrival order on a fixed number of servers.
type FCFS struct {
	servers
}

// NewFCFS creates a First-Come-First-Served discipline with c servers.
// Panics if c is not positive; use NewIS for infinitely many servers.
func NewFCFS(c int) *FCFS {
	if c <= 0 {
		panic(fmt.Sprintf("NewFCFS: server count must be positive, got %d", c))
	}
	return &FCFS{servers{count: c, next: (*sim.Queue).FirstWaiting}}
}

// NewIS creates an infinite-server discipline: every job starts on arrival.
func NewIS() *FCFS {
	return &FCFS{servers{count: 0, next: (*sim.Queue).FirstWaiting}}
}

// BoundedFCFS is FCFS with a waiting room of fixed size; arrivals that find it full are dropped.
type BoundedFCFS struct {
	servers
	buffer int
}

// NewBoundedFCFS creates FCFS with c servers and room for buffer waiting jobs.
func NewBoundedFCFS(c, buffer int) *BoundedFCFS {
	if c <= 0 {
		panic(fmt.Sprintf("NewBoundedFCFS: server count must be positive, got %d", c))
	}
	if buffer < 0 {
		panic(fmt.Sprintf("NewBoundedFCFS: buffer size must be non-negative, got %d", buffer))
	}
	return &BoundedFCFS{servers: servers{count: c, next: (*sim.Queue).FirstWaiting}, buffer: buffer}
}

// RescheduleAfterArrival starts what it can, then drops the arrival if it overflows the buffer.
func (d *BoundedFCFS) RescheduleAfterArrival(q *sim.Queue, job *sim.Job, time float64) {
	d.startJobs(q, time)
	if q.Contains(job) && !q.IsInService(job) && q.NumberOfJobsWaiting() > d.buffer {
		q.Drop(job, time)
	}
}

// Buffer returns the size of the waiting room.
func (d *BoundedFCFS) Buffer() int {
	return d.buffer
}
