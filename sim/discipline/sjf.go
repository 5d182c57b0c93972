package discipline

import (
	"fmt"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// SJF starts the waiting job with the smallest required service time first, ties broken by
// arrival order. Warning: SJF can starve long jobs under sustained load.
type SJF struct {
	servers
}

// NewSJF creates a non-preemptive Shortest-Job-First discipline with c servers.
func NewSJF(c int) *SJF {
	if c <= 0 {
		panic(fmt.Sprintf("NewSJF: server count must be positive, got %d", c))
	}
	return &SJF{servers{count: c, next: shortestWaiting}}
}

func shortestWaiting(q *sim.Queue) *sim.Job {
	var best *sim.Job
	bestTime := 0.0
	for _, j := range q.JobsWaiting() {
		st := j.RequiredServiceTime(q)
		if best == nil || st < bestTime {
			best, bestTime = j, st
		}
	}
	return best
}
