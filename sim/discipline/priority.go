package discipline

import (
	"cmp"
	"fmt"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// Priority starts the waiting job with the smallest priority value first, ties broken by
// arrival order. Jobs in service are never preempted.
type Priority[P cmp.Ordered] struct {
	servers
	priority func(*sim.Job) P
}

// NewPriority creates a non-preemptive priority discipline with c servers.
func NewPriority[P cmp.Ordered](c int, priority func(*sim.Job) P) *Priority[P] {
	if c <= 0 {
		panic(fmt.Sprintf("NewPriority: server count must be positive, got %d", c))
	}
	if priority == nil {
		panic("NewPriority: priority function must not be nil")
	}
	d := &Priority[P]{priority: priority}
	d.servers = servers{count: c, next: d.highestWaiting}
	return d
}

func (d *Priority[P]) highestWaiting(q *sim.Queue) *sim.Job {
	var best *sim.Job
	var bestPrio P
	for _, j := range q.JobsWaiting() {
		p := d.priority(j)
		if best == nil || p < bestPrio {
			best, bestPrio = j, p
		}
	}
	return best
}
