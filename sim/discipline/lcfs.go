package discipline

import (
	"fmt"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// LCFS serves the most recent arrival first, without preemption.
type LCFS struct {
	servers
}

// NewLCFS creates a non-preemptive Last-Come-First-Served discipline with c servers.
func NewLCFS(c int) *LCFS {
	if c <= 0 {
		panic(fmt.Sprintf("NewLCFS: server count must be positive, got %d", c))
	}
	return &LCFS{servers{count: c, next: (*sim.Queue).FirstWaiting}}
}

// InsertOnArrival puts the arrival in front.
func (d *LCFS) InsertOnArrival(*sim.Queue, *sim.Job, float64) int {
	return 0
}
