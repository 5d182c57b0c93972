// Package discipline provides scheduling disciplines for sim.Queue: non-preemptive
// multi-server queues (FCFS, LCFS, SJF, priority, bounded buffer) and the trivial
// SINK, ZERO and DROP stations.
package discipline

import (
	"github.com/jandejongh/jqueues-sub004/sim"
)

// selectFunc picks the next waiting job to start, nil if none.
type selectFunc func(q *sim.Queue) *sim.Job

// servers is the common part of the non-preemptive multi-server disciplines.
// A server count of zero means infinitely many servers.
type servers struct {
	sim.BaseDiscipline
	count int
	next  selectFunc
}

func (s *servers) hasFreeServer(q *sim.Queue) bool {
	return s.count == 0 || q.NumberOfJobsInService() < s.count
}

// startJobs starts waiting jobs for as long as servers and credits allow.
func (s *servers) startJobs(q *sim.Queue, time float64) {
	for q.HasServerAccessCredits() && s.hasFreeServer(q) {
		job := s.next(q)
		if job == nil {
			return
		}
		q.StartJob(job, time)
		serve(q, job, time)
	}
}

// serve schedules the departure of a started job; zero service time departs right away.
func serve(q *sim.Queue, job *sim.Job, time float64) {
	st := job.RequiredServiceTime(q)
	if st == 0 {
		q.Depart(job, time)
		return
	}
	q.ScheduleDeparture(job, time+st)
}

func (s *servers) RescheduleAfterArrival(q *sim.Queue, _ *sim.Job, time float64) {
	s.startJobs(q, time)
}

func (s *servers) RescheduleAfterDrop(q *sim.Queue, _ *sim.Job, time float64) {
	s.startJobs(q, time)
}

func (s *servers) RescheduleAfterRevocation(q *sim.Queue, _ *sim.Job, time float64, _ bool) {
	s.startJobs(q, time)
}

func (s *servers) RescheduleAfterDeparture(q *sim.Queue, _ *sim.Job, time float64) {
	s.startJobs(q, time)
}

func (s *servers) RescheduleForNewCredits(q *sim.Queue, time float64) {
	s.startJobs(q, time)
}

// IsStartArmed reports whether nobody waits and a server is free.
func (s *servers) IsStartArmed(q *sim.Queue) bool {
	return q.NumberOfJobsWaiting() == 0 && s.hasFreeServer(q)
}

// Servers returns the number of servers, zero meaning infinitely many.
func (s *servers) Servers() int {
	return s.count
}
