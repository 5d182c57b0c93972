package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jandejongh/jqueues-sub004/sim"
	"github.com/jandejongh/jqueues-sub004/sim/discipline"
)

func lookupOf(queues ...*sim.Queue) QueueLookup {
	return func(name string) (*sim.Queue, bool) {
		for _, q := range queues {
			if q.Name() == name {
				return q, true
			}
		}
		return nil, false
	}
}

func TestSchedule_ArrivalsReachQueue(t *testing.T) {
	// GIVEN a single-server FCFS queue and two jobs of service time 1
	el := sim.NewEventList()
	q := sim.NewQueue(el, "q", discipline.NewFCFS(1))
	var departures []string
	q.RegisterListener(sim.NewFuncListener(func(n sim.Notification) {
		for _, s := range n.Subs {
			departures = append(departures, s.Job.Name())
		}
	}), sim.NotificationDeparture)
	jobs := []JobArrival{
		{Name: "a", Target: "q", Time: 0, ServiceTime: 1},
		{Name: "b", Target: "q", Time: 0.5, ServiceTime: 1},
	}

	// WHEN scheduled and run
	require.NoError(t, Schedule(el, jobs, nil, lookupOf(q)))
	el.Run()

	// THEN both depart in order, the last at t=2
	assert.Equal(t, []string{"a", "b"}, departures)
	assert.Equal(t, 2.0, el.Clock())
	assert.Zero(t, q.NumberOfJobs())
}

func TestSchedule_PatienceRevokesWaitingJob(t *testing.T) {
	// GIVEN a busy server and an impatient second job
	el := sim.NewEventList()
	q := sim.NewQueue(el, "q", discipline.NewFCFS(1))
	var revoked []string
	q.RegisterListener(sim.NewFuncListener(func(n sim.Notification) {
		for _, s := range n.Subs {
			revoked = append(revoked, s.Job.Name())
		}
	}), sim.NotificationRevocation)
	jobs := []JobArrival{
		{Name: "a", Target: "q", Time: 0, ServiceTime: 10},
		{Name: "b", Target: "q", Time: 1, ServiceTime: 1, Patience: 2},
		{Name: "c", Target: "q", Time: 1, ServiceTime: 1, Patience: 20},
	}

	// WHEN run
	require.NoError(t, Schedule(el, jobs, nil, lookupOf(q)))
	el.Run()

	// THEN only b gives up; c outlasts a and is served
	assert.Equal(t, []string{"b"}, revoked)
	assert.Equal(t, 11.0, el.Clock())
}

func TestSchedule_PatienceCancelledOnceJobStarts(t *testing.T) {
	// GIVEN two patient jobs, the second waiting one time unit for the server
	el := sim.NewEventList()
	q := sim.NewQueue(el, "q", discipline.NewFCFS(1))
	jobs := []JobArrival{
		{Name: "a", Target: "q", Time: 0, ServiceTime: 1, Patience: 5},
		{Name: "b", Target: "q", Time: 0, ServiceTime: 1, Patience: 5},
	}
	require.NoError(t, Schedule(el, jobs, nil, lookupOf(q)))

	// WHEN b starts at t=1
	require.NoError(t, el.RunUntil(1, true, false))
	require.Equal(t, 1, q.NumberOfJobsInService())

	// THEN only b's departure is left and the run ends with it
	assert.Equal(t, 1, el.Len())
	el.Run()
	assert.Equal(t, 2.0, el.Clock())
}

func TestSchedule_PatienceDroppedJobLeavesNoEvent(t *testing.T) {
	el := sim.NewEventList()
	q := sim.NewQueue(el, "q", discipline.Drop{})
	jobs := []JobArrival{{Name: "a", Target: "q", Time: 0, ServiceTime: 1, Patience: 5}}
	require.NoError(t, Schedule(el, jobs, nil, lookupOf(q)))

	el.Run()

	assert.Equal(t, 0.0, el.Clock())
	assert.True(t, el.IsEmpty())
}

func TestSchedule_Controls(t *testing.T) {
	// GIVEN credits withdrawn at t=1 and restored at t=5, vacation during [6, 8)
	el := sim.NewEventList()
	q := sim.NewQueue(el, "q", discipline.NewFCFS(1))
	zero, one := 0, 1
	controls := []ControlSpec{
		{At: 1, Queue: "q", Action: ActionCredits, Credits: &zero},
		{At: 5, Queue: "q", Action: ActionCredits, Credits: &one},
		{At: 6, Queue: "q", Action: ActionVacationStart, Duration: 2},
	}
	jobs := []JobArrival{
		{Name: "a", Target: "q", Time: 2, ServiceTime: 0.5},
		{Name: "b", Target: "q", Time: 7, ServiceTime: 0.5},
	}
	var kinds []sim.NotificationKind
	q.RegisterListener(sim.NewFuncListener(func(n sim.Notification) {
		for _, s := range n.Subs {
			kinds = append(kinds, s.Kind)
		}
	}), sim.NotificationStart, sim.NotificationDrop, sim.NotificationVacationEnd)

	// WHEN run
	require.NoError(t, Schedule(el, jobs, controls, lookupOf(q)))
	el.Run()

	// THEN a starts only at t=5, b is dropped on vacation, the vacation ends at t=8
	assert.Equal(t, []sim.NotificationKind{sim.NotificationStart, sim.NotificationDrop, sim.NotificationVacationEnd}, kinds)
	assert.Equal(t, 8.0, el.Clock())
	assert.Zero(t, q.ServerAccessCredits())
}

func TestSchedule_UnknownTarget(t *testing.T) {
	el := sim.NewEventList()
	err := Schedule(el, []JobArrival{{Name: "a", Target: "nowhere"}}, nil, lookupOf())
	assert.Error(t, err)
}
