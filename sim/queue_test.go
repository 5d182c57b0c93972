package sim

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_SingleJob_StartsOnArrivalAndDeparts(t *testing.T) {
	// GIVEN an empty single-server queue at t=0
	el, q, log := newTestQueue(t)
	a := NewJob(nil, "A", 5)

	// WHEN A arrives at t=0 requiring 5 units of service
	require.NoError(t, q.Arrive(a, 0))

	// THEN arrival and start form one batch, and A is in service
	require.Len(t, log.got, 1)
	assert.Equal(t, []NotificationKind{
		NotificationUpdate, NotificationArrival, NotificationStart,
		NotificationLostStartArmed, NotificationStateChanged,
	}, log.got[0].Kinds())
	assert.Same(t, q, a.Queue())
	assert.True(t, q.IsInService(a))

	// WHEN the simulation runs
	el.Run()

	// THEN A departs at t=5 and the queue is empty and start-armed again
	assert.Equal(t, []string{"ARRIVAL(A)@0", "START(A)@0", "DEPARTURE(A)@5"}, log.jobEvents())
	require.Len(t, log.got, 2)
	assert.Equal(t, []NotificationKind{
		NotificationUpdate, NotificationDeparture, NotificationStartArmed, NotificationStateChanged,
	}, log.got[1].Kinds())
	assert.Nil(t, a.Queue())
	assert.Equal(t, 0, q.NumberOfJobs())
	assert.True(t, q.IsStartArmed())
	assert.Equal(t, 5.0, q.LastUpdateTime())
}

func TestQueue_FCFS_ServesInArrivalOrder(t *testing.T) {
	// GIVEN three jobs arriving while the server is busy
	el, q, log := newTestQueue(t)
	at(t, el, 0, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "A", 2), now)) })
	at(t, el, 1, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "B", 2), now)) })
	at(t, el, 1, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "C", 2), now)) })

	// WHEN the simulation runs
	el.Run()

	// THEN each job starts when its predecessor departs
	assert.Equal(t, []string{
		"ARRIVAL(A)@0", "START(A)@0",
		"ARRIVAL(B)@1",
		"ARRIVAL(C)@1",
		"DEPARTURE(A)@2", "START(B)@2",
		"DEPARTURE(B)@4", "START(C)@4",
		"DEPARTURE(C)@6",
	}, log.jobEvents())
}

func TestQueue_Vacation_DropsArrivals(t *testing.T) {
	// GIVEN a queue on a vacation that never ends
	el, q, log := newTestQueue(t)
	require.NoError(t, q.StartVacation(0))
	a := NewJob(nil, "A", 5)

	// WHEN A arrives at t=1
	at(t, el, 1, func(now float64) { require.NoError(t, q.Arrive(a, now)) })
	el.Run()

	// THEN A is dropped within its arrival batch and never starts
	require.Len(t, log.got, 2)
	assert.Equal(t, []NotificationKind{
		NotificationUpdate, NotificationVacationStart, NotificationStateChanged,
	}, log.got[0].Kinds())
	assert.Equal(t, []NotificationKind{
		NotificationUpdate, NotificationArrival, NotificationDrop, NotificationStateChanged,
	}, log.got[1].Kinds())
	assert.Equal(t, 0, log.count(NotificationStart))
	assert.Nil(t, a.Queue())
	assert.True(t, q.IsOnVacation())
}

func TestQueue_StartVacation_Idempotent(t *testing.T) {
	_, q, log := newTestQueue(t)

	require.NoError(t, q.StartVacation(0))
	require.NoError(t, q.StartVacation(1))
	require.NoError(t, q.StopVacation(2))
	require.NoError(t, q.StopVacation(3))

	assert.Equal(t, 1, log.count(NotificationVacationStart))
	assert.Equal(t, 1, log.count(NotificationVacationEnd))
	assert.Equal(t, 2, log.count(NotificationStateChanged))
	assert.False(t, q.IsOnVacation())
}

func TestQueue_StartVacationFor_EndsAutomatically(t *testing.T) {
	// GIVEN a vacation of 3 time units starting at t=0
	el, q, log := newTestQueue(t)
	require.NoError(t, q.StartVacationFor(0, 3))
	at(t, el, 2, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "A", 1), now)) })
	at(t, el, 4, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "B", 1), now)) })

	// WHEN the simulation runs
	el.Run()

	// THEN A is dropped during the vacation and B is served after it
	assert.Equal(t, []string{
		"ARRIVAL(A)@2", "DROP(A)@2",
		"ARRIVAL(B)@4", "START(B)@4", "DEPARTURE(B)@5",
	}, log.jobEvents())
	assert.Equal(t, 1, log.count(NotificationVacationEnd))
	assert.False(t, q.IsOnVacation())
}

func TestQueue_StopVacation_CancelsScheduledEnd(t *testing.T) {
	el, q, log := newTestQueue(t)
	require.NoError(t, q.StartVacationFor(0, 10))
	require.Equal(t, 1, q.NumberOfScheduledEvents())

	require.NoError(t, q.StopVacation(1))
	el.Run()

	assert.Equal(t, 0, q.NumberOfScheduledEvents())
	assert.Equal(t, 1, log.count(NotificationVacationEnd))
}

func TestQueue_Credits_RegainedStartsExactlyOneJob(t *testing.T) {
	// GIVEN a queue without credits and two waiting jobs
	el, q, log := newTestQueue(t)
	require.NoError(t, q.SetServerAccessCredits(0, 0))
	at(t, el, 1, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "A", 5), now)) })
	at(t, el, 2, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, "B", 5), now)) })
	require.NoError(t, el.RunUntil(10, false, true))
	require.Equal(t, 2, q.NumberOfJobsWaiting())

	// WHEN one credit is granted at t=10
	require.NoError(t, q.SetServerAccessCredits(10, 1))
	el.Run()

	// THEN exactly one REGAINED and one start occur at t=10, and B never starts
	last := func(k NotificationKind) []float64 {
		var times []float64
		for _, n := range log.got {
			if n.Has(k) {
				times = append(times, n.Time)
			}
		}
		return times
	}
	assert.Equal(t, []float64{10}, last(NotificationRegainedCredits))
	assert.Equal(t, []float64{10}, last(NotificationStart))
	assert.Equal(t, []float64{0, 10}, last(NotificationOutOfCredits))
	assert.Equal(t, []string{"ARRIVAL(A)@1", "ARRIVAL(B)@2", "START(A)@10", "DEPARTURE(A)@15"}, log.jobEvents())
	assert.Equal(t, 0, q.ServerAccessCredits())
	assert.Equal(t, 1, q.NumberOfJobsWaiting())
}

func TestQueue_Credits_RegainAndConsumeInOneBatch(t *testing.T) {
	// GIVEN a queue without credits holding a waiting job
	_, q, log := newTestQueue(t)
	require.NoError(t, q.SetServerAccessCredits(0, 0))
	require.NoError(t, q.Arrive(NewJob(nil, "A", 5), 1))

	// WHEN one credit is granted
	require.NoError(t, q.SetServerAccessCredits(2, 1))

	// THEN the credit is regained and consumed within the same notification
	n := log.got[len(log.got)-1]
	assert.Equal(t, []NotificationKind{
		NotificationUpdate, NotificationRegainedCredits, NotificationStart,
		NotificationOutOfCredits, NotificationStateChanged,
	}, n.Kinds())
}

func TestQueue_Credits_NegativeRejected(t *testing.T) {
	_, q, log := newTestQueue(t)

	err := q.SetServerAccessCredits(0, -1)

	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Empty(t, log.got)
	assert.Equal(t, InfiniteCredits, q.ServerAccessCredits())
}

func TestQueue_Credits_InfiniteNeverDecremented(t *testing.T) {
	el, q, log := newTestQueue(t)
	for i, name := range []string{"A", "B", "C"} {
		name, tm := name, float64(i)
		at(t, el, tm, func(now float64) { require.NoError(t, q.Arrive(NewJob(nil, name, 1), now)) })
	}

	el.Run()

	assert.Equal(t, InfiniteCredits, q.ServerAccessCredits())
	assert.Equal(t, 0, log.count(NotificationOutOfCredits))
	assert.Equal(t, 3, log.count(NotificationDeparture))
}

func TestQueue_Revoke_InServiceRequiresInterrupt(t *testing.T) {
	// GIVEN A in service from t=0 until t=10
	el, q, log := newTestQueue(t)
	a := NewJob(nil, "A", 10)
	require.NoError(t, q.Arrive(a, 0))

	// WHEN A is revoked at t=3 without interrupting service
	ok, err := q.Revoke(a, 3, false)

	// THEN the revocation is refused and A departs as scheduled
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, q, a.Queue())
	el.Run()
	assert.Equal(t, []string{"ARRIVAL(A)@0", "START(A)@0", "DEPARTURE(A)@10"}, log.jobEvents())
}

func TestQueue_Revoke_InterruptRemovesJob(t *testing.T) {
	// GIVEN A in service from t=0 until t=10
	el, q, log := newTestQueue(t)
	a := NewJob(nil, "A", 10)
	require.NoError(t, q.Arrive(a, 0))

	// WHEN A is revoked at t=3 interrupting service
	ok, err := q.Revoke(a, 3, true)

	// THEN A leaves, its departure is cancelled and nothing else happens
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, a.Queue())
	assert.Equal(t, 0, q.NumberOfScheduledEvents())
	el.Run()
	assert.Equal(t, []string{"ARRIVAL(A)@0", "START(A)@0", "REVOCATION(A)@3"}, log.jobEvents())
	assert.Equal(t, 0, log.count(NotificationDeparture))
}

func TestQueue_Revoke_WaitingJobLeavesServerUntouched(t *testing.T) {
	el, q, log := newTestQueue(t)
	a := NewJob(nil, "A", 4)
	b := NewJob(nil, "B", 4)
	require.NoError(t, q.Arrive(a, 0))
	require.NoError(t, q.Arrive(b, 1))

	ok, err := q.Revoke(b, 2, false)
	require.NoError(t, err)
	el.Run()

	assert.True(t, ok)
	assert.Equal(t, []string{
		"ARRIVAL(A)@0", "START(A)@0", "ARRIVAL(B)@1", "REVOCATION(B)@2", "DEPARTURE(A)@4",
	}, log.jobEvents())
}

func TestQueue_Revoke_AbsentJob_Fails(t *testing.T) {
	_, q, _ := newTestQueue(t)

	_, err := q.Revoke(NewJob(nil, "ghost", 1), 0, true)

	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestQueue_Arrive_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		setup func(q, other *Queue) (*Job, float64)
	}{
		{
			name: "job visiting another queue",
			setup: func(_, other *Queue) (*Job, float64) {
				j := NewJob(nil, "busy", 10)
				require.NoError(t, other.Arrive(j, 0))
				return j, 0
			},
		},
		{
			name: "time before last update",
			setup: func(q, _ *Queue) (*Job, float64) {
				require.NoError(t, q.Update(5))
				return NewJob(nil, "late", 1), 4
			},
		},
		{
			name:  "negative service time",
			setup: func(_, _ *Queue) (*Job, float64) { return NewJob(nil, "neg", -1), 0 },
		},
		{
			name:  "NaN time",
			setup: func(_, _ *Queue) (*Job, float64) { return NewJob(nil, "nan", 1), math.NaN() },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, q, log := newTestQueue(t)
			other := NewQueue(el, "other", singleServer{})
			job, tm := tt.setup(q, other)
			before := len(log.got)

			err := q.Arrive(job, tm)

			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
			assert.False(t, q.Contains(job))
			// a rejected arrival produces no ARRIVAL
			for _, n := range log.got[before:] {
				assert.False(t, n.Has(NotificationArrival))
			}
		})
	}
}

func TestQueue_Arrive_SameJobTwice_Fails(t *testing.T) {
	_, q, _ := newTestQueue(t)
	a := NewJob(nil, "A", 10)
	require.NoError(t, q.Arrive(a, 0))

	err := q.Arrive(a, 1)

	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, 1, q.NumberOfJobs())
}

func TestQueue_ZeroServiceTime_DepartsInArrivalBatch(t *testing.T) {
	_, q, log := newTestQueue(t)

	require.NoError(t, q.Arrive(NewJob(nil, "Z", 0), 1))

	require.Len(t, log.got, 1)
	assert.Equal(t, []NotificationKind{
		NotificationUpdate, NotificationArrival, NotificationStart, NotificationDeparture,
		NotificationStateChanged,
	}, log.got[0].Kinds())
	assert.True(t, q.IsStartArmed())
}

func TestQueue_Residency_JobInAtMostOneQueue(t *testing.T) {
	// GIVEN two queues and a job routed from one to the other on departure
	el, q1, _ := newTestQueue(t)
	q2 := NewQueue(el, "q2", singleServer{})
	job := NewJob(nil, "J", 1)
	var seen []*Queue
	check := NewFuncListener(func(n Notification) {
		for _, s := range n.Subs {
			if s.Job == job {
				seen = append(seen, job.Queue())
			}
		}
	})
	q1.RegisterListener(check)
	q2.RegisterListener(check)
	q1.RegisterListener(NewFuncListener(func(n Notification) {
		if n.Has(NotificationDeparture) {
			q1.AfterNotifications(func() { require.NoError(t, q2.Arrive(job, n.Time)) })
		}
	}))

	// WHEN the job traverses both queues
	require.NoError(t, q1.Arrive(job, 0))
	el.Run()

	// THEN while in q1 its back-reference is q1, after leaving it is nil, and so on
	assert.Nil(t, job.Queue())
	assert.Equal(t, []*Queue{q1, q1, nil, q2, q2, nil}, seen)
	assert.Equal(t, 2.0, el.Clock())
}

func TestQueue_ListenerMutatingSource_PanicsInvalidState(t *testing.T) {
	// GIVEN a listener that arrives a job at the queue notifying it
	_, q, _ := newTestQueue(t)
	q.RegisterListener(NewFuncListener(func(n Notification) {
		if n.Has(NotificationArrival) {
			_ = q.Arrive(NewJob(nil, "nested", 1), n.Time)
		}
	}))

	// WHEN a job arrives
	// THEN the re-entrant arrival panics
	requireInvalidState(t, func() { _ = q.Arrive(NewJob(nil, "A", 1), 0) })
}

func TestQueue_AfterNotifications_RunsOnceDispatchIsDone(t *testing.T) {
	// GIVEN a listener that revokes every arriving job after the arrival notification
	el, q, log := newTestQueue(t)
	q.RegisterListener(NewFuncListener(func(n Notification) {
		for _, s := range n.Subs {
			if s.Kind != NotificationArrival {
				continue
			}
			job := s.Job
			q.AfterNotifications(func() {
				ok, err := q.Revoke(job, n.Time, true)
				require.NoError(t, err)
				assert.True(t, ok)
			})
		}
	}))

	// WHEN a job arrives
	require.NoError(t, q.Arrive(NewJob(nil, "A", 5), 0))
	el.Run()

	// THEN arrival and revocation are two separate notifications at the same time
	require.Len(t, log.got, 2)
	assert.Equal(t, []string{"ARRIVAL(A)@0", "START(A)@0", "REVOCATION(A)@0"}, log.jobEvents())
	assert.Equal(t, 0, log.count(NotificationDeparture))
}

func TestQueue_Update_NoMutationHasNoStateChanged(t *testing.T) {
	_, q, log := newTestQueue(t)

	require.NoError(t, q.Update(2))

	require.Len(t, log.got, 1)
	assert.Equal(t, []NotificationKind{NotificationUpdate}, log.got[0].Kinds())
}

func TestQueue_EventListReset_EmptiesQueue(t *testing.T) {
	// GIVEN a busy queue with a waiting job, no credits and a vacation
	el, q, log := newTestQueue(t)
	a := NewJob(el, "A", 10)
	b := NewJob(el, "B", 10)
	require.NoError(t, q.Arrive(a, 0))
	require.NoError(t, q.Arrive(b, 0))
	require.NoError(t, q.SetServerAccessCredits(1, 0))
	require.NoError(t, q.StartVacationFor(1, 5))

	// WHEN the event list is reset
	el.ResetTo(0)

	// THEN the queue is back in its ground state and fired a RESET-only notification
	assert.Equal(t, 0, q.NumberOfJobs())
	assert.Equal(t, 0, q.NumberOfScheduledEvents())
	assert.Nil(t, a.Queue())
	assert.Nil(t, b.Queue())
	assert.False(t, q.IsOnVacation())
	assert.Equal(t, InfiniteCredits, q.ServerAccessCredits())
	assert.True(t, q.IsStartArmed())
	assert.True(t, el.IsEmpty())
	lastN := log.got[len(log.got)-1]
	assert.Equal(t, []NotificationKind{NotificationReset}, lastN.Kinds())

	// and the queue serves again from scratch
	require.NoError(t, q.Arrive(a, 0))
	el.Run()
	assert.Equal(t, 10.0, el.Clock())
	assert.Nil(t, a.Queue())
}

func TestQueue_String_MarksJobsInService(t *testing.T) {
	_, q, _ := newTestQueue(t)
	require.NoError(t, q.Arrive(NewJob(nil, "A", 5), 0))
	require.NoError(t, q.Arrive(NewJob(nil, "B", 5), 0))

	assert.Equal(t, "q[A* B]", q.String())
}

func TestQueue_NewQueue_NilArguments_Panic(t *testing.T) {
	assert.Panics(t, func() { NewQueue(nil, "x", singleServer{}) })
	assert.Panics(t, func() { NewQueue(NewEventList(), "x", nil) })
}
