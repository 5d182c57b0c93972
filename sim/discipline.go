package sim

// Discipline supplies the scheduling-specific hooks of a Queue.
//
// The Queue owns the lifecycle: it validates, updates, keeps the job set and the service
// set, manages credits and vacations, and emits the notifications. A Discipline decides where
// an arriving job goes, whether a revocation is allowed, and what happens next. From inside a
// hook it may only use the Queue's discipline primitives (StartJob, ScheduleDeparture, Depart,
// Drop, ScheduleEvent, CancelEvent), never Arrive or Revoke on the same queue.
//
// A Discipline instance serves a single Queue.
type Discipline interface {
	// InsertOnArrival returns the position in the job list at which job is inserted.
	InsertOnArrival(q *Queue, job *Job, time float64) int
	RescheduleAfterArrival(q *Queue, job *Job, time float64)

	// RemoveOnDrop removes job from the discipline's private structures.
	RemoveOnDrop(q *Queue, job *Job, time float64)
	RescheduleAfterDrop(q *Queue, job *Job, time float64)

	// RemoveOnRevocation reports whether job may be revoked and, if so, removes it from the
	// discipline's private structures.
	RemoveOnRevocation(q *Queue, job *Job, time float64, interruptService bool) bool
	RescheduleAfterRevocation(q *Queue, job *Job, time float64, interruptService bool)

	RemoveOnDeparture(q *Queue, job *Job, time float64)
	RescheduleAfterDeparture(q *Queue, job *Job, time float64)

	// RescheduleForNewCredits is invoked after server-access credits went from zero to positive.
	RescheduleForNewCredits(q *Queue, time float64)

	// IsStartArmed reports whether a job arriving now would start immediately, credits and
	// vacations aside.
	IsStartArmed(q *Queue) bool

	// Reset clears private state; the Queue has already cleared its own.
	Reset(q *Queue)
}

// CreditsWatcher is an optional Discipline extension. The Queue calls it, inside the same
// batch, after every explicit change of its server-access credits and before
// RescheduleForNewCredits.
type CreditsWatcher interface {
	ServerAccessCreditsChanged(q *Queue, time float64)
}

// BaseDiscipline provides no-op hooks for disciplines to embed. Revocation is refused for
// jobs in service unless interruptService is set.
type BaseDiscipline struct{}

// InsertOnArrival appends.
func (BaseDiscipline) InsertOnArrival(q *Queue, _ *Job, _ float64) int { return q.NumberOfJobs() }

func (BaseDiscipline) RescheduleAfterArrival(*Queue, *Job, float64) {}
func (BaseDiscipline) RemoveOnDrop(*Queue, *Job, float64)           {}
func (BaseDiscipline) RescheduleAfterDrop(*Queue, *Job, float64)    {}

// RemoveOnRevocation allows revoking waiting jobs, and jobs in service when interruptService is set.
func (BaseDiscipline) RemoveOnRevocation(q *Queue, job *Job, _ float64, interruptService bool) bool {
	return interruptService || !q.IsInService(job)
}

func (BaseDiscipline) RescheduleAfterRevocation(*Queue, *Job, float64, bool) {}
func (BaseDiscipline) RemoveOnDeparture(*Queue, *Job, float64)               {}
func (BaseDiscipline) RescheduleAfterDeparture(*Queue, *Job, float64)        {}
func (BaseDiscipline) RescheduleForNewCredits(*Queue, float64)               {}

// IsStartArmed reports true.
func (BaseDiscipline) IsStartArmed(*Queue) bool { return true }

func (BaseDiscipline) Reset(*Queue) {}
