package sim

import (
	"github.com/jandejongh/jqueues-sub004/sim/trace"
)

// Recorder is a Listener that copies notifications into a trace.SimulationTrace.
type Recorder struct {
	trace *trace.SimulationTrace
}

// NewRecorder returns a recorder writing into st.
func NewRecorder(st *trace.SimulationTrace) *Recorder {
	return &Recorder{trace: st}
}

// Trace returns the trace being written.
func (r *Recorder) Trace() *trace.SimulationTrace {
	return r.trace
}

// Attach registers the recorder on e for the kinds its trace level asks for.
func (r *Recorder) Attach(e *Entity) {
	switch r.trace.Config.Level {
	case trace.TraceLevelJobs:
		e.RegisterListener(r, JobNotificationKinds...)
	case trace.TraceLevelAll:
		e.RegisterListener(r)
	}
}

// Notify records n as one batch.
func (r *Recorder) Notify(n Notification) {
	batch := r.trace.NextBatch()
	for _, s := range n.Subs {
		rec := trace.Record{
			Time:   n.Time,
			Entity: n.Source.Name(),
			Batch:  batch,
			Kind:   string(s.Kind),
		}
		if s.Job != nil {
			rec.Job = s.Job.Name()
		}
		r.trace.Record(rec)
	}
}
