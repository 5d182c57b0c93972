package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// QueueLookup resolves a queue by name.
type QueueLookup func(name string) (*sim.Queue, bool)

// Schedule puts the arrivals and controls on el. Arriving jobs are detached from el, so an
// event list reset does not touch them. A job with patience is revoked, without
// interrupting service, if it is still waiting at the same queue when its patience runs out.
// Its patience event is cancelled as soon as it starts or leaves.
func Schedule(el *sim.EventList, jobs []JobArrival, controls []ControlSpec, lookup QueueLookup) error {
	watchers := make(map[*sim.Queue]*patienceWatcher)
	for _, a := range jobs {
		q, ok := lookup(a.Target)
		if !ok {
			return fmt.Errorf("job %s: unknown target queue %q", a.Name, a.Target)
		}
		var w *patienceWatcher
		if a.Patience > 0 {
			if w = watchers[q]; w == nil {
				w = newPatienceWatcher(el, q)
				watchers[q] = w
			}
		}
		if _, err := el.ScheduleAt(a.Time, sim.EventKindArrival, a.Name, arrivalAction(q, w, a)); err != nil {
			return fmt.Errorf("job %s: %w", a.Name, err)
		}
	}
	for i, c := range controls {
		q, ok := lookup(c.Queue)
		if !ok {
			return fmt.Errorf("control[%d]: unknown queue %q", i, c.Queue)
		}
		kind := sim.EventKindWorkload
		if c.Action == ActionCredits {
			kind = sim.EventKindCredits
		}
		if _, err := el.ScheduleAt(c.At, kind, fmt.Sprintf("%s/%s", c.Queue, c.Action), controlAction(q, c)); err != nil {
			return fmt.Errorf("control[%d]: %w", i, err)
		}
	}
	return nil
}

// patienceWatcher holds the pending patience events of the jobs waiting at one queue.
type patienceWatcher struct {
	el      *sim.EventList
	q       *sim.Queue
	pending map[*sim.Job]sim.Handle
}

func newPatienceWatcher(el *sim.EventList, q *sim.Queue) *patienceWatcher {
	w := &patienceWatcher{el: el, q: q, pending: make(map[*sim.Job]sim.Handle)}
	q.RegisterListener(w, sim.NotificationStart, sim.NotificationDeparture, sim.NotificationDrop,
		sim.NotificationRevocation, sim.NotificationReset)
	return w
}

func (w *patienceWatcher) Notify(n sim.Notification) {
	for _, s := range n.Subs {
		if s.Kind == sim.NotificationReset {
			w.pending = make(map[*sim.Job]sim.Handle)
			return
		}
		if h, ok := w.pending[s.Job]; ok {
			w.el.Remove(h)
			delete(w.pending, s.Job)
		}
	}
}

func (w *patienceWatcher) watch(job *sim.Job, t, patience float64) {
	h, err := w.el.ScheduleAt(t+patience, sim.EventKindRevocation, job.Name(), func(_ sim.Handle, now float64) {
		delete(w.pending, job)
		if _, err := w.q.Revoke(job, now, false); err != nil {
			logrus.Errorf("[t=%g] %s: revocation of %s failed: %v", now, w.q.Name(), job.Name(), err)
		}
	})
	if err != nil {
		logrus.Errorf("[t=%g] %s: cannot schedule patience of %s: %v", t, w.q.Name(), job.Name(), err)
		return
	}
	w.pending[job] = h
}

func arrivalAction(q *sim.Queue, w *patienceWatcher, a JobArrival) sim.Action {
	return func(_ sim.Handle, t float64) {
		job := sim.NewJob(nil, a.Name, a.ServiceTime)
		if err := q.Arrive(job, t); err != nil {
			logrus.Errorf("[t=%g] %s: arrival of %s refused: %v", t, q.Name(), a.Name, err)
			return
		}
		if w == nil || job.Queue() != q || q.IsInService(job) {
			return
		}
		w.watch(job, t, a.Patience)
	}
}

func controlAction(q *sim.Queue, c ControlSpec) sim.Action {
	return func(_ sim.Handle, t float64) {
		var err error
		switch c.Action {
		case ActionVacationStart:
			if c.Duration > 0 {
				err = q.StartVacationFor(t, c.Duration)
			} else {
				err = q.StartVacation(t)
			}
		case ActionVacationStop:
			err = q.StopVacation(t)
		case ActionCredits:
			err = q.SetServerAccessCredits(t, *c.Credits)
		}
		if err != nil {
			logrus.Errorf("[t=%g] %s: %s failed: %v", t, q.Name(), c.Action, err)
		}
	}
}
