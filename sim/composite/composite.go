// Package composite builds queues out of other queues.
//
// A composite Queue is an ordinary sim.Queue from the outside. Every real job arriving at it
// is represented inside by a delegate job that travels through the inner queues as chosen by
// a QueueSelector. The composite listens to its inner queues and translates what happens to
// delegates into operations on the real job: an inner drop drops the real job, leaving the
// last inner queue lets the real job depart. When the real job starts is governed by the
// StartModel.
package composite

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// StartModel decides when a real job starts at the composite.
type StartModel int

const (
	// StartLocal starts real jobs at the composite itself, as soon as it has server-access
	// credits; the delegate is only sent into the inner network after that.
	StartLocal StartModel = iota
	// StartEncapsulator starts the real job when its delegate starts at the single inner
	// queue. Outer credits are mirrored onto the inner queue.
	StartEncapsulator
	// StartCompressedTandem2 uses a wait queue and a serve queue. The wait queue only admits
	// a delegate to service when the serve queue is start-armed and the composite has
	// credits; that start moves the delegate to the serve queue, where its start is the
	// real job's start.
	StartCompressedTandem2
)

func (m StartModel) String() string {
	switch m {
	case StartLocal:
		return "local"
	case StartEncapsulator:
		return "encapsulator"
	case StartCompressedTandem2:
		return "compressed-tandem-2"
	}
	return fmt.Sprintf("StartModel(%d)", int(m))
}

// Queue is a queue composed of inner queues.
type Queue struct {
	*sim.Queue
	d *delegator
}

// Config collects what New needs besides the event list and name.
type Config struct {
	Inner    []*sim.Queue
	Selector QueueSelector
	Factory  DelegateJobFactory // nil selects DefaultDelegateJobFactory
	Model    StartModel
}

// New creates a composite queue over cfg.Inner.
//
// Inner queues must be distinct, attached to el, and empty. The encapsulator model takes
// exactly one inner queue, the compressed-tandem model exactly two (wait, serve).
func New(el *sim.EventList, name string, cfg Config) (*Queue, error) {
	if el == nil {
		return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: nil event list", name)
	}
	if len(cfg.Inner) == 0 {
		return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: no inner queues", name)
	}
	if cfg.Selector == nil {
		return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: nil queue selector", name)
	}
	switch cfg.Model {
	case StartLocal:
	case StartEncapsulator:
		if len(cfg.Inner) != 1 {
			return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: encapsulator needs 1 inner queue, got %d", name, len(cfg.Inner))
		}
	case StartCompressedTandem2:
		if len(cfg.Inner) != 2 {
			return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: compressed tandem needs 2 inner queues, got %d", name, len(cfg.Inner))
		}
	default:
		return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: unknown start model %v", name, cfg.Model)
	}
	d := &delegator{
		model:     cfg.Model,
		selector:  cfg.Selector,
		factory:   cfg.Factory,
		index:     make(map[*sim.Entity]int, len(cfg.Inner)),
		delegates: make(map[*sim.Job]*sim.Job),
		reals:     make(map[*sim.Job]*sim.Job),
		revoking:  make(map[*sim.Job]bool),
	}
	if d.factory == nil {
		d.factory = DefaultDelegateJobFactory{}
	}
	for i, q := range cfg.Inner {
		if q == nil {
			return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: inner queue %d is nil", name, i)
		}
		if q.EventList() != el {
			return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: inner queue %s uses another event list", name, q.Name())
		}
		if _, dup := d.index[&q.Entity]; dup {
			return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: inner queue %s listed twice", name, q.Name())
		}
		if q.NumberOfJobs() > 0 {
			return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: inner queue %s is not empty", name, q.Name())
		}
		for _, l := range q.Listeners() {
			if other, ok := l.(*delegator); ok {
				return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: inner queue %s already belongs to %s", name, q.Name(), other.outer.Name())
			}
		}
		d.index[&q.Entity] = i
	}
	d.inner = append([]*sim.Queue(nil), cfg.Inner...)

	outer := sim.NewQueue(el, name, d)
	d.outer = outer
	for _, q := range d.inner {
		q.RegisterListener(d)
	}
	d.syncInner(el.Clock())
	d.pending = nil
	return &Queue{Queue: outer, d: d}, nil
}

// Inner returns the inner queues in index order.
func (c *Queue) Inner() []*sim.Queue {
	return append([]*sim.Queue(nil), c.d.inner...)
}

// Selector returns the queue selector.
func (c *Queue) Selector() QueueSelector {
	return c.d.selector
}

// StartModel returns the start model.
func (c *Queue) StartModel() StartModel {
	return c.d.model
}

// DelegateOf returns the delegate of a real job present at the composite.
func (c *Queue) DelegateOf(real *sim.Job) (*sim.Job, bool) {
	del, ok := c.d.delegates[real]
	return del, ok
}

// RealOf returns the real job a delegate stands for.
func (c *Queue) RealOf(delegate *sim.Job) (*sim.Job, bool) {
	real, ok := c.d.reals[delegate]
	return real, ok
}

// delegator is the composite's discipline and the listener on its inner queues.
type delegator struct {
	outer    *sim.Queue
	inner    []*sim.Queue
	index    map[*sim.Entity]int
	model    StartModel
	selector QueueSelector
	factory  DelegateJobFactory

	delegates map[*sim.Job]*sim.Job // real -> delegate
	reals     map[*sim.Job]*sim.Job // delegate -> real
	revoking  map[*sim.Job]bool     // delegates whose inner revocation we asked for

	pending    []sim.Notification
	processing bool
	resetting  bool
}

var (
	_ sim.Discipline     = (*delegator)(nil)
	_ sim.CreditsWatcher = (*delegator)(nil)
	_ sim.Listener       = (*delegator)(nil)
)

func (d *delegator) InsertOnArrival(q *sim.Queue, _ *sim.Job, _ float64) int {
	return q.NumberOfJobs()
}

func (d *delegator) RescheduleAfterArrival(_ *sim.Queue, job *sim.Job, time float64) {
	if d.model == StartLocal {
		d.startLocal(time)
	} else {
		d.dispatch(time, job)
	}
	d.process(time)
}

func (d *delegator) RemoveOnDrop(_ *sim.Queue, job *sim.Job, time float64) {
	d.release(time, job)
}

func (d *delegator) RescheduleAfterDrop(_ *sim.Queue, _ *sim.Job, time float64) {
	d.afterExit(time)
}

func (d *delegator) RemoveOnRevocation(q *sim.Queue, job *sim.Job, time float64, interruptService bool) bool {
	if q.IsInService(job) && !interruptService {
		return false
	}
	if del, ok := d.delegates[job]; ok {
		if at := del.Queue(); at != nil && at.IsInService(del) && !interruptService {
			return false
		}
	}
	d.release(time, job)
	return true
}

func (d *delegator) RescheduleAfterRevocation(_ *sim.Queue, _ *sim.Job, time float64, _ bool) {
	d.afterExit(time)
}

func (d *delegator) RemoveOnDeparture(_ *sim.Queue, job *sim.Job, time float64) {
	d.release(time, job)
}

func (d *delegator) RescheduleAfterDeparture(_ *sim.Queue, _ *sim.Job, time float64) {
	d.afterExit(time)
}

func (d *delegator) RescheduleForNewCredits(_ *sim.Queue, time float64) {
	if d.model == StartLocal {
		d.startLocal(time)
	}
	d.process(time)
}

// ServerAccessCreditsChanged pushes outer credit changes down to the inner queues.
func (d *delegator) ServerAccessCreditsChanged(_ *sim.Queue, time float64) {
	if d.model != StartLocal {
		d.process(time)
	}
}

func (d *delegator) IsStartArmed(q *sim.Queue) bool {
	switch d.model {
	case StartEncapsulator:
		return d.inner[0].IsStartArmed()
	case StartCompressedTandem2:
		return d.inner[1].IsStartArmed()
	}
	return q.NumberOfJobsWaiting() == 0
}

// Reset runs while the outer queue resets. The event list resets inner queues first, so
// the inner credits can be re-synchronized right away.
func (d *delegator) Reset(*sim.Queue) {
	d.delegates = make(map[*sim.Job]*sim.Job)
	d.reals = make(map[*sim.Job]*sim.Job)
	d.revoking = make(map[*sim.Job]bool)
	d.selector.Reset()
	d.pending = nil
	d.processing = false
	d.resetting = true
	d.syncInner(d.outer.EventList().Clock())
	d.resetting = false
	d.pending = nil
}

// resyncAfterInnerReset restores inner credits after an inner queue reset. Inner
// notifications it causes are not forwarded; the outer queue learns of the reset through its
// own reset or its next operation.
func (d *delegator) resyncAfterInnerReset() {
	d.resetting = true
	d.syncInner(d.outer.EventList().Clock())
	d.resetting = false
}

func (d *delegator) afterExit(time float64) {
	if d.model == StartLocal {
		d.startLocal(time)
	}
	d.process(time)
}

// startLocal starts waiting real jobs while credits last and sends their delegates in.
func (d *delegator) startLocal(time float64) {
	for d.outer.HasServerAccessCredits() {
		job := d.outer.FirstWaiting()
		if job == nil {
			return
		}
		d.outer.StartJob(job, time)
		d.dispatch(time, job)
	}
}

// dispatch creates the delegate for real and sends it to the first inner queue. Without a
// first queue the real job leaves right away.
func (d *delegator) dispatch(time float64, real *sim.Job) {
	del := d.factory.Create(time, real, d.outer)
	if del == nil {
		sim.PanicInvalidState("%s: delegate factory returned nil for %s", d.outer.Name(), real.Name())
	}
	d.delegates[real] = del
	d.reals[del] = real
	first := d.selector.First(time, real)
	if first < 0 {
		d.outer.Depart(real, time)
		return
	}
	d.send(time, del, first)
}

func (d *delegator) send(time float64, del *sim.Job, i int) {
	if i < 0 || i >= len(d.inner) {
		sim.PanicInvalidState("%s: selector chose inner queue %d of %d", d.outer.Name(), i, len(d.inner))
	}
	if err := d.inner[i].Arrive(del, time); err != nil {
		sim.PanicInvalidState("%s: delegate %s refused by %s: %v", d.outer.Name(), del.Name(), d.inner[i].Name(), err)
	}
}

// release forgets real's delegate, revoking it first if it is still inside.
func (d *delegator) release(time float64, real *sim.Job) {
	if f, ok := d.selector.(JobForgetter); ok {
		f.Forget(real)
	}
	del, ok := d.delegates[real]
	if !ok {
		return
	}
	delete(d.delegates, real)
	delete(d.reals, del)
	at := del.Queue()
	if at == nil {
		return
	}
	d.revoking[del] = true
	revoked, err := at.Revoke(del, time, true)
	if err != nil || !revoked {
		sim.PanicInvalidState("%s: cannot withdraw delegate %s from %s: %v", d.outer.Name(), del.Name(), at.Name(), err)
	}
}

// Notify collects inner notifications. They are processed inside an outer batch: right away
// when an outer operation is in progress (its hooks call process), otherwise once the inner
// queue has finished dispatching.
func (d *delegator) Notify(n sim.Notification) {
	if _, ok := d.index[n.Source]; !ok {
		sim.PanicInvalidState("%s: notification from unknown entity %s", d.outer.Name(), n.Source.Name())
	}
	if n.Has(sim.NotificationReset) {
		d.pending = nil
		if !d.resetting {
			n.Source.AfterNotifications(d.resyncAfterInnerReset)
		}
		return
	}
	if d.resetting {
		return
	}
	d.pending = append(d.pending, n)
	if d.processing || d.outer.InBatch() {
		return
	}
	t := n.Time
	n.Source.AfterNotifications(func() { d.process(t) })
}

// process drains the pending inner notifications inside one outer batch, then aligns inner
// credits with the outer state, until nothing changes.
func (d *delegator) process(time float64) {
	if d.processing {
		return
	}
	d.processing = true
	top := d.outer.BeginBatch(time)
	for {
		for len(d.pending) > 0 {
			n := d.pending[0]
			d.pending = d.pending[1:]
			d.handle(n)
		}
		if !d.syncInner(time) && len(d.pending) == 0 {
			break
		}
	}
	// Work deferred by the commit may arrive here again as a fresh operation.
	d.processing = false
	d.outer.CommitBatch(top)
}

func (d *delegator) handle(n sim.Notification) {
	i := d.index[n.Source]
	logrus.Tracef("%s: processing %s", d.outer.Name(), n)
	for _, s := range n.Subs {
		switch s.Kind {
		case sim.NotificationStart:
			d.started(n.Time, s.Job, i)
		case sim.NotificationDrop:
			d.outer.Drop(d.realOf(s.Job), n.Time)
		case sim.NotificationRevocation:
			if !d.revoking[s.Job] {
				sim.PanicInvalidState("%s: unexpected revocation of %s at %s", d.outer.Name(), s.Job.Name(), n.Source.Name())
			}
			delete(d.revoking, s.Job)
		case sim.NotificationDeparture:
			d.departed(n.Time, s.Job, i)
		}
	}
}

func (d *delegator) started(time float64, del *sim.Job, i int) {
	real := d.realOf(del)
	switch d.model {
	case StartEncapsulator:
		d.outer.StartJob(real, time)
	case StartCompressedTandem2:
		if i == 1 {
			d.outer.StartJob(real, time)
			return
		}
		wait := d.inner[0]
		if del.Queue() != wait {
			return
		}
		d.revoking[del] = true
		if revoked, err := wait.Revoke(del, time, true); err != nil || !revoked {
			sim.PanicInvalidState("%s: cannot move %s out of %s: %v", d.outer.Name(), del.Name(), wait.Name(), err)
		}
		d.advance(time, del, real, 0)
	}
}

func (d *delegator) departed(time float64, del *sim.Job, i int) {
	d.advance(time, del, d.realOf(del), i)
}

// advance sends del to the queue after i, or lets real depart when there is none.
func (d *delegator) advance(time float64, del, real *sim.Job, i int) {
	if next, ok := d.selector.Next(time, real, i); ok {
		d.send(time, del, next)
		return
	}
	d.outer.Depart(real, time)
}

func (d *delegator) realOf(del *sim.Job) *sim.Job {
	real, ok := d.reals[del]
	if !ok {
		sim.PanicInvalidState("%s: notification about unknown job %s", d.outer.Name(), del.Name())
	}
	return real
}

// syncInner aligns inner credits with the outer state and reports whether it changed any.
func (d *delegator) syncInner(time float64) bool {
	var target int
	var q *sim.Queue
	switch d.model {
	case StartEncapsulator:
		q = d.inner[0]
		target = d.outer.ServerAccessCredits()
	case StartCompressedTandem2:
		q = d.inner[0]
		if d.outer.HasServerAccessCredits() && d.inner[1].IsStartArmed() {
			target = 1
		}
	default:
		return false
	}
	if q.ServerAccessCredits() == target {
		return false
	}
	if err := q.SetServerAccessCredits(time, target); err != nil {
		sim.PanicInvalidState("%s: setting credits of %s: %v", d.outer.Name(), q.Name(), err)
	}
	return true
}
