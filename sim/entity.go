package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Entity is the part shared by jobs and queues: a name, an optional EventList, a listener
// registry, the last update time and the notification batch.
//
// Entity is embedded by value; the owner calls initEntity once and registers itself (not the
// Entity) as the EventList reset listener, so resets reach the owner's own Reset method.
type Entity struct {
	eventList      *EventList
	name           string
	listeners      listenerRegistry
	lastUpdateTime float64
	batch          Batcher

	// beforeCommit runs right before a top-level non-RESET batch is dispatched.
	beforeCommit func()
}

func (e *Entity) initEntity(el *EventList, name string) {
	e.eventList = el
	e.name = name
	e.listeners = newListenerRegistry()
	e.lastUpdateTime = math.Inf(-1)
	if el != nil {
		e.lastUpdateTime = el.Clock()
	}
}

// Name returns the entity's name.
func (e *Entity) Name() string {
	return e.name
}

// SetName renames the entity.
func (e *Entity) SetName(name string) {
	e.name = name
}

func (e *Entity) String() string {
	return e.name
}

// EventList returns the event list the entity is attached to; nil for detached jobs.
func (e *Entity) EventList() *EventList {
	return e.eventList
}

// LastUpdateTime returns the time of the latest update; negative infinity before the first.
func (e *Entity) LastUpdateTime() float64 {
	return e.lastUpdateTime
}

// RegisterListener adds l for the given kinds, or for every kind if none are given.
// Registering an already registered listener is a no-op.
func (e *Entity) RegisterListener(l Listener, kinds ...NotificationKind) {
	e.listeners.register(l, kinds)
}

// UnregisterListener removes l. Removing a non-member is a no-op.
func (e *Entity) UnregisterListener(l Listener) {
	e.listeners.unregister(l)
}

// IsListener reports whether l is registered.
func (e *Entity) IsListener(l Listener) bool {
	return e.listeners.contains(l)
}

// Listeners returns the registered listeners in registration order.
func (e *Entity) Listeners() []Listener {
	return e.listeners.all()
}

// NumberOfListeners returns how many listeners are registered.
func (e *Entity) NumberOfListeners() int {
	return e.listeners.len()
}

// Update moves the entity's notion of time forward to time and reports the pre-state
// observation (UPDATE) in the current batch. A batch holds at most one UPDATE, always first.
func (e *Entity) Update(time float64) error {
	if math.IsNaN(time) {
		return invalidArgument("%s: update to NaN time", e.name)
	}
	if time < e.lastUpdateTime {
		return invalidArgument("%s: update to %g before last update %g", e.name, time, e.lastUpdateTime)
	}
	top := e.BeginBatch(time)
	e.update(time)
	e.CommitBatch(top)
	return nil
}

// update is Update for callers that already validated time and hold an open batch.
func (e *Entity) update(time float64) {
	if time < e.lastUpdateTime {
		invalidState("%s: update to %g before last update %g", e.name, time, e.lastUpdateTime)
	}
	if !e.batch.Has(NotificationUpdate) {
		e.batch.prepend(NotificationUpdate, nil)
	}
	e.lastUpdateTime = time
}

// checkTime validates an operation time against the last update.
func (e *Entity) checkTime(op string, time float64) error {
	if math.IsNaN(time) {
		return invalidArgument("%s: %s at NaN time", e.name, op)
	}
	if time < e.lastUpdateTime {
		return invalidArgument("%s: %s at %g before last update %g", e.name, op, time, e.lastUpdateTime)
	}
	return nil
}

// BeginBatch opens or joins the entity's notification batch; see Batcher.Begin.
func (e *Entity) BeginBatch(time float64) bool {
	return e.batch.Begin(time)
}

// CommitBatch closes one level of the batch opened by BeginBatch. The top-level commit
// appends STATE_CHANGED to a mutating batch and dispatches it to the listeners.
func (e *Entity) CommitBatch(top bool) {
	if top && !e.batch.Has(NotificationReset) {
		if e.beforeCommit != nil {
			e.beforeCommit()
		}
		if e.batch.hasMutation() {
			e.batch.Add(NotificationStateChanged, nil)
		}
	}
	e.batch.Commit(top, e.deliver)
}

// InBatch reports whether an operation on the entity is in progress.
func (e *Entity) InBatch() bool {
	return e.batch.InBatch()
}

// IsDispatching reports whether the entity is delivering notifications.
func (e *Entity) IsDispatching() bool {
	return e.batch.Dispatching()
}

// AddNotification appends a sub-notification to the open batch.
func (e *Entity) AddNotification(kind NotificationKind, job *Job) {
	e.batch.Add(kind, job)
}

// AfterNotifications runs fn once the entity has finished dispatching, or right away when it
// is idle. This is the only way for a listener to act on the entity that notified it.
func (e *Entity) AfterNotifications(fn func()) {
	e.batch.Defer(fn)
}

func (e *Entity) deliver(time float64, subs []SubNotification) {
	n := Notification{Time: time, Source: e, Subs: subs}
	logrus.Tracef("%s", n)
	e.listeners.dispatch(n)
}

// guardTopLevel panics if a public operation is invoked while the entity is mid-operation
// or dispatching.
func (e *Entity) guardTopLevel(op string) {
	if e.batch.Dispatching() {
		invalidState("%s: %s invoked while dispatching notifications", e.name, op)
	}
	if e.batch.InBatch() {
		invalidState("%s: %s invoked from inside an operation on the same entity", e.name, op)
	}
}

// resetEntity returns the entity to its ground state and fires a singleton RESET batch.
func (e *Entity) resetEntity() {
	e.batch.clear()
	e.lastUpdateTime = math.Inf(-1)
	if e.eventList != nil {
		e.lastUpdateTime = e.eventList.Clock()
	}
	top := e.batch.Begin(e.lastUpdateTime)
	e.batch.Add(NotificationReset, nil)
	e.CommitBatch(top)
}
