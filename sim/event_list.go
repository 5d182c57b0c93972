package sim

import (
	"container/heap"
	"math"

	"github.com/sirupsen/logrus"
)

// scheduledEvent is the heap entry for a pending Event.
type scheduledEvent struct {
	event Event
	id    uint64 // insertion sequence, doubles as the Handle id
	index int    // position in the heap, maintained by Swap
}

// eventHeap implements heap.Interface with deterministic ordering.
// Order by: time -> insertion sequence (FIFO among equal times).
type eventHeap []*scheduledEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Time != h[j].event.Time {
		return h[i].event.Time < h[j].event.Time
	}
	return h[i].id < h[j].id
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	se := x.(*scheduledEvent)
	se.index = len(*h)
	*h = append(*h, se)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	se := old[n-1]
	old[n-1] = nil
	se.index = -1
	*h = old[0 : n-1]
	return se
}

// Resetter is implemented by everything that must return to its ground state when the
// EventList it is attached to is reset. Entities register themselves on construction.
type Resetter interface {
	Reset()
}

// EventList is the time-ordered scheduler of a simulation and owns its clock.
//
// The clock starts at the default reset time (negative infinity unless changed) and never
// decreases while events fire. Events at equal times fire in scheduling order.
//
// Thread-safety: NOT thread-safe. A simulation is driven from a single goroutine.
type EventList struct {
	clock            float64
	defaultResetTime float64
	events           eventHeap
	pending          map[uint64]*scheduledEvent
	seq              uint64
	running          bool

	resetListeners []Resetter
	resetIndex     map[Resetter]int
}

// NewEventList creates an empty EventList with its clock at negative infinity.
func NewEventList() *EventList {
	el := &EventList{
		clock:            math.Inf(-1),
		defaultResetTime: math.Inf(-1),
		events:           make(eventHeap, 0),
		pending:          make(map[uint64]*scheduledEvent),
		resetIndex:       make(map[Resetter]int),
	}
	heap.Init(&el.events)
	return el
}

// Clock returns the current simulation time.
func (el *EventList) Clock() float64 {
	return el.clock
}

// Len returns the number of pending events.
func (el *EventList) Len() int {
	return el.events.Len()
}

// IsEmpty reports whether no events are pending.
func (el *EventList) IsEmpty() bool {
	return el.events.Len() == 0
}

// DefaultResetTime returns the time Reset sets the clock to.
func (el *EventList) DefaultResetTime() float64 {
	return el.defaultResetTime
}

// SetDefaultResetTime changes the time Reset sets the clock to. It does not reset the list.
func (el *EventList) SetDefaultResetTime(time float64) {
	el.defaultResetTime = time
}

// Schedule adds ev to the list and returns a handle for cancelling it.
// Events in the past (before Clock) and events with a NaN time or nil action are rejected.
func (el *EventList) Schedule(ev Event) (Handle, error) {
	if math.IsNaN(ev.Time) {
		return Handle{}, invalidArgument("schedule %s: NaN time", ev)
	}
	if ev.Time < el.clock {
		return Handle{}, invalidArgument("schedule %s: time is before clock %g", ev, el.clock)
	}
	if ev.Action == nil {
		return Handle{}, invalidArgument("schedule %s: nil action", ev)
	}
	el.seq++
	se := &scheduledEvent{event: ev, id: el.seq}
	heap.Push(&el.events, se)
	el.pending[se.id] = se
	return Handle{id: se.id}, nil
}

// ScheduleAt is shorthand for Schedule(NewEvent(time, kind, name, action)).
func (el *EventList) ScheduleAt(time float64, kind EventKind, name string, action Action) (Handle, error) {
	return el.Schedule(NewEvent(time, kind, name, action))
}

// Remove cancels the event identified by h. It returns false if the event already fired,
// was cancelled before, or was wiped by a reset.
func (el *EventList) Remove(h Handle) bool {
	se, ok := el.pending[h.id]
	if !ok {
		return false
	}
	delete(el.pending, h.id)
	heap.Remove(&el.events, se.index)
	return true
}

// Contains reports whether h refers to a pending event.
func (el *EventList) Contains(h Handle) bool {
	_, ok := el.pending[h.id]
	return ok
}

// Peek returns the next event to fire without removing it.
func (el *EventList) Peek() (Event, bool) {
	if el.events.Len() == 0 {
		return Event{}, false
	}
	return el.events[0].event, true
}

// AddResetListener registers r to be reset whenever the list is reset.
// Listeners are reset in registration order; registering twice is a no-op.
func (el *EventList) AddResetListener(r Resetter) {
	if r == nil {
		return
	}
	if _, ok := el.resetIndex[r]; ok {
		return
	}
	el.resetIndex[r] = len(el.resetListeners)
	el.resetListeners = append(el.resetListeners, r)
}

// RemoveResetListener unregisters r. Unregistering a non-member is a no-op.
func (el *EventList) RemoveResetListener(r Resetter) {
	i, ok := el.resetIndex[r]
	if !ok {
		return
	}
	el.resetListeners = append(el.resetListeners[:i], el.resetListeners[i+1:]...)
	delete(el.resetIndex, r)
	for j := i; j < len(el.resetListeners); j++ {
		el.resetIndex[el.resetListeners[j]] = j
	}
}

// Reset cancels every pending event, moves the clock to the default reset time and resets
// all registered listeners.
func (el *EventList) Reset() {
	el.ResetTo(el.defaultResetTime)
}

// ResetTo is Reset with an explicit clock value.
func (el *EventList) ResetTo(time float64) {
	if el.running {
		invalidState("event list reset from inside a firing event")
	}
	if math.IsNaN(time) {
		panic(invalidArgument("reset to NaN time"))
	}
	el.events = make(eventHeap, 0)
	heap.Init(&el.events)
	el.pending = make(map[uint64]*scheduledEvent)
	el.clock = time
	logrus.Infof("[t=%g] event list reset (%d listeners)", time, len(el.resetListeners))
	// Listeners may (un)register others while resetting.
	listeners := append([]Resetter(nil), el.resetListeners...)
	for _, r := range listeners {
		r.Reset()
	}
}

// Step fires the next event, if any, and reports whether one fired.
func (el *EventList) Step() bool {
	if el.running {
		invalidState("event list stepped from inside a firing event")
	}
	if el.events.Len() == 0 {
		return false
	}
	el.fireNext()
	return true
}

// Run fires events until the list is empty.
func (el *EventList) Run() {
	if el.running {
		invalidState("event list run from inside a firing event")
	}
	for el.events.Len() > 0 {
		el.fireNext()
	}
	logrus.Debugf("[t=%g] event list exhausted", el.clock)
}

// RunUntil fires events up to endTime. With inclusive set, events at exactly endTime fire too.
// With setClockToEnd set, the clock is moved to endTime afterwards (if it is not past it).
func (el *EventList) RunUntil(endTime float64, inclusive, setClockToEnd bool) error {
	if el.running {
		invalidState("event list run from inside a firing event")
	}
	if math.IsNaN(endTime) || endTime < el.clock {
		return invalidArgument("run until %g: before clock %g", endTime, el.clock)
	}
	for el.events.Len() > 0 {
		next := el.events[0].event.Time
		if next > endTime || (!inclusive && next == endTime) {
			break
		}
		el.fireNext()
	}
	if setClockToEnd && el.clock < endTime {
		el.clock = endTime
	}
	return nil
}

func (el *EventList) fireNext() {
	se := heap.Pop(&el.events).(*scheduledEvent)
	delete(el.pending, se.id)
	if se.event.Time < el.clock {
		invalidState("event %s fires before clock %g", se.event, el.clock)
	}
	el.clock = se.event.Time
	logrus.Debugf("[t=%g] firing %s", el.clock, se.event)
	el.running = true
	defer func() { el.running = false }()
	se.event.Action(Handle{id: se.id}, el.clock)
}
