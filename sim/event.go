package sim

import "fmt"

// EventKind tags why an event was scheduled. The kind is carried by value with the event
// so that logs and traces can tell events apart without inspecting their actions.
type EventKind string

const (
	EventKindAction      EventKind = "action"
	EventKindArrival     EventKind = "arrival"
	EventKindDeparture   EventKind = "departure"
	EventKindVacationEnd EventKind = "vacation-end"
	EventKindRevocation  EventKind = "revocation"
	EventKindCredits     EventKind = "credits"
	EventKindWorkload    EventKind = "workload"
)

// Action is invoked when an event fires. The handle identifies the firing event and time is
// the (already advanced) EventList clock.
type Action func(h Handle, time float64)

// Event is a (time, action) pair scheduled by value on an EventList.
type Event struct {
	Time   float64
	Kind   EventKind
	Name   string
	Action Action
}

// NewEvent creates an Event of the given kind.
func NewEvent(time float64, kind EventKind, name string, action Action) Event {
	return Event{Time: time, Kind: kind, Name: name, Action: action}
}

func (e Event) String() string {
	if e.Name == "" {
		return fmt.Sprintf("%s@%g", e.Kind, e.Time)
	}
	return fmt.Sprintf("%s[%s]@%g", e.Kind, e.Name, e.Time)
}

// Handle is the token returned by EventList.Schedule. The zero Handle never refers to a
// scheduled event.
type Handle struct {
	id uint64
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.id == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("event#%d", h.id)
}
