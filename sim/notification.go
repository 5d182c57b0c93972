package sim

import (
	"fmt"
	"strings"
)

// NotificationKind names one kind of sub-notification.
type NotificationKind string

const (
	// NotificationReset is always delivered alone in its batch.
	NotificationReset NotificationKind = "RESET"
	// NotificationUpdate is the pre-state observation; it precedes any mutation in a batch.
	NotificationUpdate NotificationKind = "UPDATE"
	// NotificationStateChanged is the post-state observation, last in every mutating batch.
	NotificationStateChanged NotificationKind = "STATE_CHANGED"

	NotificationArrival    NotificationKind = "ARRIVAL"
	NotificationDrop       NotificationKind = "DROP"
	NotificationRevocation NotificationKind = "REVOCATION"
	NotificationStart      NotificationKind = "START"
	NotificationDeparture  NotificationKind = "DEPARTURE"

	NotificationVacationStart NotificationKind = "QAV_START"
	NotificationVacationEnd   NotificationKind = "QAV_END"

	NotificationOutOfCredits    NotificationKind = "OUT_OF_CREDITS"
	NotificationRegainedCredits NotificationKind = "REGAINED_CREDITS"
	NotificationStartArmed      NotificationKind = "STA_TRUE"
	NotificationLostStartArmed  NotificationKind = "STA_FALSE"
)

// JobNotificationKinds are the kinds that carry a job payload.
var JobNotificationKinds = []NotificationKind{
	NotificationArrival,
	NotificationDrop,
	NotificationRevocation,
	NotificationStart,
	NotificationDeparture,
}

// IsJobKind reports whether sub-notifications of kind k carry a job.
func IsJobKind(k NotificationKind) bool {
	switch k {
	case NotificationArrival, NotificationDrop, NotificationRevocation, NotificationStart, NotificationDeparture:
		return true
	}
	return false
}

// isMutation reports whether k describes an actual state change.
func isMutation(k NotificationKind) bool {
	return k != NotificationUpdate && k != NotificationStateChanged && k != NotificationReset
}

// SubNotification is one element of an atomic Notification.
type SubNotification struct {
	Kind NotificationKind
	Job  *Job // nil for kinds without a job payload
}

func (s SubNotification) String() string {
	if s.Job == nil {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Job.Name())
}

// Notification is the ordered list of sub-notifications produced by one top-level operation
// on an entity. All of them share Time.
type Notification struct {
	Time   float64
	Source *Entity
	Subs   []SubNotification
}

// Has reports whether n contains a sub-notification of kind k.
func (n Notification) Has(k NotificationKind) bool {
	for _, s := range n.Subs {
		if s.Kind == k {
			return true
		}
	}
	return false
}

// Kinds returns the kinds of n's sub-notifications, in order.
func (n Notification) Kinds() []NotificationKind {
	kinds := make([]NotificationKind, len(n.Subs))
	for i, s := range n.Subs {
		kinds[i] = s.Kind
	}
	return kinds
}

func (n Notification) String() string {
	parts := make([]string, len(n.Subs))
	for i, s := range n.Subs {
		parts[i] = s.String()
	}
	name := "<nil>"
	if n.Source != nil {
		name = n.Source.Name()
	}
	return fmt.Sprintf("[t=%g] %s: %s", n.Time, name, strings.Join(parts, " "))
}

// Listener receives the notifications of the entities it is registered on.
//
// Listeners must not mutate the notifying entity from within Notify. Follow-up work goes
// through Entity.AfterNotifications. Implementations must be comparable (pointer types).
type Listener interface {
	Notify(n Notification)
}

// FuncListener adapts a function to Listener. Use NewFuncListener; the pointer is the identity.
type FuncListener struct {
	fn func(Notification)
}

// NewFuncListener wraps fn as a Listener.
func NewFuncListener(fn func(Notification)) *FuncListener {
	return &FuncListener{fn: fn}
}

// Notify calls the wrapped function.
func (f *FuncListener) Notify(n Notification) {
	f.fn(n)
}

// registration records which notification kinds a listener asked for; a nil set means all.
type registration struct {
	listener Listener
	kinds    map[NotificationKind]bool
}

func (r *registration) wants(k NotificationKind) bool {
	return r.kinds == nil || r.kinds[k]
}

// listenerRegistry keeps listeners in registration order together with their capabilities.
type listenerRegistry struct {
	regs  []*registration
	index map[Listener]*registration
}

func newListenerRegistry() listenerRegistry {
	return listenerRegistry{index: make(map[Listener]*registration)}
}

func (lr *listenerRegistry) register(l Listener, kinds []NotificationKind) {
	if l == nil {
		return
	}
	if _, ok := lr.index[l]; ok {
		return
	}
	reg := &registration{listener: l}
	if len(kinds) > 0 {
		reg.kinds = make(map[NotificationKind]bool, len(kinds))
		for _, k := range kinds {
			reg.kinds[k] = true
		}
	}
	lr.regs = append(lr.regs, reg)
	lr.index[l] = reg
}

func (lr *listenerRegistry) unregister(l Listener) {
	reg, ok := lr.index[l]
	if !ok {
		return
	}
	delete(lr.index, l)
	for i, r := range lr.regs {
		if r == reg {
			lr.regs = append(lr.regs[:i], lr.regs[i+1:]...)
			break
		}
	}
}

func (lr *listenerRegistry) contains(l Listener) bool {
	_, ok := lr.index[l]
	return ok
}

func (lr *listenerRegistry) all() []Listener {
	out := make([]Listener, len(lr.regs))
	for i, r := range lr.regs {
		out[i] = r.listener
	}
	return out
}

func (lr *listenerRegistry) len() int {
	return len(lr.regs)
}

// dispatch delivers n to every listener, filtered down to the kinds it registered for.
// Listeners with nothing left to see are skipped.
func (lr *listenerRegistry) dispatch(n Notification) {
	regs := append([]*registration(nil), lr.regs...)
	for _, reg := range regs {
		if reg.kinds == nil {
			reg.listener.Notify(n)
			continue
		}
		var subs []SubNotification
		for _, s := range n.Subs {
			if reg.wants(s.Kind) {
				subs = append(subs, s)
			}
		}
		if len(subs) == 0 {
			continue
		}
		reg.listener.Notify(Notification{Time: n.Time, Source: n.Source, Subs: subs})
	}
}
