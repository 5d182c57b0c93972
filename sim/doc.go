// Package sim provides the discrete-event simulation kernel for queueing networks.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event_list.go: the time-ordered scheduler that owns the clock
//   - entity.go, batch.go: listeners, last-update time and atomic notification batches
//   - queue.go: the Queue lifecycle (arrival, drop, revocation, departure, reset)
//
// # Architecture
//
// A Queue guarantees the lifecycle contract; scheduling behavior comes from a Discipline.
// Every top-level operation on an entity produces exactly one Notification, an ordered list
// of sub-notifications sharing one timestamp. UPDATE comes first, STATE_CHANGED last in a
// mutating batch, and RESET always travels alone.
//
// Implementations live in sub-packages:
//   - sim/discipline/: FCFS, LCFS, SJF, priority, IS, bounded buffer, SINK, ZERO, DROP
//   - sim/composite/: queues built from other queues (tandem, encapsulator, parallel, ...)
//   - sim/network/: YAML network definitions wired into queues and composites
//   - sim/workload/: job generation and scheduling onto an EventList
//   - sim/trace/: notification records and their summaries
//
// # Errors
//
// Violated caller preconditions return errors wrapping ErrInvalidArgument. Broken internal
// invariants, re-entrant mutation included, panic with a value wrapping ErrInvalidState.
package sim
