package sim

// Batcher accumulates the sub-notifications of one atomic operation on an entity.
//
// The outermost Begin of an operation opens the batch and is the only caller allowed to
// commit it; nested Begin calls (discipline hooks, primitives invoked from hooks) append to
// the open batch. While a committed batch is being dispatched the owner is locked: any Begin
// panics with ErrInvalidState. Work a listener needs done on the owner is queued with Defer
// and runs once dispatch has finished.
type Batcher struct {
	depth       int
	time        float64
	subs        []SubNotification
	dispatching bool
	deferred    []func()
}

// Begin opens (or joins) the batch at time and reports whether the caller is top-level.
func (b *Batcher) Begin(time float64) bool {
	if b.dispatching {
		invalidState("re-entrant mutation at t=%g while dispatching notifications", time)
	}
	if b.depth > 0 && b.time != time {
		invalidState("nested operation at t=%g inside batch at t=%g", time, b.time)
	}
	b.depth++
	if b.depth == 1 {
		b.time = time
		b.subs = b.subs[:0]
		return true
	}
	return false
}

// InBatch reports whether a batch is open.
func (b *Batcher) InBatch() bool {
	return b.depth > 0
}

// Dispatching reports whether a committed batch is being delivered.
func (b *Batcher) Dispatching() bool {
	return b.dispatching
}

// Time returns the timestamp of the open batch.
func (b *Batcher) Time() float64 {
	return b.time
}

// Add appends a sub-notification to the open batch.
func (b *Batcher) Add(kind NotificationKind, job *Job) {
	if b.depth == 0 {
		invalidState("%s notification outside of a batch", kind)
	}
	if kind == NotificationReset && len(b.subs) > 0 {
		invalidState("RESET combined with %d other sub-notifications", len(b.subs))
	}
	if len(b.subs) > 0 && b.subs[0].Kind == NotificationReset {
		invalidState("%s added to a RESET batch", kind)
	}
	b.subs = append(b.subs, SubNotification{Kind: kind, Job: job})
}

// prepend inserts a sub-notification in front of the open batch.
func (b *Batcher) prepend(kind NotificationKind, job *Job) {
	b.subs = append(b.subs, SubNotification{})
	copy(b.subs[1:], b.subs)
	b.subs[0] = SubNotification{Kind: kind, Job: job}
}

// Has reports whether the open batch contains a sub-notification of kind k.
func (b *Batcher) Has(k NotificationKind) bool {
	for _, s := range b.subs {
		if s.Kind == k {
			return true
		}
	}
	return false
}

// hasMutation reports whether the open batch contains an actual state change.
func (b *Batcher) hasMutation() bool {
	for _, s := range b.subs {
		if isMutation(s.Kind) {
			return true
		}
	}
	return false
}

// Len returns the number of sub-notifications in the open batch.
func (b *Batcher) Len() int {
	return len(b.subs)
}

// Commit closes one level of the batch. For the top-level caller the accumulated list is
// handed to deliver (skipped when empty) and deferred work is drained afterwards.
func (b *Batcher) Commit(top bool, deliver func(time float64, subs []SubNotification)) {
	if b.depth == 0 {
		invalidState("commit without an open batch")
	}
	if !top {
		if b.depth == 1 {
			invalidState("nested commit would close the top-level batch")
		}
		b.depth--
		return
	}
	if b.depth != 1 {
		invalidState("top-level commit with %d nested levels still open", b.depth-1)
	}
	subs := make([]SubNotification, len(b.subs))
	copy(subs, b.subs)
	b.subs = b.subs[:0]
	b.depth = 0
	if len(subs) > 0 {
		b.dispatching = true
		deliver(b.time, subs)
		b.dispatching = false
	}
	b.drain()
}

// Defer queues fn to run after the current dispatch. When nothing is being dispatched or
// batched, fn runs immediately.
func (b *Batcher) Defer(fn func()) {
	if !b.dispatching && b.depth == 0 {
		fn()
		return
	}
	b.deferred = append(b.deferred, fn)
}

func (b *Batcher) drain() {
	for len(b.deferred) > 0 && !b.dispatching && b.depth == 0 {
		fn := b.deferred[0]
		b.deferred = b.deferred[1:]
		fn()
	}
}

// clear drops everything, deferred work included. Used on reset.
func (b *Batcher) clear() {
	if b.depth > 0 || b.dispatching {
		invalidState("reset while a notification batch is open")
	}
	b.subs = b.subs[:0]
	b.deferred = nil
}
