package composite

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// NewTandem chains queues: every job visits each of them in order. Real jobs start when
// they enter.
func NewTandem(el *sim.EventList, name string, queues ...*sim.Queue) (*Queue, error) {
	return New(el, name, Config{
		Inner:    queues,
		Selector: Tandem{N: len(queues)},
		Model:    StartLocal,
	})
}

// NewEncapsulator wraps a single queue. The composite behaves like the wrapped queue in every
// observable respect, starts included.
func NewEncapsulator(el *sim.EventList, name string, q *sim.Queue) (*Queue, error) {
	return New(el, name, Config{
		Inner:    []*sim.Queue{q},
		Selector: Tandem{N: 1},
		Model:    StartEncapsulator,
	})
}

// NewCompressedTandem2 combines a wait queue and a serve queue into one queue whose waiting
// area is the wait queue and whose servers are those of the serve queue.
func NewCompressedTandem2(el *sim.EventList, name string, wait, serve *sim.Queue) (*Queue, error) {
	return New(el, name, Config{
		Inner:    []*sim.Queue{wait, serve},
		Selector: Tandem{N: 2},
		Model:    StartCompressedTandem2,
	})
}

// NewParallel sends every job to exactly one of queues: uniformly at random when rng is
// set, round robin otherwise.
func NewParallel(el *sim.EventList, name string, rng *rand.Rand, queues ...*sim.Queue) (*Queue, error) {
	var sel QueueSelector = &RoundRobin{N: len(queues)}
	if rng != nil {
		sel = &Random{N: len(queues), Rng: rng}
	}
	return New(el, name, Config{
		Inner:    queues,
		Selector: sel,
		Model:    StartLocal,
	})
}

// NewJackson builds a Jackson network over queues; see Jackson for the probabilities.
func NewJackson(el *sim.EventList, name string, rng *rand.Rand, initial []float64, routing [][]float64, queues ...*sim.Queue) (*Queue, error) {
	if len(initial) != len(queues) {
		return nil, errors.Wrapf(sim.ErrInvalidArgument, "composite %q: %d queues but %d initial probabilities", name, len(queues), len(initial))
	}
	sel, err := NewJacksonSelector(initial, routing, rng)
	if err != nil {
		return nil, err
	}
	return New(el, name, Config{
		Inner:    queues,
		Selector: sel,
		Model:    StartLocal,
	})
}

// NewFeedback sends every job visits times through q.
func NewFeedback(el *sim.EventList, name string, visits int, q *sim.Queue) (*Queue, error) {
	sel, err := NewFeedbackSelector(visits)
	if err != nil {
		return nil, err
	}
	return New(el, name, Config{
		Inner:    []*sim.Queue{q},
		Selector: sel,
		Model:    StartLocal,
	})
}
