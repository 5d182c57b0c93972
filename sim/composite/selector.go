package composite

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// QueueSelector routes delegates through the inner queues, by index.
type QueueSelector interface {
	// First returns the inner queue a new job visits first, or -1 to let it leave at once.
	First(time float64, job *sim.Job) int
	// Next returns the inner queue to visit after leaving previous, or false to leave the
	// composite.
	Next(time float64, job *sim.Job, previous int) (int, bool)
	// Reset clears any routing state.
	Reset()
}

// JobForgetter is implemented by selectors that keep per-job state. The composite calls
// Forget whenever a real job leaves, whatever the way out.
type JobForgetter interface {
	Forget(job *sim.Job)
}

// Tandem visits the inner queues in index order.
type Tandem struct {
	N int
}

func (t Tandem) First(float64, *sim.Job) int {
	if t.N == 0 {
		return -1
	}
	return 0
}

func (t Tandem) Next(_ float64, _ *sim.Job, previous int) (int, bool) {
	if previous+1 < t.N {
		return previous + 1, true
	}
	return 0, false
}

func (Tandem) Reset() {}

// RoundRobin sends successive jobs to successive inner queues; each job visits one queue.
type RoundRobin struct {
	N    int
	next int
}

func (r *RoundRobin) First(float64, *sim.Job) int {
	if r.N == 0 {
		return -1
	}
	i := r.next
	r.next = (r.next + 1) % r.N
	return i
}

func (r *RoundRobin) Next(float64, *sim.Job, int) (int, bool) { return 0, false }

func (r *RoundRobin) Reset() { r.next = 0 }

// Random sends every job to one uniformly chosen inner queue.
type Random struct {
	N   int
	Rng *rand.Rand
}

func (r *Random) First(float64, *sim.Job) int {
	if r.N == 0 {
		return -1
	}
	return r.Rng.Intn(r.N)
}

func (r *Random) Next(float64, *sim.Job, int) (int, bool) { return 0, false }

func (r *Random) Reset() {}

// Jackson routes probabilistically. Initial[i] is the probability of entering at queue i,
// Routing[i][j] the probability of moving from i to j. Whatever probability mass is left
// over in a row means leaving the composite.
type Jackson struct {
	Initial []float64
	Routing [][]float64
	Rng     *rand.Rand
}

// ValidateJacksonRouting checks that initial and routing are sub-stochastic and square.
func ValidateJacksonRouting(initial []float64, routing [][]float64) error {
	n := len(initial)
	if len(routing) != n {
		return errors.Wrapf(sim.ErrInvalidArgument, "jackson: %d initial probabilities but %d routing rows", n, len(routing))
	}
	if err := checkDistribution("initial", initial); err != nil {
		return err
	}
	for i, row := range routing {
		if len(row) != n {
			return errors.Wrapf(sim.ErrInvalidArgument, "jackson: routing row %d has %d entries, want %d", i, len(row), n)
		}
		if err := checkDistribution(fmt.Sprintf("routing row %d", i), row); err != nil {
			return err
		}
	}
	return nil
}

// NewJacksonSelector validates the probabilities and returns the selector.
func NewJacksonSelector(initial []float64, routing [][]float64, rng *rand.Rand) (*Jackson, error) {
	if err := ValidateJacksonRouting(initial, routing); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.Wrap(sim.ErrInvalidArgument, "jackson: nil random source")
	}
	return &Jackson{Initial: initial, Routing: routing, Rng: rng}, nil
}

func checkDistribution(what string, p []float64) error {
	sum := 0.0
	for i, v := range p {
		if v < 0 || v > 1 {
			return errors.Wrapf(sim.ErrInvalidArgument, "jackson: %s: probability %d is %g", what, i, v)
		}
		sum += v
	}
	if sum > 1+1e-9 {
		return errors.Wrapf(sim.ErrInvalidArgument, "jackson: %s: probabilities sum to %g", what, sum)
	}
	return nil
}

// draw picks an index from p, or -1 for the leftover mass.
func (j *Jackson) draw(p []float64) int {
	u := j.Rng.Float64()
	for i, v := range p {
		if u < v {
			return i
		}
		u -= v
	}
	return -1
}

func (j *Jackson) First(float64, *sim.Job) int {
	return j.draw(j.Initial)
}

func (j *Jackson) Next(_ float64, _ *sim.Job, previous int) (int, bool) {
	next := j.draw(j.Routing[previous])
	return next, next >= 0
}

func (j *Jackson) Reset() {}

// Feedback sends every job Visits times through a single inner queue. The zero value with
// Visits set is ready to use.
type Feedback struct {
	Visits int
	done   map[*sim.Job]int
}

// NewFeedbackSelector returns a selector for visits passes; visits must be positive.
func NewFeedbackSelector(visits int) (*Feedback, error) {
	if visits <= 0 {
		return nil, errors.Wrapf(sim.ErrInvalidArgument, "feedback: visits must be positive, got %d", visits)
	}
	return &Feedback{Visits: visits, done: make(map[*sim.Job]int)}, nil
}

func (f *Feedback) First(_ float64, job *sim.Job) int {
	f.Forget(job)
	return 0
}

func (f *Feedback) Next(_ float64, job *sim.Job, _ int) (int, bool) {
	if f.done == nil {
		f.done = make(map[*sim.Job]int)
	}
	f.done[job]++
	if f.done[job] < f.Visits {
		return 0, true
	}
	delete(f.done, job)
	return 0, false
}

func (f *Feedback) Forget(job *sim.Job) {
	delete(f.done, job)
}

func (f *Feedback) Reset() {
	f.done = make(map[*sim.Job]int)
}
