package composite

import (
	"github.com/jandejongh/jqueues-sub004/sim"
)

// DelegateJobFactory creates the delegate that represents real inside a composite.
type DelegateJobFactory interface {
	Create(time float64, real *sim.Job, composite *sim.Queue) *sim.Job
}

// DefaultDelegateJobFactory creates detached delegates named after the real job. A delegate
// requires, at every inner queue, the service time the real job requires there.
type DefaultDelegateJobFactory struct{}

func (DefaultDelegateJobFactory) Create(_ float64, real *sim.Job, _ *sim.Queue) *sim.Job {
	return sim.NewJobWithServiceTime(nil, real.Name(), real.RequiredServiceTime)
}

// DelegateJobFactoryFunc adapts a function to DelegateJobFactory.
type DelegateJobFactoryFunc func(time float64, real *sim.Job, composite *sim.Queue) *sim.Job

func (f DelegateJobFactoryFunc) Create(time float64, real *sim.Job, composite *sim.Queue) *sim.Job {
	return f(time, real, composite)
}
