package workload

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// JobArrival is one generated job: when it arrives, where, and what it requires.
type JobArrival struct {
	Name        string
	Source      string
	Target      string
	Time        float64
	ServiceTime float64
	Patience    float64 // 0 = waits forever
}

// GenerateJobs creates the arrival sequence of spec up to (excluding) horizon.
// Deterministic given the same spec and seed. Returns arrivals sorted by time (ties keep
// source order) with sequential names job_0, job_1, ...
func GenerateJobs(spec *WorkloadSpec, horizon float64) ([]JobArrival, error) {
	if horizon <= 0 {
		return nil, nil
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	arrivalsRNG := rng.ForSubsystem(sim.SubsystemArrivals)
	serviceRNG := rng.ForSubsystem(sim.SubsystemService)

	var all []JobArrival
	for i := range spec.Sources {
		src := &spec.Sources[i]
		// Per-source streams keep sources independent of each other's draw counts.
		iatRNG := newRandFromSeed(arrivalsRNG.Int63())
		jobRNG := newRandFromSeed(serviceRNG.Int63())

		arrivals := NewArrivalSampler(src.Arrival, src.Rate)
		service, err := NewTimeSampler(src.Service)
		if err != nil {
			return nil, fmt.Errorf("source %q service distribution: %w", src.ID, err)
		}
		var patience TimeSampler
		if src.Patience != nil {
			if patience, err = NewTimeSampler(*src.Patience); err != nil {
				return nil, fmt.Errorf("source %q patience distribution: %w", src.ID, err)
			}
		}

		now := 0.0
		for {
			now += arrivals.SampleIAT(iatRNG)
			if now >= horizon {
				break
			}
			if src.Lifecycle != nil && !isInActiveWindow(now, src.Lifecycle) {
				continue
			}
			a := JobArrival{
				Source:      src.ID,
				Target:      src.Target,
				Time:        now,
				ServiceTime: service.Sample(jobRNG),
			}
			if patience != nil {
				a.Patience = patience.Sample(jobRNG)
			}
			all = append(all, a)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Time < all[j].Time
	})
	if spec.NumJobs > 0 && len(all) > spec.NumJobs {
		all = all[:spec.NumJobs]
	}
	for i := range all {
		all[i].Name = fmt.Sprintf("job_%d", i)
	}
	return all, nil
}

// isInActiveWindow checks if a time falls within any active window.
func isInActiveWindow(t float64, lifecycle *LifecycleSpec) bool {
	for _, w := range lifecycle.Windows {
		if t >= w.Start && t < w.End {
			return true
		}
	}
	return false
}

func newRandFromSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
