package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey identifies a reproducible run. Two runs with the same key and the same
// network and workload produce identical notification sequences.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemArrivals drives inter-arrival times. It uses the master seed directly.
	SubsystemArrivals = "arrivals"

	// SubsystemService drives sampled service times.
	SubsystemService = "service"
)

// SubsystemRouting returns the subsystem name for the routing decisions of a composite.
// Each composite gets its own stream, so adding a composite does not perturb the others.
func SubsystemRouting(composite string) string {
	return fmt.Sprintf("routing/%s", composite)
}

// PartitionedRNG hands out one deterministic *rand.Rand per named subsystem.
//
// SubsystemArrivals is seeded with the master seed; every other subsystem with
// masterSeed XOR fnv1a64(name).
//
// Not safe for concurrent use; the simulation is single-threaded.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the RNG of the named subsystem, creating it on first use.
// Repeated calls return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key)
	if name != SubsystemArrivals {
		derivedSeed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
