package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// TimeSampler draws non-negative durations: service times and patience.
type TimeSampler interface {
	Sample(rng *rand.Rand) float64
}

// ConstantSampler always returns the same value.
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample(*rand.Rand) float64 {
	return s.value
}

// ExponentialSampler draws exponentially distributed durations.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() * s.mean
}

// GaussianSampler draws normal durations clamped to [min, max].
type GaussianSampler struct {
	mean, stdDev float64
	min, max     float64
}

func (s *GaussianSampler) Sample(rng *rand.Rand) float64 {
	if s.min == s.max {
		return s.min
	}
	val := rng.NormFloat64()*s.stdDev + s.mean
	return math.Min(s.max, math.Max(s.min, val))
}

// UniformSampler draws durations uniformly from [min, max).
type UniformSampler struct {
	min, max float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.min + rng.Float64()*(s.max-s.min)
}

// LogNormalSampler draws exp(N(mu, sigma)).
type LogNormalSampler struct {
	mu, sigma float64
}

func (s *LogNormalSampler) Sample(rng *rand.Rand) float64 {
	return math.Exp(s.mu + s.sigma*rng.NormFloat64())
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewTimeSampler creates a TimeSampler from a DistSpec.
func NewTimeSampler(spec DistSpec) (TimeSampler, error) {
	p := spec.Params
	switch spec.Type {
	case "constant":
		if err := requireParam(p, "value"); err != nil {
			return nil, err
		}
		if p["value"] < 0 {
			return nil, fmt.Errorf("constant value must be non-negative, got %f", p["value"])
		}
		return &ConstantSampler{value: p["value"]}, nil

	case "exponential":
		if err := requireParam(p, "mean"); err != nil {
			return nil, err
		}
		if p["mean"] <= 0 {
			return nil, fmt.Errorf("exponential mean must be positive, got %f", p["mean"])
		}
		return &ExponentialSampler{mean: p["mean"]}, nil

	case "gaussian":
		if err := requireParam(p, "mean", "std_dev", "min", "max"); err != nil {
			return nil, err
		}
		if p["min"] < 0 || p["min"] > p["max"] {
			return nil, fmt.Errorf("gaussian bounds must satisfy 0 <= min <= max, got [%f, %f]", p["min"], p["max"])
		}
		return &GaussianSampler{mean: p["mean"], stdDev: p["std_dev"], min: p["min"], max: p["max"]}, nil

	case "uniform":
		if err := requireParam(p, "min", "max"); err != nil {
			return nil, err
		}
		if p["min"] < 0 || p["min"] > p["max"] {
			return nil, fmt.Errorf("uniform bounds must satisfy 0 <= min <= max, got [%f, %f]", p["min"], p["max"])
		}
		return &UniformSampler{min: p["min"], max: p["max"]}, nil

	case "lognormal":
		if err := requireParam(p, "mu", "sigma"); err != nil {
			return nil, err
		}
		if p["sigma"] < 0 {
			return nil, fmt.Errorf("lognormal sigma must be non-negative, got %f", p["sigma"])
		}
		return &LogNormalSampler{mu: p["mu"], sigma: p["sigma"]}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
