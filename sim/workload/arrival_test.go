package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoissonSampler_MeanIAT_MatchesRate(t *testing.T) {
	// GIVEN a Poisson sampler at 2 jobs per time unit
	rng := rand.New(rand.NewSource(42))
	sampler := NewArrivalSampler(ArrivalSpec{Process: "poisson"}, 2.0)

	// WHEN 10000 IATs are sampled
	iats := make([]float64, 10000)
	for i := range iats {
		iats[i] = sampler.SampleIAT(rng)
	}

	// THEN the mean is 1/rate within 5% and the CV is about 1
	mean, _ := meanAndVariance(iats)
	assert.InEpsilon(t, 0.5, mean, 0.05)
	assert.InDelta(t, 1.0, coefficientOfVariation(iats), 0.1)
}

func TestGammaSampler_HighCV_ProducesBurstierArrivals(t *testing.T) {
	// GIVEN a Gamma sampler with CV=3.5
	rng := rand.New(rand.NewSource(42))
	cv := 3.5
	gamma := NewArrivalSampler(ArrivalSpec{Process: "gamma", CV: &cv}, 1.0)

	// WHEN 10000 IATs are sampled
	iats := make([]float64, 10000)
	for i := range iats {
		iats[i] = gamma.SampleIAT(rng)
	}

	// THEN the sample CV is well above Poisson's
	assert.Greater(t, coefficientOfVariation(iats), 2.0)
}

func TestWeibullSampler_MeanMatchesRate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cv := 0.5
	sampler := NewArrivalSampler(ArrivalSpec{Process: "weibull", CV: &cv}, 4.0)

	iats := make([]float64, 20000)
	for i := range iats {
		iats[i] = sampler.SampleIAT(rng)
	}

	mean, _ := meanAndVariance(iats)
	assert.InEpsilon(t, 0.25, mean, 0.05)
	assert.InDelta(t, 0.5, coefficientOfVariation(iats), 0.05)
}

func TestConstantArrivalSampler_IsDeterministic(t *testing.T) {
	sampler := NewArrivalSampler(ArrivalSpec{Process: "constant"}, 4.0)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.25, sampler.SampleIAT(nil))
	}
}

func TestArrivalSamplers_AlwaysPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cv := 8.0
	for _, process := range []string{"poisson", "gamma", "weibull"} {
		sampler := NewArrivalSampler(ArrivalSpec{Process: process, CV: &cv}, 1e6)
		for i := 0; i < 1000; i++ {
			if iat := sampler.SampleIAT(rng); !(iat > 0) {
				t.Fatalf("%s: non-positive IAT %g", process, iat)
			}
		}
	}
}

func TestWeibullShapeFromCV_RoundTrips(t *testing.T) {
	for _, cv := range []float64{0.3, 1.0, 2.0} {
		k := weibullShapeFromCV(cv)
		assert.InDelta(t, cv, weibullCV(k), 0.002, "cv=%g", cv)
	}
}

func coefficientOfVariation(vals []float64) float64 {
	mean, variance := meanAndVariance(vals)
	return math.Sqrt(variance) / mean
}

func meanAndVariance(vals []float64) (float64, float64) {
	n := float64(len(vals))
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean := sum / n
	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return mean, sumSq / n
}
