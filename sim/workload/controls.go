package workload

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

// Recurring controls read the simulated clock as seconds since the Unix epoch, in UTC.
var cronEpoch = time.Unix(0, 0).UTC()

var controlParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// maxOccurrences bounds the expansion of one recurring control.
const maxOccurrences = 1 << 16

func simToWall(t float64) time.Time {
	return cronEpoch.Add(time.Duration(t * float64(time.Second)))
}

func wallToSim(t time.Time) float64 {
	return t.Sub(cronEpoch).Seconds()
}

// Occurrences returns the times before horizon at which c fires: At for a one-shot control,
// every activation of the cron schedule strictly after At for a recurring one.
func (c ControlSpec) Occurrences(horizon float64) ([]float64, error) {
	if c.Cron == "" {
		if c.At >= horizon {
			return nil, nil
		}
		return []float64{c.At}, nil
	}
	if horizon <= 0 || math.IsInf(horizon, 0) || math.IsNaN(horizon) {
		return nil, fmt.Errorf("recurring control %q needs a finite positive horizon, got %g", c.Cron, horizon)
	}
	sched, err := controlParser.Parse(c.Cron)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", c.Cron, err)
	}
	var times []float64
	for next := sched.Next(simToWall(c.At)); !next.IsZero(); next = sched.Next(next) {
		t := wallToSim(next)
		if t >= horizon {
			break
		}
		if len(times) == maxOccurrences {
			return nil, fmt.Errorf("cron %q fires more than %d times before %g", c.Cron, maxOccurrences, horizon)
		}
		times = append(times, t)
	}
	return times, nil
}

// ExpandControls flattens the spec's controls into one-shot controls before horizon, in time
// order. Controls at equal times keep their order in the spec.
func (s *WorkloadSpec) ExpandControls(horizon float64) ([]ControlSpec, error) {
	var out []ControlSpec
	for i, c := range s.Controls {
		times, err := c.Occurrences(horizon)
		if err != nil {
			return nil, fmt.Errorf("control[%d]: %w", i, err)
		}
		for _, t := range times {
			one := c
			one.At = t
			one.Cron = ""
			out = append(out, one)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out, nil
}
