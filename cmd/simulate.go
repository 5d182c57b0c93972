package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jandejongh/jqueues-sub004/sim"
	"github.com/jandejongh/jqueues-sub004/sim/network"
	"github.com/jandejongh/jqueues-sub004/sim/trace"
	"github.com/jandejongh/jqueues-sub004/sim/workload"
)

type runOptions struct {
	networkPath  string
	workloadPath string
	seed         *int64 // nil keeps the workload spec's seed
	horizon      float64
	traceLevel   string
}

// runResult is what `jqsim run` prints.
type runResult struct {
	RunID       string              `yaml:"run_id"` // same inputs, same ID
	Seed        int64               `yaml:"seed"`
	Horizon     float64             `yaml:"horizon"`
	Clock       float64             `yaml:"clock"`
	Jobs        int                 `yaml:"jobs"`
	Summary     *trace.TraceSummary `yaml:"summary"`
	Ambiguities []trace.Ambiguity   `yaml:"ambiguities,omitempty"`
	Records     []trace.Record      `yaml:"records,omitempty"`
}

func runSimulation(opts runOptions, w io.Writer) error {
	if !trace.IsValidTraceLevel(opts.traceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, jobs, all", opts.traceLevel)
	}
	cfg, err := network.LoadConfig(opts.networkPath)
	if err != nil {
		return err
	}
	spec, err := workload.LoadWorkloadSpec(opts.workloadPath)
	if err != nil {
		return err
	}
	if opts.seed != nil {
		spec.Seed = *opts.seed
	}
	end := opts.horizon
	if end <= 0 {
		end = spec.Horizon
	}
	if end <= 0 {
		return fmt.Errorf("no horizon: set --horizon or horizon in the workload spec")
	}

	el := sim.NewEventList()
	el.SetDefaultResetTime(0)
	el.Reset()
	net, err := network.Build(cfg, el, sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed)))
	if err != nil {
		return fmt.Errorf("building network: %w", err)
	}
	for _, target := range spec.Targets() {
		if _, ok := net.Entry(target); !ok {
			return fmt.Errorf("workload refers to %q, which is not a top-level queue of the network", target)
		}
	}

	// The summary needs job records even when none are printed.
	level := trace.TraceLevel(opts.traceLevel)
	if level != trace.TraceLevelAll {
		level = trace.TraceLevelJobs
	}
	rec := sim.NewRecorder(trace.NewSimulationTrace(trace.TraceConfig{Level: level}))
	net.Attach(rec)

	jobs, err := workload.GenerateJobs(spec, end)
	if err != nil {
		return err
	}
	controls, err := spec.ExpandControls(end)
	if err != nil {
		return err
	}
	if err := workload.Schedule(el, jobs, controls, net.Entry); err != nil {
		return err
	}
	logrus.Infof("Starting simulation: %d jobs, horizon %g, seed %d", len(jobs), end, spec.Seed)
	if err := el.RunUntil(end, false, true); err != nil {
		return err
	}

	st := rec.Trace()
	runID, err := deriveRunID(cfg, spec, end)
	if err != nil {
		return err
	}
	res := runResult{
		RunID:       runID,
		Seed:        spec.Seed,
		Horizon:     end,
		Clock:       el.Clock(),
		Jobs:        len(jobs),
		Summary:     trace.Summarize(st),
		Ambiguities: trace.Ambiguous(st),
	}
	if opts.traceLevel != "" && trace.TraceLevel(opts.traceLevel) != trace.TraceLevelNone {
		res.Records = st.Records
	}
	for _, a := range res.Ambiguities {
		logrus.Debugf("[t=%g] %s: %d notifications at the same instant, order is arbitrary", a.Time, a.Entity, len(a.Batches))
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(res)
}

// deriveRunID names a run by its effective inputs.
func deriveRunID(cfg *network.Config, spec *workload.WorkloadSpec, horizon float64) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "seed=%d horizon=%g\n", spec.Seed, horizon)
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("encoding network for run id: %w", err)
	}
	if err := enc.Encode(spec); err != nil {
		return "", fmt.Errorf("encoding workload for run id: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, buf.Bytes()).String(), nil
}

func validateNetwork(path string, w io.Writer) error {
	cfg, err := network.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "network OK: %d queues, %d composites, entries %v\n", len(cfg.Queues), len(cfg.Composites), cfg.TopLevel())
	return err
}
