package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"
)

// supportedMajor is the workload format major version this package reads.
const supportedMajor = 1

// WorkloadSpec is the top-level workload configuration.
// Loaded from YAML via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Version  string        `yaml:"version"`
	Seed     int64         `yaml:"seed"`
	Horizon  float64       `yaml:"horizon,omitempty"`
	NumJobs  int           `yaml:"num_jobs,omitempty"` // 0 = unlimited (use horizon only)
	Sources  []SourceSpec  `yaml:"sources"`
	Controls []ControlSpec `yaml:"controls,omitempty"`
}

// SourceSpec is one stream of jobs entering a queue.
type SourceSpec struct {
	ID        string         `yaml:"id"`
	Target    string         `yaml:"target"`
	Rate      float64        `yaml:"rate"` // jobs per time unit
	Arrival   ArrivalSpec    `yaml:"arrival"`
	Service   DistSpec       `yaml:"service"`
	Patience  *DistSpec      `yaml:"patience,omitempty"` // waiting jobs are revoked after this long
	Lifecycle *LifecycleSpec `yaml:"lifecycle,omitempty"`
}

// ArrivalSpec configures the inter-arrival time process.
type ArrivalSpec struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv,omitempty"`
}

// DistSpec parameterizes a non-negative time distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// LifecycleSpec restricts a source to active windows.
type LifecycleSpec struct {
	Windows []ActiveWindow `yaml:"windows"`
}

// ActiveWindow is a half-open interval [Start, End).
type ActiveWindow struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// ControlSpec is an operation on a queue at a fixed time, or repeated on a cron schedule
// after At.
type ControlSpec struct {
	At       float64 `yaml:"at"`
	Queue    string  `yaml:"queue"`
	Action   string  `yaml:"action"`
	Credits  *int    `yaml:"credits,omitempty"`
	Duration float64 `yaml:"duration,omitempty"` // vacation length; 0 means until stopped
	Cron     string  `yaml:"cron,omitempty"`     // e.g. "*/5 * * * *" or "@every 30s"
}

// Control actions.
const (
	ActionVacationStart = "vacation-start"
	ActionVacationStop  = "vacation-stop"
	ActionCredits       = "credits"
)

var (
	validArrivalProcesses = map[string]bool{"poisson": true, "gamma": true, "weibull": true, "constant": true}
	validDistTypes        = map[string]bool{"constant": true, "exponential": true, "gaussian": true, "uniform": true, "lognormal": true}
	validActions          = map[string]bool{ActionVacationStart: true, ActionVacationStop: true, ActionCredits: true}
)

// LoadWorkloadSpec reads and parses a YAML workload specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	return ParseWorkloadSpec(data)
}

// ParseWorkloadSpec parses a YAML workload specification.
func ParseWorkloadSpec(data []byte) (*WorkloadSpec, error) {
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *WorkloadSpec) Validate() error {
	v, err := semver.ParseTolerant(s.Version)
	if err != nil {
		return fmt.Errorf("workload version %q: %w", s.Version, err)
	}
	if v.Major != supportedMajor {
		return fmt.Errorf("unsupported workload version %q; major version %d required", s.Version, supportedMajor)
	}
	if s.Horizon < 0 || math.IsNaN(s.Horizon) {
		return fmt.Errorf("horizon must be non-negative, got %f", s.Horizon)
	}
	if s.NumJobs < 0 {
		return fmt.Errorf("num_jobs must be non-negative, got %d", s.NumJobs)
	}
	if len(s.Sources) == 0 && len(s.Controls) == 0 {
		return fmt.Errorf("at least one source or control required")
	}
	ids := make(map[string]bool, len(s.Sources))
	for i := range s.Sources {
		if err := validateSource(&s.Sources[i], i); err != nil {
			return err
		}
		if id := s.Sources[i].ID; id != "" {
			if ids[id] {
				return fmt.Errorf("source[%d]: duplicate id %q", i, id)
			}
			ids[id] = true
		}
	}
	for i, c := range s.Controls {
		if err := validateControl(c, i); err != nil {
			return err
		}
	}
	return nil
}

// Targets returns every queue name the spec refers to.
func (s *WorkloadSpec) Targets() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, src := range s.Sources {
		add(src.Target)
	}
	for _, c := range s.Controls {
		add(c.Queue)
	}
	return names
}

func validateSource(src *SourceSpec, idx int) error {
	prefix := fmt.Sprintf("source[%d]", idx)
	if src.Target == "" {
		return fmt.Errorf("%s: target queue required", prefix)
	}
	if err := validateFinitePositive(prefix+".rate", src.Rate); err != nil {
		return err
	}
	if !validArrivalProcesses[src.Arrival.Process] {
		return fmt.Errorf("%s: unknown arrival process %q; valid: poisson, gamma, weibull, constant", prefix, src.Arrival.Process)
	}
	if src.Arrival.CV != nil {
		if err := validateFinitePositive(prefix+".cv", *src.Arrival.CV); err != nil {
			return err
		}
		if cv := *src.Arrival.CV; src.Arrival.Process == "weibull" && (cv < 0.01 || cv > 10.4) {
			return fmt.Errorf("%s: weibull CV must be in [0.01, 10.4], got %f", prefix, cv)
		}
	}
	if err := validateDistSpec(prefix+".service", &src.Service); err != nil {
		return err
	}
	if src.Patience != nil {
		if err := validateDistSpec(prefix+".patience", src.Patience); err != nil {
			return err
		}
	}
	if src.Lifecycle != nil {
		for i, w := range src.Lifecycle.Windows {
			if !(w.Start < w.End) {
				return fmt.Errorf("%s.lifecycle.windows[%d]: start %f must precede end %f", prefix, i, w.Start, w.End)
			}
		}
	}
	return nil
}

func validateDistSpec(prefix string, d *DistSpec) error {
	if !validDistTypes[d.Type] {
		return fmt.Errorf("%s: unknown distribution type %q; valid: constant, exponential, gaussian, uniform, lognormal", prefix, d.Type)
	}
	for name, val := range d.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%s.params.%s must be a finite number, got %f", prefix, name, val)
		}
	}
	_, err := NewTimeSampler(*d)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return nil
}

func validateControl(c ControlSpec, idx int) error {
	prefix := fmt.Sprintf("control[%d]", idx)
	if c.Queue == "" {
		return fmt.Errorf("%s: queue required", prefix)
	}
	if !validActions[c.Action] {
		return fmt.Errorf("%s: unknown action %q; valid: vacation-start, vacation-stop, credits", prefix, c.Action)
	}
	if c.At < 0 || math.IsNaN(c.At) || math.IsInf(c.At, 0) {
		return fmt.Errorf("%s: at must be a finite non-negative time, got %f", prefix, c.At)
	}
	if c.Action == ActionCredits && (c.Credits == nil || *c.Credits < 0) {
		return fmt.Errorf("%s: credits action needs a non-negative credits value", prefix)
	}
	if c.Duration < 0 || math.IsNaN(c.Duration) {
		return fmt.Errorf("%s: duration must be non-negative, got %f", prefix, c.Duration)
	}
	if c.Cron != "" {
		if _, err := controlParser.Parse(c.Cron); err != nil {
			return fmt.Errorf("%s: cron %q: %w", prefix, c.Cron, err)
		}
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
