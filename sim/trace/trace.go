package trace

// TraceLevel controls what the recorder keeps.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelJobs keeps only sub-notifications that carry a job.
	TraceLevelJobs TraceLevel = "jobs"
	// TraceLevelAll keeps every sub-notification, UPDATE and STATE_CHANGED included.
	TraceLevelAll TraceLevel = "all"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone: true,
	TraceLevelJobs: true,
	TraceLevelAll:  true,
	"":             true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records in notification order.
type SimulationTrace struct {
	Config  TraceConfig
	Records []Record
	batches int
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Records: make([]Record, 0),
	}
}

// NextBatch returns the sequence number for the next notification, starting at 1.
func (st *SimulationTrace) NextBatch() int {
	st.batches++
	return st.batches
}

// Batches returns how many notifications have been numbered.
func (st *SimulationTrace) Batches() int {
	return st.batches
}

// Record appends a record.
func (st *SimulationTrace) Record(r Record) {
	st.Records = append(st.Records, r)
}

// Ambiguous lists every entity and instant at which the entity produced two or more
// notifications, in order of first occurrence.
func Ambiguous(st *SimulationTrace) []Ambiguity {
	if st == nil {
		return nil
	}
	type key struct {
		entity string
		time   float64
	}
	batches := make(map[key][]int)
	var order []key
	for _, r := range st.Records {
		k := key{r.Entity, r.Time}
		seen := batches[k]
		if len(seen) > 0 && seen[len(seen)-1] == r.Batch {
			continue
		}
		if seen == nil {
			order = append(order, k)
		}
		batches[k] = append(seen, r.Batch)
	}
	var out []Ambiguity
	for _, k := range order {
		if b := batches[k]; len(b) > 1 {
			out = append(out, Ambiguity{Entity: k.entity, Time: k.time, Batches: b})
		}
	}
	return out
}
