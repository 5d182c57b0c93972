// Package trace records the notification stream of a simulation run.
// It stores pure data types and does not depend on sim.
package trace

// Record is one sub-notification as seen by the recorder.
type Record struct {
	Time   float64 `yaml:"time"`
	Entity string  `yaml:"entity"`
	Batch  int     `yaml:"batch"` // sequence number of the notification the record belongs to
	Kind   string  `yaml:"kind"`
	Job    string  `yaml:"job,omitempty"`
}

// Ambiguity marks an entity that produced more than one notification at the same instant.
// The relative order of such notifications is an artifact of event-list tie breaking.
type Ambiguity struct {
	Entity  string  `yaml:"entity"`
	Time    float64 `yaml:"time"`
	Batches []int   `yaml:"batches"`
}
