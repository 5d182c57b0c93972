package trace

import "sort"

// QueueSummary aggregates the job notifications of one entity.
type QueueSummary struct {
	Arrivals    int     `yaml:"arrivals"`
	Starts      int     `yaml:"starts"`
	Departures  int     `yaml:"departures"`
	Drops       int     `yaml:"drops"`
	Revocations int     `yaml:"revocations"`
	MeanSojourn float64 `yaml:"mean_sojourn"` // over departed jobs
	MeanWait    float64 `yaml:"mean_wait"`    // arrival to start, over started jobs
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalNotifications int                      `yaml:"notifications"`
	TotalRecords       int                      `yaml:"records"`
	Ambiguities        int                      `yaml:"ambiguities"`
	Queues             map[string]*QueueSummary `yaml:"queues"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields). Job names are assumed unique
// per entity while the job is present.
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{Queues: make(map[string]*QueueSummary)}
	if st == nil {
		return summary
	}
	summary.TotalNotifications = st.batches
	summary.TotalRecords = len(st.Records)
	summary.Ambiguities = len(Ambiguous(st))

	type visit struct {
		entity string
		job    string
	}
	arrived := make(map[visit]float64)
	sojourn := make(map[string]float64)
	wait := make(map[string]float64)
	for _, r := range st.Records {
		if r.Job == "" {
			continue
		}
		qs := summary.Queues[r.Entity]
		if qs == nil {
			qs = &QueueSummary{}
			summary.Queues[r.Entity] = qs
		}
		v := visit{r.Entity, r.Job}
		switch r.Kind {
		case "ARRIVAL":
			qs.Arrivals++
			arrived[v] = r.Time
		case "START":
			qs.Starts++
			if t, ok := arrived[v]; ok {
				wait[r.Entity] += r.Time - t
			}
		case "DEPARTURE":
			qs.Departures++
			if t, ok := arrived[v]; ok {
				sojourn[r.Entity] += r.Time - t
			}
			delete(arrived, v)
		case "DROP":
			qs.Drops++
			delete(arrived, v)
		case "REVOCATION":
			qs.Revocations++
			delete(arrived, v)
		}
	}
	for name, qs := range summary.Queues {
		if qs.Departures > 0 {
			qs.MeanSojourn = sojourn[name] / float64(qs.Departures)
		}
		if qs.Starts > 0 {
			qs.MeanWait = wait[name] / float64(qs.Starts)
		}
	}
	return summary
}

// QueueNames returns the entities present in the summary, sorted.
func (s *TraceSummary) QueueNames() []string {
	names := make([]string, 0, len(s.Queues))
	for name := range s.Queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
