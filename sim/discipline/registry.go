package discipline

import (
	"fmt"

	"github.com/jandejongh/jqueues-sub004/sim"
)

// Params holds the numeric parameters of the named disciplines.
type Params struct {
	Servers int // server count for multi-server disciplines (defaults to 1)
	Buffer  int // waiting room for "fcfs-b"
}

// ValidDisciplines is the set of recognized discipline names.
// Shared by network validation and New to avoid duplication.
var ValidDisciplines = map[string]bool{
	"":       true,
	"fcfs":   true,
	"fcfs-b": true,
	"lcfs":   true,
	"sjf":    true,
	"is":     true,
	"sink":   true,
	"zero":   true,
	"drop":   true,
}

// IsValidDiscipline returns true if name is a recognized discipline.
func IsValidDiscipline(name string) bool {
	return ValidDisciplines[name]
}

// New creates a discipline by name. Empty string defaults to single-server FCFS.
// Panics on unrecognized names.
func New(name string, p Params) sim.Discipline {
	if !IsValidDiscipline(name) {
		panic(fmt.Sprintf("unknown discipline %q", name))
	}
	c := p.Servers
	if c <= 0 {
		c = 1
	}
	switch name {
	case "", "fcfs":
		return NewFCFS(c)
	case "fcfs-b":
		return NewBoundedFCFS(c, p.Buffer)
	case "lcfs":
		return NewLCFS(c)
	case "sjf":
		return NewSJF(c)
	case "is":
		return NewIS()
	case "sink":
		return Sink{}
	case "zero":
		return Zero{}
	case "drop":
		return Drop{}
	default:
		panic(fmt.Sprintf("unhandled discipline %q", name))
	}
}
