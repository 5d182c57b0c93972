// Package network describes queueing networks in YAML and builds them on an EventList.
package network

import (
	"bytes"
	"fmt"
	"os"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/jandejongh/jqueues-sub004/sim/composite"
	"github.com/jandejongh/jqueues-sub004/sim/discipline"
)

// Config is a network description, loadable from a YAML file.
// Composites may refer to queues and to composites listed before them.
type Config struct {
	Queues     []QueueConfig     `yaml:"queues"`
	Composites []CompositeConfig `yaml:"composites,omitempty"`
}

// QueueConfig describes an atomic queue.
type QueueConfig struct {
	Name       string `yaml:"name"`
	Discipline string `yaml:"discipline"`
	Servers    int    `yaml:"servers,omitempty"` // 0 = 1
	Buffer     int    `yaml:"buffer,omitempty"`  // fcfs-b only
}

// CompositeConfig describes a composite queue over named members.
type CompositeConfig struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Queues  []string    `yaml:"queues"`
	Random  bool        `yaml:"random,omitempty"`  // parallel: random instead of round robin
	Initial []float64   `yaml:"initial,omitempty"` // jackson
	Routing [][]float64 `yaml:"routing,omitempty"` // jackson
	Visits  int         `yaml:"visits,omitempty"`  // feedback
}

// Composite types.
const (
	TypeTandem           = "tandem"
	TypeEncapsulator     = "encapsulator"
	TypeCompressedTandem = "compressed-tandem"
	TypeParallel         = "parallel"
	TypeJackson          = "jackson"
	TypeFeedback         = "feedback"
)

// ValidCompositeTypes is the set of recognized composite types.
var ValidCompositeTypes = map[string]bool{
	TypeTandem:           true,
	TypeEncapsulator:     true,
	TypeCompressedTandem: true,
	TypeParallel:         true,
	TypeJackson:          true,
	TypeFeedback:         true,
}

// LoadConfig reads and parses a YAML network file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML network description. Discipline and composite type names are
// normalized to kebab case, so "CompressedTandem" and "compressed_tandem" both read as
// "compressed-tandem".
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing network config: %w", err)
	}
	for i := range cfg.Queues {
		cfg.Queues[i].Discipline = strcase.ToKebab(cfg.Queues[i].Discipline)
	}
	for i := range cfg.Composites {
		cfg.Composites[i].Type = strcase.ToKebab(cfg.Composites[i].Type)
	}
	return &cfg, nil
}

// Validate checks names, references and parameters. Every queue may be a member of at most
// one composite.
func (c *Config) Validate() error {
	if len(c.Queues) == 0 {
		return fmt.Errorf("at least one queue required")
	}
	defined := make(map[string]bool)
	define := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s without a name", kind)
		}
		if defined[name] {
			return fmt.Errorf("duplicate name %q", name)
		}
		defined[name] = true
		return nil
	}
	for _, q := range c.Queues {
		if err := define("queue", q.Name); err != nil {
			return err
		}
		if !discipline.IsValidDiscipline(q.Discipline) {
			return fmt.Errorf("queue %q: unknown discipline %q", q.Name, q.Discipline)
		}
		if q.Servers < 0 {
			return fmt.Errorf("queue %q: servers must be non-negative, got %d", q.Name, q.Servers)
		}
		if q.Buffer < 0 {
			return fmt.Errorf("queue %q: buffer must be non-negative, got %d", q.Name, q.Buffer)
		}
	}
	member := make(map[string]string)
	for _, cc := range c.Composites {
		if !ValidCompositeTypes[cc.Type] {
			return fmt.Errorf("composite %q: unknown type %q", cc.Name, cc.Type)
		}
		for _, m := range cc.Queues {
			if !defined[m] {
				return fmt.Errorf("composite %q: member %q is not defined before it", cc.Name, m)
			}
			if owner, taken := member[m]; taken {
				return fmt.Errorf("composite %q: member %q already belongs to %q", cc.Name, m, owner)
			}
			member[m] = cc.Name
		}
		if err := define("composite", cc.Name); err != nil {
			return err
		}
		if err := cc.validateShape(); err != nil {
			return err
		}
	}
	return nil
}

func (cc CompositeConfig) validateShape() error {
	n := len(cc.Queues)
	switch cc.Type {
	case TypeEncapsulator, TypeFeedback:
		if n != 1 {
			return fmt.Errorf("composite %q: %s needs exactly 1 queue, got %d", cc.Name, cc.Type, n)
		}
	case TypeCompressedTandem:
		if n != 2 {
			return fmt.Errorf("composite %q: %s needs exactly 2 queues, got %d", cc.Name, cc.Type, n)
		}
	default:
		if n == 0 {
			return fmt.Errorf("composite %q: no member queues", cc.Name)
		}
	}
	if cc.Type == TypeFeedback && cc.Visits <= 0 {
		return fmt.Errorf("composite %q: visits must be positive, got %d", cc.Name, cc.Visits)
	}
	if cc.Type == TypeJackson {
		if len(cc.Initial) != n {
			return fmt.Errorf("composite %q: %d initial probabilities for %d queues", cc.Name, len(cc.Initial), n)
		}
		if err := composite.ValidateJacksonRouting(cc.Initial, cc.Routing); err != nil {
			return fmt.Errorf("composite %q: %w", cc.Name, err)
		}
	}
	return nil
}

// TopLevel returns the names that are not members of any composite, in definition order.
// Jobs may only be offered to these.
func (c *Config) TopLevel() []string {
	member := make(map[string]bool)
	for _, cc := range c.Composites {
		for _, m := range cc.Queues {
			member[m] = true
		}
	}
	var names []string
	for _, q := range c.Queues {
		if !member[q.Name] {
			names = append(names, q.Name)
		}
	}
	for _, cc := range c.Composites {
		if !member[cc.Name] {
			names = append(names, cc.Name)
		}
	}
	return names
}
