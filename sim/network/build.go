package network

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/jandejongh/jqueues-sub004/sim"
	"github.com/jandejongh/jqueues-sub004/sim/composite"
	"github.com/jandejongh/jqueues-sub004/sim/discipline"
)

// Network is a built network: every queue by name, composites included.
type Network struct {
	el         *sim.EventList
	queues     map[string]*sim.Queue
	composites map[string]*composite.Queue
	order      []string
	topLevel   map[string]bool
}

// Build validates cfg and creates its queues on el. Random routing draws from rng, one
// stream per composite.
func Build(cfg *Config, el *sim.EventList, rng *sim.PartitionedRNG) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Network{
		el:         el,
		queues:     make(map[string]*sim.Queue),
		composites: make(map[string]*composite.Queue),
		topLevel:   make(map[string]bool),
	}
	for _, name := range cfg.TopLevel() {
		n.topLevel[name] = true
	}
	for _, qc := range cfg.Queues {
		d := discipline.New(qc.Discipline, discipline.Params{Servers: qc.Servers, Buffer: qc.Buffer})
		n.add(qc.Name, sim.NewQueue(el, qc.Name, d))
	}
	for _, cc := range cfg.Composites {
		members := make([]*sim.Queue, len(cc.Queues))
		for i, m := range cc.Queues {
			members[i] = n.queues[m]
		}
		c, err := buildComposite(el, cc, members, rng)
		if err != nil {
			return nil, err
		}
		n.composites[cc.Name] = c
		n.add(cc.Name, c.Queue)
	}
	logrus.Debugf("network built: %d queues, %d composites", len(cfg.Queues), len(cfg.Composites))
	return n, nil
}

func buildComposite(el *sim.EventList, cc CompositeConfig, members []*sim.Queue, rng *sim.PartitionedRNG) (*composite.Queue, error) {
	var stream *rand.Rand
	if rng != nil {
		stream = rng.ForSubsystem(sim.SubsystemRouting(cc.Name))
	}
	var c *composite.Queue
	var err error
	switch cc.Type {
	case TypeTandem:
		c, err = composite.NewTandem(el, cc.Name, members...)
	case TypeEncapsulator:
		c, err = composite.NewEncapsulator(el, cc.Name, members[0])
	case TypeCompressedTandem:
		c, err = composite.NewCompressedTandem2(el, cc.Name, members[0], members[1])
	case TypeParallel:
		if !cc.Random {
			stream = nil
		} else if stream == nil {
			return nil, fmt.Errorf("composite %q: random routing needs a random source", cc.Name)
		}
		c, err = composite.NewParallel(el, cc.Name, stream, members...)
	case TypeJackson:
		c, err = composite.NewJackson(el, cc.Name, stream, cc.Initial, cc.Routing, members...)
	case TypeFeedback:
		c, err = composite.NewFeedback(el, cc.Name, cc.Visits, members[0])
	default:
		err = fmt.Errorf("unknown composite type %q", cc.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("composite %q: %w", cc.Name, err)
	}
	return c, nil
}

func (n *Network) add(name string, q *sim.Queue) {
	n.queues[name] = q
	n.order = append(n.order, name)
}

// EventList returns the event list the network lives on.
func (n *Network) EventList() *sim.EventList {
	return n.el
}

// Queue returns the named queue, composite or not.
func (n *Network) Queue(name string) (*sim.Queue, bool) {
	q, ok := n.queues[name]
	return q, ok
}

// Composite returns the named composite.
func (n *Network) Composite(name string) (*composite.Queue, bool) {
	c, ok := n.composites[name]
	return c, ok
}

// Entry returns the named queue if jobs may be offered to it, that is, if it is not a member
// of a composite.
func (n *Network) Entry(name string) (*sim.Queue, bool) {
	if !n.topLevel[name] {
		return nil, false
	}
	return n.Queue(name)
}

// Names returns every queue name in definition order.
func (n *Network) Names() []string {
	return append([]string(nil), n.order...)
}

// Attach registers r on every queue of the network.
func (n *Network) Attach(r *sim.Recorder) {
	for _, name := range n.order {
		r.Attach(&n.queues[name].Entity)
	}
}
