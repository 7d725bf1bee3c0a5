package sim

import (
	"fmt"

	"github.com/sarchlab/axilite/interconnect"
	"github.com/sarchlab/axilite/memory"
)

// MaxDataWidth is the widest data bus the simulator supports.
const MaxDataWidth = 64

// Builder can build simulated systems.
type Builder struct {
	cfg           interconnect.Config
	backend       Backend
	maxCycles     uint64
	idGen         IDGenerator
	queueCapacity int
	resetCycles   int
}

// MakeBuilder creates a builder with default parameters: one master, one
// slave, the model backend and two reset cycles.
func MakeBuilder() Builder {
	return Builder{
		cfg:           interconnect.DefaultConfig(1, 1),
		backend:       BackendModel,
		maxCycles:     1_000_000,
		queueCapacity: 4096,
		resetCycles:   2,
	}
}

// WithConfig sets the interconnect configuration.
func (b Builder) WithConfig(cfg interconnect.Config) Builder {
	b.cfg = cfg
	return b
}

// WithBackend selects the fabric implementation.
func (b Builder) WithBackend(backend Backend) Builder {
	b.backend = backend
	return b
}

// WithMaxCycles sets the cycle budget after which Run reports a hang. Zero
// disables the budget.
func (b Builder) WithMaxCycles(n uint64) Builder {
	b.maxCycles = n
	return b
}

// WithIDGenerator sets how transaction ids are generated.
func (b Builder) WithIDGenerator(g IDGenerator) Builder {
	b.idGen = g
	return b
}

// WithQueueCapacity sets how many operations each master can queue.
func (b Builder) WithQueueCapacity(n int) Builder {
	b.queueCapacity = n
	return b
}

// WithResetCycles sets for how many cycles reset is held at start.
func (b Builder) WithResetCycles(n int) Builder {
	b.resetCycles = n
	return b
}

// Build creates a system. Every slave is backed by a storage as large as
// its address window.
func (b Builder) Build(name string) (*System, error) {
	amap, err := b.cfg.Validate()
	if err != nil {
		return nil, err
	}

	if b.cfg.DataWidth > MaxDataWidth {
		return nil, fmt.Errorf("%w: the simulator supports data up to %d bits, got %d",
			interconnect.ErrConfig, MaxDataWidth, b.cfg.DataWidth)
	}

	fabric, err := b.buildFabric()
	if err != nil {
		return nil, err
	}

	idGen := b.idGen
	if idGen == nil {
		idGen = NewSequentialIDGenerator()
	}

	s := &System{
		name:      name,
		cfg:       b.cfg,
		amap:      amap,
		fabric:    fabric,
		resetLeft: b.resetCycles,
		state:     fabric.State(),
		pending:   make([]int, b.cfg.Masters),
	}

	for i := 0; i < b.cfg.Masters; i++ {
		s.masters = append(s.masters, newMaster(
			fmt.Sprintf("%s.Master%d", name, i), i,
			b.queueCapacity, idGen,
			b.cfg.AddrWidth, b.cfg.DataWidth,
		))
	}

	for j := 0; j < b.cfg.Slaves; j++ {
		storage := memory.NewStorage(amap.Range(j).Size())
		s.slaves = append(s.slaves, newSlave(
			fmt.Sprintf("%s.Slave%d", name, j), j, storage, b.cfg.DataWidth))
	}

	s.engine = NewSerialEngine(s, b.maxCycles)

	return s, nil
}

func (b Builder) buildFabric() (Fabric, error) {
	switch b.backend {
	case BackendModel:
		amap, err := b.cfg.Validate()
		if err != nil {
			return nil, err
		}

		return NewModelFabric(b.cfg.Masters, amap), nil
	case BackendNetlist:
		return NewNetlistFabric(b.cfg)
	}

	return nil, fmt.Errorf("unknown backend %d", b.backend)
}
