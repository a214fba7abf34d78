package idealmemcontroller

import (
	"github.com/sarchlab/dmcsim/mem/mem"
	"github.com/sarchlab/dmcsim/sim"
)

// A Builder can build ideal memory controllers.
type Builder struct {
	width            int
	latency          int
	freq             sim.Freq
	capacity         uint64
	engine           sim.Engine
	topBufSize       int
	storage          *mem.Storage
	addressConverter mem.AddressConverter
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		latency:    100,
		freq:       1 * sim.GHz,
		capacity:   4 * mem.GB,
		width:      1,
		topBufSize: 16,
	}
}

// WithWidth sets the number of requests that the memory controller can start
// serving in each cycle.
func (b Builder) WithWidth(width int) Builder {
	b.width = width
	return b
}

// WithLatency sets the latency of the memory controller, in cycles.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithFreq sets the frequency of the memory controller
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNewStorage asks the builder to create a new storage with the given
// capacity.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithEngine sets the engine of the memory controller
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithTopBufSize sets the size of the top port buffer
func (b Builder) WithTopBufSize(topBufSize int) Builder {
	b.topBufSize = topBufSize
	return b
}

// WithStorage sets the storage of the memory controller
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithAddressConverter sets the address converter of the memory controller
func (b Builder) WithAddressConverter(
	addressConverter mem.AddressConverter,
) Builder {
	b.addressConverter = addressConverter
	return b
}

// Build builds a new Comp
func (b Builder) Build(
	name string,
) *Comp {
	c := &Comp{
		Latency: b.latency,
		width:   b.width,
		state:   "enable",
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.addressConverter = b.addressConverter

	if b.storage == nil {
		c.Storage = mem.NewStorage(b.capacity)
	} else {
		c.Storage = b.storage
	}

	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	c.ctrlPort = sim.NewPort(c, 1, 1, name+".CtrlPort")
	c.AddPort("Ctrl", c.ctrlPort)

	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&memMiddleware{Comp: c})

	return c
}
