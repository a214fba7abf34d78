package dmcache

import "github.com/sarchlab/dmcsim/sim"

// A Builder can build direct-mapped write-back cache controllers.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	addrWidth int
	wordSize  uint64
	lineSize  uint64
	cacheSize uint64
	lowModule sim.RemotePort
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:      1 * sim.GHz,
		addrWidth: 32,
		wordSize:  4,
		lineSize:  64,
		cacheSize: 4096,
	}
}

// WithEngine sets the event engine that the cache uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the cache.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithAddressWidth sets the number of address bits.
func (b Builder) WithAddressWidth(addrWidth int) Builder {
	b.addrWidth = addrWidth
	return b
}

// WithWordSize sets the number of bytes in a word.
func (b Builder) WithWordSize(wordSize uint64) Builder {
	b.wordSize = wordSize
	return b
}

// WithLineSize sets the number of bytes in a cache line.
func (b Builder) WithLineSize(lineSize uint64) Builder {
	b.lineSize = lineSize
	return b
}

// WithCacheSize sets the total capacity of the cache, in bytes.
func (b Builder) WithCacheSize(cacheSize uint64) Builder {
	b.cacheSize = cacheSize
	return b
}

// WithLowModule sets the port of the lower-level memory that the cache
// fetches lines from and writes lines back to.
func (b Builder) WithLowModule(lowModule sim.RemotePort) Builder {
	b.lowModule = lowModule
	return b
}

// Build creates a cache controller. It panics if the geometry parameters are
// not powers of two or do not divide evenly.
func (b Builder) Build(name string) *Comp {
	g := makeGeometry(b.addrWidth, b.wordSize, b.lineSize, b.cacheSize)

	c := &Comp{
		geometry:  g,
		directory: newDirectory(g),
		lowModule: b.lowModule,
		ctrlState:  "enable",
		state:      stateIdle,
		fillBuf:    make([]byte, g.lineSize),
		staleBeats: map[string]bool{},
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	// The top port holds a single message. Together with the FSM only taking
	// requests in the idle state, a requester that issues while the
	// controller is busy sees backpressure instead of silent queueing.
	c.topPort = sim.NewPort(c, 1, 1, name+".TopPort")
	c.AddPort("Top", c.topPort)

	c.bottomPort = sim.NewPort(c, g.wordsPerLine, g.wordsPerLine,
		name+".BottomPort")
	c.AddPort("Bottom", c.bottomPort)

	c.ctrlPort = sim.NewPort(c, 1, 1, name+".CtrlPort")
	c.AddPort("Ctrl", c.ctrlPort)

	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&fsmMiddleware{Comp: c})

	return c
}
