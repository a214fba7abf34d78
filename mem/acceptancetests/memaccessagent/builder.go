package memaccessagent

import (
	"github.com/sarchlab/dmcsim/sim"
)

// A Builder can build MemAccessAgents.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	maxAddress uint64
	writeLeft  int
	readLeft   int
	lowModule  sim.RemotePort
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		maxAddress: 1024 * 1024,
		writeLeft:  1000,
		readLeft:   1000,
	}
}

// WithEngine sets the engine that the agent uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the agent.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithMaxAddress sets the upper bound of the addresses that the agent
// accesses.
func (b Builder) WithMaxAddress(addr uint64) Builder {
	b.maxAddress = addr
	return b
}

// WithWriteLeft sets the number of write requests to issue.
func (b Builder) WithWriteLeft(write int) Builder {
	b.writeLeft = write
	return b
}

// WithReadLeft sets the number of read requests to issue.
func (b Builder) WithReadLeft(read int) Builder {
	b.readLeft = read
	return b
}

// WithLowModule sets the port that the agent sends requests to.
func (b Builder) WithLowModule(lowModule sim.RemotePort) Builder {
	b.lowModule = lowModule
	return b
}

// Build creates a MemAccessAgent.
func (b Builder) Build(name string) *MemAccessAgent {
	agent := &MemAccessAgent{
		MaxAddress:    b.maxAddress,
		WriteLeft:     b.writeLeft,
		ReadLeft:      b.readLeft,
		LowModule:     b.lowModule,
		KnownMemValue: make(map[uint64]uint32),
	}

	agent.TickingComponent = sim.NewTickingComponent(
		name, b.engine, b.freq, agent)

	agent.memPort = sim.NewPort(agent, 1, 1, name+".Mem")
	agent.AddPort("Mem", agent.memPort)

	return agent
}
