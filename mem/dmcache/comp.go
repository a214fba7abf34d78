// Package dmcache provides a direct-mapped, write-back, write-allocate cache
// controller that serves one request at a time.
//
// The controller sits between one in-order requester on its top port and one
// lower-level memory on its bottom port. A request that hits completes
// immediately. A request that misses first writes the dirty occupant of the
// target line back to memory, then fetches the new line word by word, and
// finally completes the original request. The whole protocol is driven by an
// explicit finite-state machine that is evaluated once per tick.
package dmcache

import "github.com/sarchlab/dmcsim/sim"

// fsmState enumerates the states of the controller FSM.
type fsmState int

const (
	stateIdle fsmState = iota
	stateCheckTag
	stateCheckDirty
	stateWriteBack
	stateFetchLine
	stateWriteData
)

func (s fsmState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCheckTag:
		return "check-tag"
	case stateCheckDirty:
		return "check-dirty"
	case stateWriteBack:
		return "write-back"
	case stateFetchLine:
		return "fetch-line"
	case stateWriteData:
		return "write-data"
	default:
		return "invalid"
	}
}

// A pendingReq is the single request that the controller is working on. The
// slot is filled when a request is accepted in the idle state and cleared
// when the response is sent.
type pendingReq struct {
	req     sim.Msg
	isWrite bool
	data    []byte

	addr    uint64
	tag     uint64
	index   uint64
	offset  uint64
	wordIdx int

	missed bool
}

// Stats counts the accesses that the controller has served.
type Stats struct {
	ReadHit   uint64
	ReadMiss  uint64
	WriteHit  uint64
	WriteMiss uint64
	Eviction  uint64
}

// Comp is a direct-mapped write-back cache controller.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort    sim.Port
	bottomPort sim.Port
	ctrlPort   sim.Port

	lowModule sim.RemotePort

	geometry  geometry
	directory *directory

	ctrlState string

	state        fsmState
	pending      *pendingReq
	beatCount    int
	fillBuf      []byte
	inflightBeat string
	staleBeats   map[string]bool

	evictTag   uint64
	evictIndex uint64
	evictData  []byte

	drainRspReq sim.Msg

	stats Stats
}

// Tick updates the state of the cache controller.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// Stats returns the access counters of the controller.
func (c *Comp) Stats() Stats {
	return c.stats
}

// WordsPerLine returns the number of words in a cache line.
func (c *Comp) WordsPerLine() int {
	return c.geometry.wordsPerLine
}

// resetInflight drops everything the controller is doing. The directory
// content survives; a fetch in flight never touched it.
func (c *Comp) resetInflight() {
	c.state = stateIdle
	c.pending = nil
	c.beatCount = 0
	if c.inflightBeat != "" {
		// The memory will still answer the abandoned beat. Remember it so
		// the late response can be dropped. Earlier abandoned beats may
		// still be unanswered, so they stay remembered too.
		c.staleBeats[c.inflightBeat] = true
	}
	c.inflightBeat = ""
	c.fillBuf = make([]byte, c.geometry.lineSize)
	c.evictTag = 0
	c.evictIndex = 0
	c.evictData = nil
	c.drainRspReq = nil
}
