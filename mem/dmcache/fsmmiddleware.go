package dmcache

import (
	"log"
	"reflect"

	"github.com/sarchlab/dmcsim/mem/mem"
	"github.com/sarchlab/dmcsim/tracing"
)

// fsmMiddleware evaluates the controller FSM. Exactly one transition is
// considered per tick.
type fsmMiddleware struct {
	*Comp
}

func (m *fsmMiddleware) Tick() bool {
	if m.ctrlState == "pause" {
		return false
	}

	madeProgress := m.collectBottomRsp()
	madeProgress = m.step() || madeProgress

	return madeProgress
}

// collectBottomRsp takes one response from the lower-level memory. Write
// acknowledgements carry no information for the controller and are dropped.
// Data for the fetch beat in flight lands in the fill buffer.
func (m *fsmMiddleware) collectBottomRsp() bool {
	msg := m.bottomPort.PeekIncoming()
	if msg == nil {
		return false
	}

	switch msg := msg.(type) {
	case *mem.WriteDoneRsp:
		m.bottomPort.RetrieveIncoming()
		return true
	case *mem.DataReadyRsp:
		return m.collectFetchBeat(msg)
	default:
		log.Panicf("cannot handle message of type %s on the bottom port",
			reflect.TypeOf(msg))
	}

	return false
}

func (m *fsmMiddleware) collectFetchBeat(rsp *mem.DataReadyRsp) bool {
	if m.staleBeats[rsp.RespondTo] {
		m.bottomPort.RetrieveIncoming()
		delete(m.staleBeats, rsp.RespondTo)

		return true
	}

	if m.state != stateFetchLine || rsp.RespondTo != m.inflightBeat {
		log.Panicf("data ready response %s does not match any fetch beat",
			rsp.RespondTo)
	}

	m.bottomPort.RetrieveIncoming()

	copy(m.fillBuf[uint64(m.beatCount)*m.geometry.wordSize:], rsp.Data)
	m.beatCount++
	m.inflightBeat = ""

	return true
}

func (m *fsmMiddleware) step() bool {
	switch m.state {
	case stateIdle:
		return m.acceptRequest()
	case stateCheckTag:
		return m.checkTag()
	case stateCheckDirty:
		return m.checkDirty()
	case stateWriteBack:
		return m.writeBack()
	case stateFetchLine:
		return m.fetchLine()
	case stateWriteData:
		return m.writeData()
	default:
		// An unreachable encoding is a protocol fault. Re-synchronize to
		// idle rather than corrupting the directory.
		m.resetInflight()
		return true
	}
}

// acceptRequest latches one request from the top port. Requests are only
// taken in the idle state, so at most one is ever in flight.
func (m *fsmMiddleware) acceptRequest() bool {
	if m.ctrlState != "enable" {
		return false
	}

	msg := m.topPort.PeekIncoming()
	if msg == nil {
		return false
	}

	pending := &pendingReq{req: msg}

	switch msg := msg.(type) {
	case *mem.ReadReq:
		if msg.AccessByteSize != m.geometry.wordSize {
			log.Panicf("read request must access exactly one word, got %d",
				msg.AccessByteSize)
		}

		pending.addr = msg.Address
	case *mem.WriteReq:
		if uint64(len(msg.Data)) != m.geometry.wordSize {
			log.Panicf("write request must carry exactly one word, got %d",
				len(msg.Data))
		}

		pending.addr = msg.Address
		pending.isWrite = true
		pending.data = msg.Data
	default:
		log.Panicf("cannot handle message of type %s on the top port",
			reflect.TypeOf(msg))
	}

	pending.tag, pending.index, pending.offset =
		m.geometry.decompose(pending.addr)
	pending.wordIdx = m.geometry.wordIndex(pending.offset)

	m.topPort.RetrieveIncoming()
	tracing.TraceReqReceive(msg, m.Comp)

	m.pending = pending
	m.state = stateCheckTag

	return true
}

func (m *fsmMiddleware) checkTag() bool {
	p := m.pending

	if !m.directory.isHit(p.index, p.tag) {
		p.missed = true
		m.recordMiss()
		m.beatCount = 0
		m.state = stateCheckDirty

		return true
	}

	if p.isWrite {
		return m.completeWriteHit()
	}

	return m.completeReadHit()
}

// completeReadHit responds with the stored word. A hit never mutates the
// directory, so a failed send can simply be retried.
func (m *fsmMiddleware) completeReadHit() bool {
	p := m.pending
	word := m.directory.readWord(p.index, p.wordIdx)

	rsp := mem.DataReadyRspBuilder{}.
		WithSrc(m.topPort.AsRemote()).
		WithDst(p.req.Meta().Src).
		WithRspTo(p.req.Meta().ID).
		WithData(word).
		Build()

	if err := m.topPort.Send(rsp); err != nil {
		return false
	}

	m.recordHit()
	m.completeReq()

	return true
}

// completeWriteHit sends the acknowledgement before touching the directory so
// that a failed send never applies the write twice.
func (m *fsmMiddleware) completeWriteHit() bool {
	p := m.pending

	rsp := mem.WriteDoneRspBuilder{}.
		WithSrc(m.topPort.AsRemote()).
		WithDst(p.req.Meta().Src).
		WithRspTo(p.req.Meta().ID).
		Build()

	if err := m.topPort.Send(rsp); err != nil {
		return false
	}

	m.directory.writeWord(p.index, p.wordIdx, p.data)
	m.directory.markDirty(p.index)

	m.recordHit()
	m.completeReq()

	return true
}

// checkDirty decides whether the occupant of the target line needs a
// write-back. A clean or never-valid occupant is dropped without any memory
// traffic.
func (m *fsmMiddleware) checkDirty() bool {
	p := m.pending
	tag, valid, dirty, data := m.directory.evictView(p.index)

	if valid && dirty {
		m.evictTag = tag
		m.evictIndex = p.index
		m.evictData = data
		m.stats.Eviction++
		tracing.AddTaskStep(
			tracing.MsgIDAtReceiver(p.req, m.Comp), m.Comp, "eviction")
		m.state = stateWriteBack

		return true
	}

	m.state = stateFetchLine

	return true
}

// writeBack drives one word of the evicted line to memory per beat. The
// memory accepts every write beat, so a beat counts as soon as the port
// takes it.
func (m *fsmMiddleware) writeBack() bool {
	g := m.geometry

	if m.beatCount == g.wordsPerLine {
		m.directory.clearDirty(m.evictIndex)
		m.evictData = nil
		m.beatCount = 0
		m.state = stateFetchLine

		return true
	}

	beatAddr := g.lineAddr(m.evictTag, m.evictIndex) +
		uint64(m.beatCount)*g.wordSize
	word := m.evictData[uint64(m.beatCount)*g.wordSize : uint64(m.beatCount+1)*g.wordSize]

	req := mem.WriteReqBuilder{}.
		WithSrc(m.bottomPort.AsRemote()).
		WithDst(m.lowModule).
		WithAddress(beatAddr).
		WithData(word).
		Build()

	if err := m.bottomPort.Send(req); err != nil {
		return false
	}

	m.beatCount++

	return true
}

// fetchLine requests the words of the new line from memory one at a time,
// gathering them in the fill buffer. The line is installed only after the
// last beat, so the directory stays consistent throughout the burst.
func (m *fsmMiddleware) fetchLine() bool {
	g := m.geometry
	p := m.pending

	if m.beatCount == g.wordsPerLine {
		m.directory.installLine(p.index, p.tag, m.fillBuf)
		m.beatCount = 0

		if p.isWrite {
			m.state = stateWriteData
		} else {
			m.state = stateCheckTag
		}

		return true
	}

	if m.inflightBeat != "" {
		return false
	}

	beatAddr := g.lineAddr(p.tag, p.index) + uint64(m.beatCount)*g.wordSize

	req := mem.ReadReqBuilder{}.
		WithSrc(m.bottomPort.AsRemote()).
		WithDst(m.lowModule).
		WithAddress(beatAddr).
		WithByteSize(g.wordSize).
		Build()

	if err := m.bottomPort.Send(req); err != nil {
		return false
	}

	m.inflightBeat = req.ID

	return true
}

// writeData applies the pending write to the just-installed line. No second
// tag comparison is needed; the install guarantees the hit.
func (m *fsmMiddleware) writeData() bool {
	p := m.pending

	rsp := mem.WriteDoneRspBuilder{}.
		WithSrc(m.topPort.AsRemote()).
		WithDst(p.req.Meta().Src).
		WithRspTo(p.req.Meta().ID).
		Build()

	if err := m.topPort.Send(rsp); err != nil {
		return false
	}

	m.directory.writeWord(p.index, p.wordIdx, p.data)
	m.directory.markDirty(p.index)

	m.completeReq()

	return true
}

func (m *fsmMiddleware) completeReq() {
	tracing.TraceReqComplete(m.pending.req, m.Comp)

	m.pending = nil
	m.state = stateIdle
}

func (m *fsmMiddleware) recordHit() {
	p := m.pending

	// A re-entry after a fill is a guaranteed hit. It was already counted as
	// a miss when the tag was first compared.
	if p.missed {
		return
	}

	if p.isWrite {
		m.stats.WriteHit++
	} else {
		m.stats.ReadHit++
	}

	tracing.AddTaskStep(
		tracing.MsgIDAtReceiver(p.req, m.Comp), m.Comp, "hit")
}

func (m *fsmMiddleware) recordMiss() {
	p := m.pending

	if p.isWrite {
		m.stats.WriteMiss++
	} else {
		m.stats.ReadMiss++
	}

	tracing.AddTaskStep(
		tracing.MsgIDAtReceiver(p.req, m.Comp), m.Comp, "miss")
}
