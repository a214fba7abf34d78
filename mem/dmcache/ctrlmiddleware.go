package dmcache

import (
	"github.com/sarchlab/dmcsim/mem/mem"
)

// ctrlMiddleware serves the control port. Control messages take priority
// over the FSM work of the same tick.
type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() (madeProgress bool) {
	madeProgress = m.completeDrain()

	msg := m.ctrlPort.PeekIncoming()
	if msg == nil {
		return madeProgress
	}

	ctrlMsg := msg.(*mem.ControlMsg)

	m.ctrlMsgMustBeValid(ctrlMsg)

	switch {
	case ctrlMsg.Reset:
		madeProgress = m.handleReset(ctrlMsg) || madeProgress
	case ctrlMsg.Drain:
		madeProgress = m.handleDrain(ctrlMsg) || madeProgress
	case ctrlMsg.Enable:
		madeProgress = m.handleEnable(ctrlMsg) || madeProgress
	case ctrlMsg.Pause:
		madeProgress = m.handlePause(ctrlMsg) || madeProgress
	}

	return madeProgress
}

func (m *ctrlMiddleware) handleEnable(ctrlMsg *mem.ControlMsg) bool {
	if !m.ack(ctrlMsg) {
		return false
	}

	m.ctrlState = "enable"

	return true
}

func (m *ctrlMiddleware) handlePause(ctrlMsg *mem.ControlMsg) bool {
	if !m.ack(ctrlMsg) {
		return false
	}

	m.ctrlState = "pause"

	return true
}

// handleDrain stops taking new requests. The response is sent once the
// pending request has run to completion.
func (m *ctrlMiddleware) handleDrain(ctrlMsg *mem.ControlMsg) bool {
	m.ctrlPort.RetrieveIncoming()

	m.ctrlState = "drain"
	m.drainRspReq = ctrlMsg

	return true
}

func (m *ctrlMiddleware) completeDrain() bool {
	if m.ctrlState != "drain" || m.state != stateIdle {
		return false
	}

	rsp := m.drainRspReq.(*mem.ControlMsg).GenerateRsp()

	if err := m.ctrlPort.Send(rsp); err != nil {
		return false
	}

	m.drainRspReq = nil
	m.ctrlState = "pause"

	return true
}

// handleReset unconditionally discards the in-flight request, the transfer
// counter, and the fill buffer. The directory content survives. A drain
// that is still waiting for the pipeline becomes trivially complete, so
// its response is sent before the reset is acknowledged.
func (m *ctrlMiddleware) handleReset(ctrlMsg *mem.ControlMsg) bool {
	if !m.ackDiscardedDrain() {
		return false
	}

	if !m.ack(ctrlMsg) {
		return false
	}

	m.resetInflight()
	m.ctrlState = "enable"

	// A request that was queued but never accepted is discarded with the
	// reset as well.
	for m.topPort.RetrieveIncoming() != nil {
	}

	return true
}

// ackDiscardedDrain responds to a drain that a reset cuts short. The drain
// requester would otherwise wait forever for a response that completeDrain
// can no longer send.
func (m *ctrlMiddleware) ackDiscardedDrain() bool {
	if m.drainRspReq == nil {
		return true
	}

	rsp := m.drainRspReq.(*mem.ControlMsg).GenerateRsp()

	if err := m.ctrlPort.Send(rsp); err != nil {
		return false
	}

	m.drainRspReq = nil

	return true
}

// ack responds to a control message and removes it from the incoming buffer.
// The message stays in the buffer if the response cannot be sent.
func (m *ctrlMiddleware) ack(ctrlMsg *mem.ControlMsg) bool {
	rsp := ctrlMsg.GenerateRsp()

	if err := m.ctrlPort.Send(rsp); err != nil {
		return false
	}

	m.ctrlPort.RetrieveIncoming()

	return true
}

func (m *ctrlMiddleware) ctrlMsgMustBeValid(ctrlMsg *mem.ControlMsg) {
	numFlagSet := 0
	for _, flag := range []bool{
		ctrlMsg.Enable, ctrlMsg.Pause, ctrlMsg.Drain, ctrlMsg.Reset,
	} {
		if flag {
			numFlagSet++
		}
	}

	if numFlagSet != 1 {
		panic("control messages must set exactly one of " +
			"Enable, Pause, Drain, Reset")
	}
}
