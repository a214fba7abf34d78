package idealmemcontroller

import (
	"github.com/sarchlab/dmcsim/mem/mem"
)

type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() (madeProgress bool) {
	msg := m.ctrlPort.PeekIncoming()
	if msg == nil {
		return false
	}

	ctrlMsg := msg.(*mem.ControlMsg)

	m.ctrlMsgMustBeValid(ctrlMsg)

	switch {
	case ctrlMsg.Reset:
		madeProgress = m.handleReset(ctrlMsg)
	case ctrlMsg.Drain:
		madeProgress = m.handleDrain(ctrlMsg)
	case ctrlMsg.Enable:
		madeProgress = m.handleEnable(ctrlMsg)
	case ctrlMsg.Pause:
		madeProgress = m.handlePause(ctrlMsg)
	}

	return madeProgress
}

func (m *ctrlMiddleware) handleEnable(ctrlMsg *mem.ControlMsg) bool {
	if !m.ack(ctrlMsg) {
		return false
	}

	m.state = "enable"

	return true
}

func (m *ctrlMiddleware) handlePause(ctrlMsg *mem.ControlMsg) bool {
	if !m.ack(ctrlMsg) {
		return false
	}

	m.state = "pause"

	return true
}

// handleDrain stops taking new requests. The response is sent when the
// inflight buffer is emptied.
func (m *ctrlMiddleware) handleDrain(ctrlMsg *mem.ControlMsg) bool {
	m.ctrlPort.RetrieveIncoming()

	m.state = "drain"
	m.respondReq = ctrlMsg

	return true
}

func (m *ctrlMiddleware) handleReset(ctrlMsg *mem.ControlMsg) bool {
	if !m.ack(ctrlMsg) {
		return false
	}

	m.inflightBuffer = nil
	m.respondReq = nil
	m.state = "enable"

	return true
}

// ack responds to a control message and removes it from the incoming buffer.
// The message stays in the buffer if the response cannot be sent.
func (m *ctrlMiddleware) ack(ctrlMsg *mem.ControlMsg) bool {
	rsp := ctrlMsg.GenerateRsp()

	err := m.ctrlPort.Send(rsp)
	if err != nil {
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
