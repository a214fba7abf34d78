// Package idealmemcontroller provides an ideal memory controller that always
// completes an access in a fixed number of cycles.
package idealmemcontroller

import (
	"github.com/sarchlab/dmcsim/mem/mem"
	"github.com/sarchlab/dmcsim/sim"
)

type readRespondEvent struct {
	*sim.EventBase
	req *mem.ReadReq
}

func newReadRespondEvent(time sim.VTimeInSec, handler sim.Handler,
	req *mem.ReadReq,
) *readRespondEvent {
	return &readRespondEvent{sim.NewEventBase(time, handler), req}
}

type writeRespondEvent struct {
	*sim.EventBase
	req *mem.WriteReq
}

func newWriteRespondEvent(time sim.VTimeInSec, handler sim.Handler,
	req *mem.WriteReq,
) *writeRespondEvent {
	return &writeRespondEvent{sim.NewEventBase(time, handler), req}
}

// A Comp is an ideal memory controller that always responds to requests in a
// fixed number of cycles. There is no limitation on the concurrency of this
// unit.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort  sim.Port
	ctrlPort sim.Port

	state            string
	Storage          *mem.Storage
	Latency          int
	addressConverter mem.AddressConverter

	width          int
	inflightBuffer []sim.Msg
	respondReq     *mem.ControlMsg
}

// Tick updates the status of the memory controller.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}
