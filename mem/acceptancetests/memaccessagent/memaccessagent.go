// Package memaccessagent provides an agent that drives random read and write
// traffic for memory system acceptance tests.
package memaccessagent

import (
	"encoding/binary"
	"log"
	"math/rand"
	"reflect"

	"github.com/sarchlab/dmcsim/mem/mem"
	"github.com/sarchlab/dmcsim/sim"
)

var dumpLog = false

// A MemAccessAgent is a Component that can help testing caches and memory
// controllers by generating a large number of read and write requests. It
// keeps a single request in flight, as the cache-side protocol requires, and
// verifies every read against the values it has written.
type MemAccessAgent struct {
	*sim.TickingComponent

	LowModule  sim.RemotePort
	MaxAddress uint64

	WriteLeft     int
	ReadLeft      int
	KnownMemValue map[uint64]uint32

	memPort         sim.Port
	pendingReadReq  *mem.ReadReq
	pendingWriteReq *mem.WriteReq
	pendingValue    uint32
}

// Tick updates the states of the agent and issues new read and write
// requests.
func (a *MemAccessAgent) Tick() bool {
	madeProgress := false

	madeProgress = a.processMsgRsp() || madeProgress

	if a.ReadLeft == 0 && a.WriteLeft == 0 {
		return madeProgress
	}

	if a.isRequestInFlight() {
		return madeProgress
	}

	if a.shouldRead() {
		madeProgress = a.doRead() || madeProgress
	} else {
		madeProgress = a.doWrite() || madeProgress
	}

	return madeProgress
}

// Done returns true if the agent has completed all the accesses.
func (a *MemAccessAgent) Done() bool {
	return a.ReadLeft == 0 && a.WriteLeft == 0 && !a.isRequestInFlight()
}

func (a *MemAccessAgent) isRequestInFlight() bool {
	return a.pendingReadReq != nil || a.pendingWriteReq != nil
}

func (a *MemAccessAgent) processMsgRsp() bool {
	msg := a.memPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	switch msg := msg.(type) {
	case *mem.WriteDoneRsp:
		write := a.writeMustBePending(msg.RespondTo)

		if dumpLog {
			log.Printf("%.10f, agent, write complete, 0x%X\n",
				a.CurrentTime(), write.Address)
		}

		a.KnownMemValue[write.Address] = a.pendingValue
		a.pendingWriteReq = nil

		return true
	case *mem.DataReadyRsp:
		read := a.readMustBePending(msg.RespondTo)

		if dumpLog {
			log.Printf("%.10f, agent, read complete, 0x%X, %v\n",
				a.CurrentTime(), read.Address, msg.Data)
		}

		a.checkReadResult(read, msg)
		a.pendingReadReq = nil

		return true
	default:
		log.Panicf("cannot process message of type %s", reflect.TypeOf(msg))
	}

	return false
}

func (a *MemAccessAgent) writeMustBePending(rspTo string) *mem.WriteReq {
	if a.pendingWriteReq == nil || a.pendingWriteReq.ID != rspTo {
		log.Panicf("write done response %s matches no pending write", rspTo)
	}

	return a.pendingWriteReq
}

func (a *MemAccessAgent) readMustBePending(rspTo string) *mem.ReadReq {
	if a.pendingReadReq == nil || a.pendingReadReq.ID != rspTo {
		log.Panicf("data ready response %s matches no pending read", rspTo)
	}

	return a.pendingReadReq
}

func (a *MemAccessAgent) checkReadResult(
	read *mem.ReadReq,
	rsp *mem.DataReadyRsp,
) {
	found := binary.LittleEndian.Uint32(rsp.Data)
	expected, known := a.KnownMemValue[read.Address]

	if known && found != expected {
		log.Panicf("read 0x%X returned 0x%08X, expected 0x%08X",
			read.Address, found, expected)
	}
}

func (a *MemAccessAgent) shouldRead() bool {
	if len(a.KnownMemValue) == 0 {
		return false
	}

	if a.ReadLeft == 0 {
		return false
	}

	if a.WriteLeft == 0 {
		return true
	}

	dice := rand.Float64()

	return dice > 0.5
}

func (a *MemAccessAgent) doRead() bool {
	address := a.randomReadAddress()

	readReq := mem.ReadReqBuilder{}.
		WithSrc(a.memPort.AsRemote()).
		WithDst(a.LowModule).
		WithAddress(address).
		WithByteSize(4).
		Build()

	err := a.memPort.Send(readReq)
	if err == nil {
		a.pendingReadReq = readReq
		a.ReadLeft--

		if dumpLog {
			log.Printf("%.10f, agent, read, 0x%X\n", a.CurrentTime(), address)
		}

		return true
	}

	return false
}

// randomReadAddress returns an address that has been written before, so that
// the read result can be verified.
func (a *MemAccessAgent) randomReadAddress() uint64 {
	for {
		addr := a.randomAddress()
		if _, written := a.KnownMemValue[addr]; written {
			return addr
		}
	}
}

func (a *MemAccessAgent) randomAddress() uint64 {
	return rand.Uint64() % (a.MaxAddress / 4) * 4
}

func (a *MemAccessAgent) doWrite() bool {
	address := a.randomAddress()
	data := rand.Uint32()

	writeReq := mem.WriteReqBuilder{}.
		WithSrc(a.memPort.AsRemote()).
		WithDst(a.LowModule).
		WithAddress(address).
		WithData(uint32ToBytes(data)).
		Build()

	err := a.memPort.Send(writeReq)
	if err == nil {
		a.WriteLeft--
		a.pendingWriteReq = writeReq
		a.pendingValue = data

		if dumpLog {
			log.Printf("%.10f, agent, write, 0x%X, %v\n",
				a.CurrentTime(), address, writeReq.Data)
		}

		return true
	}

	return false
}

func uint32ToBytes(data uint32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, data)

	return bytes
}
