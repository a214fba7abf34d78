// The dmcache acceptance test drives random read and write traffic through a
// direct-mapped write-back cache backed by an ideal memory controller. Every
// read is verified against the last value written to the same address.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/sarchlab/dmcsim/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/dmcsim/mem/dmcache"
	"github.com/sarchlab/dmcsim/mem/idealmemcontroller"
	"github.com/sarchlab/dmcsim/mem/mem"
	"github.com/sarchlab/dmcsim/sim"
	"github.com/sarchlab/dmcsim/sim/directconnection"
)

var seedFlag = flag.Int64("seed", 0, "Random Seed")
var numAccessFlag = flag.Int("num-access", 100000,
	"Number of accesses to generate")
var maxAddressFlag = flag.Uint64("max-address", 1048576,
	"Address range to use")
var cacheSizeFlag = flag.Uint64("cache-size", 4096,
	"Cache capacity in bytes")
var lineSizeFlag = flag.Uint64("line-size", 64, "Cache line size in bytes")
var traceFlag = flag.Bool("trace", false, "Log port traffic to stdout")

var engine sim.Engine
var agent *memaccessagent.MemAccessAgent

func main() {
	flag.Parse()

	initSeed()
	buildEnvironment()
	runSimulation()
	agentMustBeDone()
}

func initSeed() {
	var seed int64
	if *seedFlag == 0 {
		seed = time.Now().UnixNano()
	} else {
		seed = *seedFlag
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)

	rand.Seed(seed)
}

func buildEnvironment() {
	engine = sim.NewSerialEngine()

	memCtrl := idealmemcontroller.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithLatency(10).
		WithNewStorage(4 * mem.GB).
		Build("Mem")

	cache := dmcache.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithCacheSize(*cacheSizeFlag).
		WithLineSize(*lineSizeFlag).
		WithLowModule(memCtrl.GetPortByName("Top").AsRemote()).
		Build("Cache")

	agent = memaccessagent.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithMaxAddress(*maxAddressFlag).
		WithWriteLeft(*numAccessFlag).
		WithReadLeft(*numAccessFlag).
		WithLowModule(cache.GetPortByName("Top").AsRemote()).
		Build("Agent")

	conn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		Build("Conn")

	conn.PlugIn(agent.GetPortByName("Mem"))
	conn.PlugIn(cache.GetPortByName("Top"))
	conn.PlugIn(cache.GetPortByName("Bottom"))
	conn.PlugIn(memCtrl.GetPortByName("Top"))

	if *traceFlag {
		logger := log.New(os.Stdout, "", 0)
		cache.GetPortByName("Top").
			AcceptHook(sim.NewPortMsgLogger(logger, engine))
		cache.GetPortByName("Bottom").
			AcceptHook(sim.NewPortMsgLogger(logger, engine))
	}

	agent.TickLater()
}

func runSimulation() {
	err := engine.Run()
	if err != nil {
		panic(err)
	}
}

func agentMustBeDone() {
	if !agent.Done() {
		panic("not all accesses completed")
	}

	fmt.Fprintf(os.Stderr, "Passed at %.10f s\n",
		float64(engine.CurrentTime()))
}
