package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dmcsim/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/dmcsim/mem/dmcache"
	"github.com/sarchlab/dmcsim/mem/idealmemcontroller"
	"github.com/sarchlab/dmcsim/mem/mem"
	"github.com/sarchlab/dmcsim/sim"
	"github.com/sarchlab/dmcsim/sim/directconnection"
	"github.com/sarchlab/dmcsim/simulation"
	"github.com/sarchlab/dmcsim/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a random-traffic cache simulation.",
	Long: `Run drives random word-sized reads and writes through a ` +
		`direct-mapped write-back cache and reports hit, miss, and ` +
		`eviction counts. Every read is verified against the last value ` +
		`written to the same address.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runSimulation(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int64("seed", 0,
		"Random seed. 0 picks a time-based seed.")
	runCmd.Flags().Int("num-access", 10000,
		"Number of reads and number of writes to generate")
	runCmd.Flags().Uint64("max-address", 16384,
		"Address range the traffic covers, in bytes")
	runCmd.Flags().Uint64("cache-size", 4096,
		"Cache capacity in bytes")
	runCmd.Flags().Uint64("line-size", 64,
		"Cache line size in bytes")
	runCmd.Flags().Int("mem-latency", 100,
		"Memory controller latency in cycles")
	runCmd.Flags().Bool("trace", false,
		"Record a task trace into a database for visualization")
	runCmd.Flags().Bool("no-monitoring", false,
		"Do not start the monitoring server")
	runCmd.Flags().Int("monitor-port", 0,
		"Port for the monitoring server. 0 picks a random port.")
	runCmd.Flags().String("output", "",
		"Base name of the output database files")
}

func runSimulation(cmd *cobra.Command) {
	initSeed(cmd)

	s := buildSimulation(cmd)
	defer s.Terminate()

	cache, agent := buildEnvironment(cmd, s)

	err := s.GetEngine().Run()
	if err != nil {
		panic(err)
	}

	if !agent.Done() {
		panic("not all accesses completed")
	}

	reportStats(s, cache)
}

func initSeed(cmd *cobra.Command) {
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)

	rand.Seed(seed)
}

func buildSimulation(cmd *cobra.Command) *simulation.Simulation {
	traceOn, _ := cmd.Flags().GetBool("trace")
	noMonitoring, _ := cmd.Flags().GetBool("no-monitoring")
	monitorPort, _ := cmd.Flags().GetInt("monitor-port")
	output, _ := cmd.Flags().GetString("output")

	builder := simulation.MakeBuilder()

	if traceOn {
		builder = builder.WithVisTracing()
	}

	if noMonitoring {
		builder = builder.WithoutMonitoring()
	} else if monitorPort > 0 {
		builder = builder.WithMonitorPort(monitorPort)
	}

	if output != "" {
		builder = builder.WithOutputFileName(output)
	}

	return builder.Build()
}

func buildEnvironment(
	cmd *cobra.Command,
	s *simulation.Simulation,
) (*dmcache.Comp, *memaccessagent.MemAccessAgent) {
	numAccess, _ := cmd.Flags().GetInt("num-access")
	maxAddress, _ := cmd.Flags().GetUint64("max-address")
	cacheSize, _ := cmd.Flags().GetUint64("cache-size")
	lineSize, _ := cmd.Flags().GetUint64("line-size")
	memLatency, _ := cmd.Flags().GetInt("mem-latency")

	engine := s.GetEngine()

	memCtrl := idealmemcontroller.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithLatency(memLatency).
		WithNewStorage(4 * mem.GB).
		Build("Mem")

	cache := dmcache.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithCacheSize(cacheSize).
		WithLineSize(lineSize).
		WithLowModule(memCtrl.GetPortByName("Top").AsRemote()).
		Build("Cache")

	agent := memaccessagent.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithMaxAddress(maxAddress).
		WithWriteLeft(numAccess).
		WithReadLeft(numAccess).
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

	s.RegisterComponent(memCtrl)
	s.RegisterComponent(cache)
	s.RegisterComponent(agent)

	if tracer := s.GetVisTracer(); tracer != nil {
		tracing.CollectTrace(cache, tracer)
		tracing.CollectTrace(memCtrl, tracer)
	}

	agent.TickLater()

	return cache, agent
}

func reportStats(s *simulation.Simulation, cache *dmcache.Comp) {
	stats := cache.Stats()

	recorder := s.GetDataRecorder()
	recorder.CreateTable("cache_stats", stats)
	recorder.InsertData("cache_stats", stats)

	fmt.Fprintf(os.Stderr, "Finished at %.10f s\n",
		float64(s.GetEngine().CurrentTime()))
	fmt.Fprintf(os.Stderr,
		"ReadHit %d, ReadMiss %d, WriteHit %d, WriteMiss %d, Eviction %d\n",
		stats.ReadHit, stats.ReadMiss,
		stats.WriteHit, stats.WriteMiss, stats.Eviction)
}
