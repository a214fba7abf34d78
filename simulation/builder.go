package simulation

import (
	"github.com/rs/xid"
	"github.com/sarchlab/dmcsim/datarecording"
	"github.com/sarchlab/dmcsim/monitoring"
	"github.com/sarchlab/dmcsim/sim"
	"github.com/sarchlab/dmcsim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	traceOn        bool
	monitorOn      bool
	monitorPort    int
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithVisTracing sets the simulation to record traces into a database for
// later visualization.
func (b Builder) WithVisTracing() Builder {
	b.traceOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "dmcsim_" + s.id
	}
	s.dataRecorder = datarecording.NewDataRecorder(outputPath)

	s.engine = sim.NewSerialEngine()

	if b.traceOn {
		traceWriter := tracing.NewSQLiteTraceWriter(outputPath + "_trace")
		s.visTracer = tracing.NewDBTracer(s.engine, traceWriter)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
