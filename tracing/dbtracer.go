package tracing

import (
	"sync"

	"github.com/sarchlab/dmcsim/sim"
	"github.com/tebeka/atexit"
)

// TracerBackend is a backend that can store tasks.
type TracerBackend interface {
	// Init prepares the backend for storing tasks.
	Init()

	// Write writes a task into the storage.
	Write(task Task)

	// Flush flushes the tasks that are buffered in the backend.
	Flush()
}

// DBTracer is a tracer that can store tasks into a database.
// DBTracers can connect with different backends so that the tasks can be
// stored in different types of databases (e.g., CSV files, SQLite databases).
type DBTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	backend    TracerBackend

	startTime, endTime sim.VTimeInSec

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer. The tasks that have not ended when the
// program exits are flushed with the simulation end time.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	backend TracerBackend,
) *DBTracer {
	backend.Init()

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() { t.Terminate() })

	return t
}

// SetTimeRange sets the time range of the tracer. Tasks that end before the
// start time or start after the end time are ignored.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task location must be set")
	}
}

// StepTask marks a step of a task.
func (t *DBTracer) StepTask(_ Task) {
	// Do nothing for now.
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.EndTime = t.timeTeller.CurrentTime()

	if t.startTime > 0 && task.EndTime < t.startTime {
		delete(t.tracingTasks, task.ID)
		return
	}

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = task.EndTime
	delete(t.tracingTasks, task.ID)

	t.backend.Write(originalTask)
}

// Terminate writes the tasks that have not yet ended and flushes the backend.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.timeTeller.CurrentTime()
	for _, task := range t.tracingTasks {
		task.EndTime = now
		t.backend.Write(task)
	}

	t.tracingTasks = nil
	t.backend.Flush()
}
