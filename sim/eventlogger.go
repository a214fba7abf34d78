package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that logs every event before it triggers.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger creates an EventLogger that writes into the given logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := &EventLogger{}
	h.Logger = logger

	return h
}

// Func writes the event time, type, and handler into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if comp, ok := evt.Handler().(Component); ok {
		h.Logger.Printf("%.10f, %s -> %s",
			evt.Time(), reflect.TypeOf(evt), comp.Name())
		return
	}

	h.Logger.Printf("%.10f, %s", evt.Time(), reflect.TypeOf(evt))
}
