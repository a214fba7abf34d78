package sim

import (
	"log"
)

// A LogHook is a hook that records information from the simulation into a
// log.
type LogHook interface {
	Hook
}

// LogHookBase provides the logger shared by all LogHooks.
type LogHookBase struct {
	*log.Logger
}
