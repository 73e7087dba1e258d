package sim

import (
	"log"
	"reflect"
)

// EventLogger is an hook that prints the event information
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new LogEventHook which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger
	return h
}

type namedHandler interface {
	Handler
	Name() string
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if task, ok := evt.(*TaskEvent); ok {
		h.Logger.Printf("%d, task %s", evt.Time(), task.task.name)
		return
	}

	handler, ok := evt.Handler().(namedHandler)
	if ok {
		h.Logger.Printf("%d, %s -> %s",
			evt.Time(), reflect.TypeOf(evt), handler.Name())
	} else {
		h.Logger.Printf("%d, %s", evt.Time(), reflect.TypeOf(evt))
	}
}
