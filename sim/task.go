package sim

import "log"

// TaskEvent wakes up a periodic task.
type TaskEvent struct {
	EventBase
	task *periodicTask
}

type periodicTask struct {
	name   string
	period VTimeInSlot
	fn     func()
}

// A TaskScheduler runs periodic callbacks on top of an engine. It plays the
// role of the cooperative process scheduler with event timers: each task
// runs to completion and then waits for its timer to expire again.
type TaskScheduler struct {
	engine Engine
	tasks  []*periodicTask
}

// NewTaskScheduler creates a TaskScheduler that schedules on the engine.
func NewTaskScheduler(engine Engine) *TaskScheduler {
	return &TaskScheduler{engine: engine}
}

// SchedulePeriodic arms a timer that runs fn every period slots. The first
// run happens one period from now.
func (s *TaskScheduler) SchedulePeriodic(
	name string,
	period VTimeInSlot,
	fn func(),
) {
	if period == 0 {
		log.Panicf("task %s has a zero period", name)
	}

	task := &periodicTask{name: name, period: period, fn: fn}
	s.tasks = append(s.tasks, task)
	s.wake(task, s.engine.CurrentTime()+period)
}

// NumTasks returns the number of registered periodic tasks.
func (s *TaskScheduler) NumTasks() int {
	return len(s.tasks)
}

func (s *TaskScheduler) wake(task *periodicTask, at VTimeInSlot) {
	evt := &TaskEvent{
		EventBase: *NewEventBase(at, s),
		task:      task,
	}
	evt.secondary = true

	s.engine.Schedule(evt)
}

// Handle runs the task carried by the event and re-arms its timer.
func (s *TaskScheduler) Handle(e Event) error {
	evt, ok := e.(*TaskEvent)
	if !ok {
		log.Panicf("task scheduler cannot handle %T", e)
	}

	evt.task.fn()
	s.wake(evt.task, evt.Time()+evt.task.period)

	return nil
}
