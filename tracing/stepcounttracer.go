package tracing

import (
	"sync"
)

// StepCountTracer counts the events that happen while a task is in flight.
// An event is a task whose parent passed the filter. Every event counts as a
// step of its parent.
type StepCountTracer struct {
	filter            TaskFilter
	lock              sync.Mutex
	inflightTasks     map[string]map[string]bool
	stepNames         []string
	stepCount         map[string]uint64
	taskWithStepCount map[string]uint64
}

// NewStepCountTracer creates a new StepCountTracer
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	t := &StepCountTracer{
		filter:            filter,
		inflightTasks:     make(map[string]map[string]bool),
		stepCount:         make(map[string]uint64),
		taskWithStepCount: make(map[string]uint64),
	}
	return t
}

// GetStepNames returns all the step names collected, in the order they were
// first seen.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stepNames...)
}

// GetStepCount returns the number of steps that is recorded with a certain step
// name.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount[stepName]
}

// GetTaskCount returns the number of tasks that is recorded to have a certain
// step with a given name.
func (t *StepCountTracer) GetTaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskWithStepCount[stepName]
}

// StartTask records a task that passes the filter, or counts the task as a
// step if its parent is in flight.
func (t *StepCountTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.filter(task) {
		t.inflightTasks[task.ID] = make(map[string]bool)
		return
	}

	steps, ok := t.inflightTasks[task.ParentID]
	if !ok {
		return
	}

	t.countStep(task.What)

	if !steps[task.What] {
		steps[task.What] = true
		t.taskWithStepCount[task.What]++
	}
}

// StepTask does nothing
func (t *StepCountTracer) StepTask(_ Task) {
	// Do nothing
}

func (t *StepCountTracer) countStep(what string) {
	_, ok := t.stepCount[what]
	if !ok {
		t.stepNames = append(t.stepNames, what)
	}
	t.stepCount[what]++
}

// EndTask records the end of the task
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.inflightTasks, task.ID)
}
