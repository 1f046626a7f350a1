package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

const timeFormat = "2006-01-02 15:04:05.000000000"

type execInfo struct {
	Property string
	Value    string
}

// An ExecRecorder records how the program was run: when it started and
// ended, the command line, and the configuration it ran with.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execTableName, execInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start logs the start of the current execution.
func (e *ExecRecorder) Start() {
	e.Set("Start Time", time.Now().Format(timeFormat))
	e.Set("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Set("Working Directory", cwd)
}

// Set records a property of the execution, such as a configuration value.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, execInfo{Property: property, Value: value})
}

// End writes the recorded properties along with the exit time.
func (e *ExecRecorder) End() {
	e.Set("End Time", time.Now().Format(timeFormat))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
