package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTable is the table that describes the run that produced a recording.
const ExecTable = "exec_info"

// ExecInfo is one property of the recorded execution.
type ExecInfo struct {
	Property string
	Value    string
}

const execTimeLayout = "2006-01-02 15:04:05.000000000"

// Records program execution
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	e := &execRecorder{recorder: recorder}
	recorder.CreateTable(ExecTable, ExecInfo{})

	return e
}

// Start notes the start time, the command line and the working directory.
func (e *execRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(execTimeLayout)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "unknown"
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
}

// End writes the collected entries along with the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTable, entry)
	}

	e.recorder.InsertData(ExecTable,
		ExecInfo{"End Time", time.Now().Format(execTimeLayout)})

	e.entries = nil
}
