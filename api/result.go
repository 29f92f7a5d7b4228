// Package api
// Author: momentics@gmail.com
//
// Task records: a task, its captured arguments and its outcome.

package api

// TaskRecord carries a task together with the arguments it was submitted
// with. After execution exactly one of Result or Err is meaningful.
type TaskRecord struct {
	Task   Task
	Args   []any
	Result any
	Err    error
}

// NewTaskRecord captures task and args for later execution.
func NewTaskRecord(task Task, args ...any) *TaskRecord {
	return &TaskRecord{Task: task, Args: args}
}

// Complete stores the outcome of a run. A failure discards any result.
func (r *TaskRecord) Complete(result any, err error) {
	if err != nil {
		r.Result = nil
		r.Err = err
		return
	}
	r.Result = result
	r.Err = nil
}

// Failed reports whether the recorded run failed.
func (r *TaskRecord) Failed() bool {
	return r.Err != nil
}
