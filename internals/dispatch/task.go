package dispatch

import (
	"sync"
	"time"

	"github.com/docgate/docgate/internals/schemas"
)

// Task tracks one tool invocation. Its execution goroutine is the only
// writer; the log is append-only and frozen once the status is terminal.
type Task struct {
	ID        string
	Tool      string
	Subject   string
	CreatedAt time.Time

	mu         sync.RWMutex
	status     schemas.TaskStatus
	log        []string
	result     schemas.ToolResult
	finishedAt time.Time
	// changed is closed and replaced on every append and on the terminal
	// transition.
	changed chan struct{}
}

func newTask(id string, inv schemas.ToolInvocation, now time.Time) *Task {
	return &Task{
		ID:        id,
		Tool:      inv.Tool,
		Subject:   inv.Subject,
		CreatedAt: now,
		status:    schemas.TaskStatusRunning,
		log:       []string{},
		changed:   make(chan struct{}),
	}
}

func (t *Task) appendLog(line string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return false
	}
	t.log = append(t.log, line)
	t.notifyLocked()
	return true
}

// finish records the terminal status and result. Only the first call has an
// effect.
func (t *Task) finish(status schemas.TaskStatus, result schemas.ToolResult, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() || !status.Terminal() {
		return false
	}
	t.status = status
	t.result = result
	t.finishedAt = now
	t.notifyLocked()
	return true
}

func (t *Task) notifyLocked() {
	close(t.changed)
	t.changed = make(chan struct{})
}

type taskView struct {
	lines   []string
	status  schemas.TaskStatus
	result  schemas.ToolResult
	changed <-chan struct{}
}

// since returns the log lines past cursor together with the status observed
// at the same instant, so a terminal status implies lines is complete.
func (t *Task) since(cursor int) taskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	view := taskView{status: t.status, result: t.result, changed: t.changed}
	if cursor < len(t.log) {
		view.lines = append([]string(nil), t.log[cursor:]...)
	}
	return view
}

func (t *Task) Status() schemas.TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Task) Result() schemas.ToolResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

func (t *Task) Log() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.log...)
}

func (t *Task) Snapshot() schemas.TaskResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()
	resp := schemas.TaskResponse{
		TaskID:    t.ID,
		Tool:      t.Tool,
		User:      t.Subject,
		Status:    t.status,
		CreatedAt: t.CreatedAt.Format(time.RFC3339Nano),
		Log:       append([]string{}, t.log...),
		Result:    t.result,
	}
	if !t.finishedAt.IsZero() {
		resp.FinishedAt = t.finishedAt.Format(time.RFC3339Nano)
	}
	return resp
}
