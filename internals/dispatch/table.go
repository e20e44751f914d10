package dispatch

import "sync"

type table struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func newTable() *table {
	return &table{tasks: map[string]*Task{}}
}

// insert adds task unless its id is already taken.
func (t *table) insert(task *Task) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tasks[task.ID]; ok {
		return false
	}
	t.tasks[task.ID] = task
	return true
}

func (t *table) get(id string) (*Task, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	task, ok := t.tasks[id]
	return task, ok
}

func (t *table) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tasks)
}
