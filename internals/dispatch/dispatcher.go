// Package dispatch runs tool invocations as asynchronous tasks and streams
// their progress.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docgate/docgate/internals/rbac"
	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/tools"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

type Resolver interface {
	Resolve(name string) (*tools.Tool, error)
}

type Decider interface {
	Decide(subject, resource, action string) rbac.Decision
}

// AuditRecord is emitted for every permission decision taken while running
// a task.
type AuditRecord struct {
	TaskID   string
	Tool     string
	Decision rbac.Decision
}

type Config struct {
	Registry Resolver
	Gate     Decider
	Logger   *slog.Logger
	Audit    func(AuditRecord)
	// NewID overrides task id generation.
	NewID func() (string, error)
	Now   func() time.Time
}

type Dispatcher struct {
	registry Resolver
	gate     Decider
	logger   *slog.Logger
	audit    func(AuditRecord)
	newID    func() (string, error)
	now      func() time.Time

	tasks *table
	wg    sync.WaitGroup
}

func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		registry: cfg.Registry,
		gate:     cfg.Gate,
		logger:   cfg.Logger,
		audit:    cfg.Audit,
		newID:    cfg.NewID,
		now:      cfg.Now,
		tasks:    newTable(),
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With(slog.String("component", "dispatch"))
	if d.audit == nil {
		d.audit = func(AuditRecord) {}
	}
	if d.newID == nil {
		d.newID = newTaskID
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// Submit records a running task for inv and starts executing it in the
// background. The task is visible to Get before Submit returns. The
// execution does not observe cancellation of ctx.
func (d *Dispatcher) Submit(ctx context.Context, inv schemas.ToolInvocation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if inv.Subject == "" {
		return "", fmt.Errorf("%w: user is required", tools.ErrInvalidArguments)
	}

	var task *Task
	for attempt := 0; attempt < 3; attempt++ {
		id, err := d.newID()
		if err != nil {
			return "", fmt.Errorf("generate task id: %w", err)
		}
		candidate := newTask(id, inv, d.now())
		if d.tasks.insert(candidate) {
			task = candidate
			break
		}
	}
	if task == nil {
		return "", errors.New("could not allocate a unique task id")
	}

	d.wg.Add(1)
	go d.run(context.WithoutCancel(ctx), task, inv)

	d.logger.Debug("Task submitted", slog.String("task_id", task.ID), slog.String("tool", inv.Tool), slog.String("user", inv.Subject))
	return task.ID, nil
}

func (d *Dispatcher) Get(id string) (*Task, error) {
	task, ok := d.tasks.get(id)
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Wait blocks until every submitted task has reached a terminal status.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, task *Task, inv schemas.ToolInvocation) {
	defer d.wg.Done()

	task.appendLog("Starting tool: " + inv.Tool)
	task.appendLog("User: " + inv.Subject)
	task.appendLog("Arguments: " + renderArguments(inv.Arguments))

	result, status := d.execute(ctx, task, inv)

	task.appendLog("Tool completed: " + result.Status())
	task.finish(status, result, d.now())

	d.logger.Info("Task finished",
		slog.String("task_id", task.ID),
		slog.String("tool", inv.Tool),
		slog.String("user", inv.Subject),
		slog.String("status", string(status)),
	)
}

func (d *Dispatcher) execute(ctx context.Context, task *Task, inv schemas.ToolInvocation) (schemas.ToolResult, schemas.TaskStatus) {
	tool, err := d.registry.Resolve(inv.Tool)
	if err != nil {
		task.appendLog(fmt.Sprintf("Error: unknown tool '%s'", inv.Tool))
		return schemas.ErrorResult(tools.ErrUnknownTool.Error()), schemas.TaskStatusFailed
	}

	if tool.Gated() {
		decision := d.gate.Decide(inv.Subject, tool.Resource, tool.Action)
		d.audit(AuditRecord{TaskID: task.ID, Tool: tool.Name, Decision: decision})
		if !decision.Allowed {
			task.appendLog("Permission denied: " + decision.String())
			d.logger.Warn("Permission denied",
				slog.String("task_id", task.ID),
				slog.String("user", decision.Subject),
				slog.String("resource", decision.Resource),
				slog.String("action", decision.Action),
			)
			return schemas.ErrorResult(tools.ErrPermissionDenied.Error()), schemas.TaskStatusFailed
		}
		task.appendLog("Permission granted: " + decision.String())
	}

	payload, err := d.invoke(ctx, tool, task, inv)
	if err != nil {
		task.appendLog("Error: " + err.Error())
		return schemas.ErrorResult(err.Error()), schemas.TaskStatusFailed
	}
	return schemas.SuccessResult(payload), schemas.TaskStatusFinished
}

// invoke runs the tool and turns a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, tool *tools.Tool, task *Task, inv schemas.ToolInvocation) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Tool panicked", slog.String("task_id", task.ID), slog.String("tool", tool.Name), slog.Any("panic", r))
			payload = nil
			err = fmt.Errorf("tool %s failed: %v", tool.Name, r)
		}
	}()
	return tool.Invoke(ctx, tools.Call{
		Subject:   inv.Subject,
		Arguments: inv.Arguments,
		Log:       func(line string) { task.appendLog(line) },
	})
}

func renderArguments(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

func newTaskID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
