// Package scheduling owns the registry of scheduled tasks: request
// validation, conflict detection, reminders, per-assignee workload,
// recurrence expansion and heuristic schedule optimization.
package scheduling

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
)

// ErrTaskNotFound indicates the registry holds no task by the id.
var ErrTaskNotFound = errors.New("scheduled task not found")

// defaultConflictWindow is how close two same-assignee start times may sit
// before they count as a time-overlap conflict.
const defaultConflictWindow = 30 * time.Minute

// ScheduleRequest is the input to ScheduleTask.
type ScheduleRequest struct {
	TaskID        string                 `json:"task_id"`
	CaseID        string                 `json:"case_id"        validate:"required"`
	Title         string                 `json:"title"          validate:"required"`
	Description   string                 `json:"description,omitempty"`
	ScheduledTime time.Time              `json:"scheduled_time" validate:"required"`
	DueDate       *time.Time             `json:"due_date,omitempty"`
	Priority      models.TaskPriority    `json:"priority"       validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedTo    string                 `json:"assigned_to"    validate:"required"`
	AssignedBy    string                 `json:"assigned_by"`
	Recurrence    *models.RecurrenceRule `json:"recurrence,omitempty"`
	Dependencies  []string               `json:"dependencies,omitempty"`
	Metadata      map[string]any         `json:"metadata,omitempty"`
}

// Engine is the task scheduling engine. The registry is shared mutable
// state; every access goes through the engine's lock.
type Engine struct {
	logger         *slog.Logger
	clock          protocol.Clock
	validate       *validator.Validate
	conflictWindow time.Duration
	reminders      *reminderPlan

	mu    sync.RWMutex
	tasks map[string]*models.ScheduledTask
}

// NewEngine creates a scheduling engine with the default conflict window
// and reminder plan.
func NewEngine(logger *slog.Logger, clock protocol.Clock) *Engine {
	return &Engine{
		logger:         logger.With("module", "scheduling_engine"),
		clock:          clock,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		conflictWindow: defaultConflictWindow,
		reminders:      defaultReminderPlan(),
		tasks:          make(map[string]*models.ScheduledTask),
	}
}

// SetConflictWindow overrides the time-overlap threshold.
func (e *Engine) SetConflictWindow(window time.Duration) {
	e.conflictWindow = window
}

// ScheduleTask validates the request, registers the task and attaches the
// reminder set for its priority tier. Validation failures return a
// *ValidationError listing every violation.
func (e *Engine) ScheduleTask(req ScheduleRequest) (*models.ScheduledTask, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	now := e.clock.Now()

	task := &models.ScheduledTask{
		ID:            uuid.NewString(),
		TaskID:        req.TaskID,
		CaseID:        req.CaseID,
		Title:         req.Title,
		Description:   req.Description,
		ScheduledTime: req.ScheduledTime,
		DueDate:       req.DueDate,
		Priority:      req.Priority,
		Status:        models.TaskStatusPending,
		AssignedTo:    req.AssignedTo,
		AssignedBy:    req.AssignedBy,
		Recurrence:    req.Recurrence,
		Reminders:     e.reminders.forPriority(req.Priority, req.DueDate != nil),
		Dependencies:  slices.Clone(req.Dependencies),
		Metadata:      req.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if task.TaskID == "" {
		task.TaskID = task.ID
	}

	if task.Metadata == nil {
		task.Metadata = make(map[string]any)
	}

	e.mu.Lock()
	e.tasks[task.ID] = task
	e.mu.Unlock()

	e.logger.Info("Scheduled task",
		"task_id", task.ID,
		"case_id", task.CaseID,
		"assigned_to", task.AssignedTo,
		"scheduled_time", task.ScheduledTime,
		"priority", task.Priority)

	return task, nil
}

// Restore loads previously persisted tasks into the registry without
// request validation. Used at process start to rebuild in-memory state.
func (e *Engine) Restore(tasks []*models.ScheduledTask) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, task := range tasks {
		if task == nil || task.ID == "" {
			continue
		}

		// Metadata is omitempty on the wire; recurrence bookkeeping
		// writes into it and needs the map present.
		if task.Metadata == nil {
			task.Metadata = make(map[string]any)
		}

		e.tasks[task.ID] = task
	}
}

// Task returns the scheduled task by id.
func (e *Engine) Task(id string) (*models.ScheduledTask, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	task, ok := e.tasks[id]

	return task, ok
}

// Tasks snapshots the registry.
func (e *Engine) Tasks() []*models.ScheduledTask {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.ScheduledTask, 0, len(e.tasks))
	for _, task := range e.tasks {
		out = append(out, task)
	}

	return out
}

// TasksByAssignee returns every task assigned to the user.
func (e *Engine) TasksByAssignee(assignee string) []*models.ScheduledTask {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.ScheduledTask, 0)

	for _, task := range e.tasks {
		if task.AssignedTo == assignee {
			out = append(out, task)
		}
	}

	return out
}

// TasksByCase returns every task for a case.
func (e *Engine) TasksByCase(caseID string) []*models.ScheduledTask {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.ScheduledTask, 0)

	for _, task := range e.tasks {
		if task.CaseID == caseID {
			out = append(out, task)
		}
	}

	return out
}

// Dependents returns the tasks that declare a dependency on taskID.
func (e *Engine) Dependents(taskID string) []*models.ScheduledTask {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.ScheduledTask, 0)

	for _, task := range e.tasks {
		if slices.Contains(task.Dependencies, taskID) {
			out = append(out, task)
		}
	}

	return out
}

// UpdateStatus moves a task to a new lifecycle status.
func (e *Engine) UpdateStatus(id string, status models.TaskStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task.Status = status
	task.UpdatedAt = e.clock.Now()

	return nil
}

// Reassign hands a task to another user.
func (e *Engine) Reassign(id, toUser string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task.AssignedTo = toUser
	task.UpdatedAt = e.clock.Now()

	return nil
}

// SetPriority changes a task's priority tier.
func (e *Engine) SetPriority(id string, priority models.TaskPriority) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task.Priority = priority
	task.UpdatedAt = e.clock.Now()

	return nil
}

// AddDependency records that a task depends on another.
func (e *Engine) AddDependency(id, dependsOn string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if _, ok := e.tasks[dependsOn]; !ok {
		return fmt.Errorf("%w: dependency %s", ErrTaskNotFound, dependsOn)
	}

	if !slices.Contains(task.Dependencies, dependsOn) {
		task.Dependencies = append(task.Dependencies, dependsOn)
		task.UpdatedAt = e.clock.Now()
	}

	return nil
}

// SetDueDate moves a task's due date, keeping the schedule invariant.
func (e *Engine) SetDueDate(id string, due time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if due.Before(task.ScheduledTime) {
		return &ValidationError{Violations: []string{"due date precedes scheduled time"}}
	}

	task.DueDate = &due
	task.UpdatedAt = e.clock.Now()

	return nil
}
