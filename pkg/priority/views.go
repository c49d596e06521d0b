package priority

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docket-io/docket/pkg/models"
)

// ErrTaskNotFound indicates the task registry holds no task by the id.
var ErrTaskNotFound = errors.New("task not found")

// Filter narrows the task set a prioritized view covers.
type Filter struct {
	CaseID     string
	AssignedTo string
	Statuses   []models.TaskStatus
}

func (f Filter) matches(task *models.ScheduledTask) bool {
	if f.CaseID != "" && task.CaseID != f.CaseID {
		return false
	}

	if f.AssignedTo != "" && task.AssignedTo != f.AssignedTo {
		return false
	}

	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, task.Status) {
		return false
	}

	return true
}

// PrioritizeTasks scores every task the filter admits and returns them
// sorted by descending score.
func (s *Scorer) PrioritizeTasks(filter Filter) []Score {
	scores := make([]Score, 0)

	for _, task := range s.tasks.Tasks() {
		if filter.matches(task) {
			scores = append(scores, s.CalculatePriority(task))
		}
	}

	slices.SortFunc(scores, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return scores
}

// OverdueTask pairs a task with how far past due it is.
type OverdueTask struct {
	Task        *models.ScheduledTask `json:"task"`
	DaysOverdue float64               `json:"days_overdue"`
	Score       Score                 `json:"score"`
}

// OverdueTasks returns every open task past its due date, sorted ascending
// by days overdue.
func (s *Scorer) OverdueTasks() []OverdueTask {
	now := s.clock.Now()

	overdue := make([]OverdueTask, 0)

	for _, task := range s.tasks.Tasks() {
		if !task.Overdue(now) {
			continue
		}

		overdue = append(overdue, OverdueTask{
			Task:        task,
			DaysOverdue: now.Sub(*task.DueDate).Hours() / 24,
			Score:       s.CalculatePriority(task),
		})
	}

	slices.SortFunc(overdue, func(a, b OverdueTask) int {
		switch {
		case a.DaysOverdue < b.DaysOverdue:
			return -1
		case a.DaysOverdue > b.DaysOverdue:
			return 1
		default:
			return 0
		}
	})

	return overdue
}

// UrgentTasks returns open tasks due within the threshold or already scored
// into the URGENT tier, sorted by descending score.
func (s *Scorer) UrgentTasks(hoursThreshold int) []Score {
	now := s.clock.Now()
	cutoff := now.Add(time.Duration(hoursThreshold) * time.Hour)

	urgent := make([]Score, 0)

	for _, task := range s.tasks.Tasks() {
		if !task.Status.Active() {
			continue
		}

		score := s.CalculatePriority(task)

		dueSoon := task.DueDate != nil && task.DueDate.Before(cutoff)
		if dueSoon || score.Priority == models.PriorityUrgent {
			urgent = append(urgent, score)
		}
	}

	slices.SortFunc(urgent, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return urgent
}

// OverrideEvent is the auditable record of a manual priority adjustment.
type OverrideEvent struct {
	ID          string              `json:"id"`
	TaskID      string              `json:"task_id"`
	OldPriority models.TaskPriority `json:"old_priority"`
	NewPriority models.TaskPriority `json:"new_priority"`
	Reason      string              `json:"reason"`
	Actor       string              `json:"actor"`
	At          time.Time           `json:"at"`
}

// overrideLedger tracks manual overrides and their audit trail.
type overrideLedger struct {
	mu        sync.RWMutex
	overrides map[string]models.TaskPriority
	events    []OverrideEvent
}

func newOverrideLedger() *overrideLedger {
	return &overrideLedger{overrides: make(map[string]models.TaskPriority)}
}

func (l *overrideLedger) get(taskID string) (models.TaskPriority, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.overrides[taskID]

	return p, ok
}

// AdjustTaskPriority records a manual override. The override bypasses the
// scorer for that task until ClearOverrides runs as part of a recompute.
func (s *Scorer) AdjustTaskPriority(taskID string, newPriority models.TaskPriority, reason, actor string) (*OverrideEvent, error) {
	task, ok := s.tasks.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	if newPriority.Rank() < 0 {
		return nil, fmt.Errorf("%q is not a priority tier", newPriority)
	}

	event := OverrideEvent{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		OldPriority: task.Priority,
		NewPriority: newPriority,
		Reason:      reason,
		Actor:       actor,
		At:          s.clock.Now(),
	}

	s.overrides.mu.Lock()
	s.overrides.overrides[taskID] = newPriority
	s.overrides.events = append(s.overrides.events, event)
	s.overrides.mu.Unlock()

	s.logger.Info("Manual priority override",
		"task_id", taskID,
		"new_priority", newPriority,
		"actor", actor,
		"reason", reason)

	return &event, nil
}

// OverrideHistory returns the audit trail of manual adjustments.
func (s *Scorer) OverrideHistory() []OverrideEvent {
	s.overrides.mu.RLock()
	defer s.overrides.mu.RUnlock()

	return slices.Clone(s.overrides.events)
}

// ClearOverrides drops every manual override so the next scoring pass
// recomputes tiers from factors alone. The audit trail is retained.
func (s *Scorer) ClearOverrides() {
	s.overrides.mu.Lock()
	defer s.overrides.mu.Unlock()

	clear(s.overrides.overrides)
}
