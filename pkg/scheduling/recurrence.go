package scheduling

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/docket-io/docket/pkg/models"
)

// maxExceptionSkips bounds the forward recursion past exception dates so a
// pathological rule cannot spin the processor.
const maxExceptionSkips = 366

// ErrRecurrenceExhausted indicates the rule produced no next occurrence
// (end date passed, occurrence cap reached, or every candidate excepted).
var ErrRecurrenceExhausted = errors.New("recurrence exhausted")

// ProcessRecurringTasks scans for completed tasks that carry a recurrence
// rule and have not spawned their successor yet, and schedules the next
// occurrence of each. It returns the tasks it created.
func (e *Engine) ProcessRecurringTasks() []*models.ScheduledTask {
	created := make([]*models.ScheduledTask, 0)

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, task := range e.tasks {
		if task.Status != models.TaskStatusCompleted || task.Recurrence == nil {
			continue
		}

		if spawned, ok := task.Metadata["spawned_successor"].(bool); ok && spawned {
			continue
		}

		if task.Metadata == nil {
			task.Metadata = make(map[string]any)
		}

		next, err := e.spawnNextLocked(task)
		if err != nil {
			if !errors.Is(err, ErrRecurrenceExhausted) {
				e.logger.Error("Failed to expand recurrence", "task_id", task.ID, "error", err)
			}

			task.Metadata["spawned_successor"] = true

			continue
		}

		task.Metadata["spawned_successor"] = true
		created = append(created, next)

		e.logger.Info("Spawned recurring task",
			"source_task_id", task.ID,
			"task_id", next.ID,
			"scheduled_time", next.ScheduledTime)
	}

	return created
}

// spawnNextLocked computes and registers the next occurrence of a completed
// recurring task. Caller holds e.mu.
func (e *Engine) spawnNextLocked(task *models.ScheduledTask) (*models.ScheduledTask, error) {
	rule := task.Recurrence

	occurrence := 1

	switch n := task.Metadata["occurrence"].(type) {
	case int:
		occurrence = n
	case float64: // metadata that round-tripped through JSON
		occurrence = int(n)
	}

	if rule.MaxOccurrences > 0 && occurrence >= rule.MaxOccurrences {
		return nil, ErrRecurrenceExhausted
	}

	next, err := NextOccurrence(task.ScheduledTime, rule)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()

	var due *time.Time

	if task.DueDate != nil {
		d := next.Add(task.DueDate.Sub(task.ScheduledTime))
		due = &d
	}

	rootID := task.ID
	if id, ok := task.Metadata["recurring_task_id"].(string); ok && id != "" {
		rootID = id
	}

	spawned := &models.ScheduledTask{
		ID:            uuid.NewString(),
		TaskID:        task.TaskID,
		CaseID:        task.CaseID,
		Title:         task.Title,
		Description:   task.Description,
		ScheduledTime: next,
		DueDate:       due,
		Priority:      task.Priority,
		Status:        models.TaskStatusPending,
		AssignedTo:    task.AssignedTo,
		AssignedBy:    task.AssignedBy,
		Recurrence:    rule,
		Reminders:     e.reminders.forPriority(task.Priority, due != nil),
		Dependencies:  nil,
		Metadata: map[string]any{
			"recurring_task_id": rootID,
			"occurrence":        occurrence + 1,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	e.tasks[spawned.ID] = spawned

	return spawned, nil
}

// NextOccurrence advances from the previous occurrence's scheduled time by
// the rule's interval, skipping forward past exception dates. Skips are
// relative: an excepted candidate re-advances by a full interval, so the
// cadence shifts rather than compresses.
func NextOccurrence(from time.Time, rule *models.RecurrenceRule) (time.Time, error) {
	next := advance(from, rule)

	for skips := 0; excepted(next, rule.Exceptions); skips++ {
		if skips >= maxExceptionSkips {
			return time.Time{}, ErrRecurrenceExhausted
		}

		next = advance(next, rule)
	}

	if rule.EndDate != nil && next.After(*rule.EndDate) {
		return time.Time{}, ErrRecurrenceExhausted
	}

	return next, nil
}

func advance(from time.Time, rule *models.RecurrenceRule) time.Time {
	switch rule.Type {
	case models.RecurrenceDaily:
		return from.AddDate(0, 0, rule.Interval)
	case models.RecurrenceWeekly:
		next := from.AddDate(0, 0, 7*rule.Interval)

		return alignWeekday(next, rule.DaysOfWeek)
	case models.RecurrenceMonthly:
		next := from.AddDate(0, rule.Interval, 0)

		if rule.DayOfMonth > 0 {
			next = withDayOfMonth(next, rule.DayOfMonth)
		}

		return next
	case models.RecurrenceYearly:
		next := from.AddDate(rule.Interval, 0, 0)

		if rule.MonthOfYear > 0 {
			next = time.Date(next.Year(), time.Month(rule.MonthOfYear), next.Day(),
				next.Hour(), next.Minute(), next.Second(), 0, next.Location())
		}

		return next
	default:
		return from.AddDate(0, 0, rule.Interval)
	}
}

// alignWeekday rolls forward to the nearest allowed weekday, if the rule
// restricts them.
func alignWeekday(t time.Time, days []int) time.Time {
	if len(days) == 0 {
		return t
	}

	allowed := make(map[int]struct{}, len(days))
	for _, d := range days {
		allowed[d] = struct{}{}
	}

	for i := 0; i < 7; i++ {
		if _, ok := allowed[int(t.Weekday())]; ok {
			return t
		}

		t = t.AddDate(0, 0, 1)
	}

	return t
}

// withDayOfMonth pins the day, clamping to the month's last day.
func withDayOfMonth(t time.Time, day int) time.Time {
	lastDay := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func excepted(t time.Time, exceptions []time.Time) bool {
	for _, ex := range exceptions {
		if sameDay(t, ex) {
			return true
		}
	}

	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}
