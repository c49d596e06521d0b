package models

import (
	"errors"
	"time"
)

// TaskStatus is the lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Active reports whether the task still occupies assignee capacity.
func (s TaskStatus) Active() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusBlocked
}

// TaskPriority is the priority tier of a task, ordered LOW < MEDIUM < HIGH < URGENT.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// Rank returns the ordinal position of the tier for monotonicity checks.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

// RecurrenceType selects the calendar unit a recurrence rule advances by.
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

// RecurrenceRule describes how a completed task respawns.
type RecurrenceRule struct {
	// Type is the calendar unit each interval advances by.
	Type RecurrenceType `json:"type" validate:"required,oneof=daily weekly monthly yearly"`

	// Interval is the number of units between occurrences.
	Interval int `json:"interval" validate:"required,min=1"`

	// EndDate, when set, stops expansion after this time.
	EndDate *time.Time `json:"end_date,omitempty"`

	// MaxOccurrences, when set, caps the number of spawned occurrences.
	MaxOccurrences int `json:"max_occurrences,omitempty" validate:"omitempty,min=1"`

	// DaysOfWeek restricts weekly rules (0=Sunday .. 6=Saturday).
	DaysOfWeek []int `json:"days_of_week,omitempty" validate:"omitempty,dive,min=0,max=6"`

	// DayOfMonth restricts monthly rules (1..31).
	DayOfMonth int `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`

	// MonthOfYear restricts yearly rules (1..12).
	MonthOfYear int `json:"month_of_year,omitempty" validate:"omitempty,min=1,max=12"`

	// Exceptions are dates to skip; expansion recurses forward past them.
	Exceptions []time.Time `json:"exceptions,omitempty"`
}

// ErrInvalidRecurrence is returned when recurrence validation fails.
var ErrInvalidRecurrence = errors.New("invalid recurrence rule")

// Validate performs temporal checks the struct tags cannot express.
// now is injected so validation stays deterministic under a fake clock.
func (r *RecurrenceRule) Validate(now time.Time) error {
	if r.Interval < 1 {
		return ErrInvalidRecurrence
	}

	if r.EndDate != nil && !r.EndDate.After(now) {
		return ErrInvalidRecurrence
	}

	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return ErrInvalidRecurrence
		}
	}

	if r.DayOfMonth != 0 && (r.DayOfMonth < 1 || r.DayOfMonth > 31) {
		return ErrInvalidRecurrence
	}

	if r.MonthOfYear != 0 && (r.MonthOfYear < 1 || r.MonthOfYear > 12) {
		return ErrInvalidRecurrence
	}

	return nil
}

// ReminderType selects the delivery channel of a reminder.
type ReminderType string

const (
	ReminderEmail ReminderType = "email"
	ReminderInApp ReminderType = "in_app"
	ReminderSMS   ReminderType = "sms"
)

// Reminder is one scheduled notification attached to a task. Recipients hold
// role tokens (assignee, supervisor, case_attorney) resolved at delivery time.
type Reminder struct {
	Type              ReminderType `json:"type"                validate:"required,oneof=email in_app sms"`
	TimeOffsetMinutes int          `json:"time_offset_minutes"`
	Recipients        []string     `json:"recipients"          validate:"required,min=1"`
	Message           string       `json:"message"`
}

// ReminderSettings is the reminder set attached to a task at creation time,
// chosen from the task's priority tier.
type ReminderSettings struct {
	Enabled   bool       `json:"enabled"`
	Reminders []Reminder `json:"reminders,omitempty"`
}

// ScheduledTask is a task registered with the scheduling engine.
// Invariant: ScheduledTime <= DueDate when both are present.
type ScheduledTask struct {
	ID            string            `json:"id"             validate:"required"`
	TaskID        string            `json:"task_id"        validate:"required"`
	CaseID        string            `json:"case_id"        validate:"required"`
	Title         string            `json:"title"          validate:"required"`
	Description   string            `json:"description,omitempty"`
	ScheduledTime time.Time         `json:"scheduled_time" validate:"required"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	Priority      TaskPriority      `json:"priority"       validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Status        TaskStatus        `json:"status"         validate:"required"`
	AssignedTo    string            `json:"assigned_to"    validate:"required"`
	AssignedBy    string            `json:"assigned_by"`
	Recurrence    *RecurrenceRule   `json:"recurrence,omitempty"`
	Reminders     *ReminderSettings `json:"reminders,omitempty"`
	Dependencies  []string          `json:"dependencies,omitempty"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Overdue reports whether the task is past due and still open.
func (t *ScheduledTask) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status.Active()
}
