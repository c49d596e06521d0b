package models

import "time"

// TaskTemplate declares a task emitted when a case enters a matching phase.
// Templates are immutable once in use; changes are made by replacement.
type TaskTemplate struct {
	ID                  string       `json:"id"             validate:"required"`
	CaseType            CaseType     `json:"case_type"      validate:"required"`
	Phase               CasePhase    `json:"phase"          validate:"required"`
	TitleTemplate       string       `json:"title_template" validate:"required"`
	DescriptionTemplate string       `json:"description_template,omitempty"`
	DefaultPriority     TaskPriority `json:"default_priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	DefaultAssigneeRole Role         `json:"default_assignee_role,omitempty"`

	// DueDateOffsetDays sets the due date relative to the context timestamp
	// in calendar days. Zero means the generated task carries no due date.
	DueDateOffsetDays int `json:"due_date_offset_days,omitempty" validate:"omitempty,min=1"`

	// Conditions gate generation against the context metadata. All must pass.
	Conditions []Condition `json:"conditions,omitempty" validate:"omitempty,dive"`

	AutoCreate bool `json:"auto_create"`
}

// CreatedTask is a candidate task emitted by template-driven generation,
// before scheduling and priority scoring.
type CreatedTask struct {
	ID           string         `json:"id"`
	CaseID       string         `json:"case_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Priority     TaskPriority   `json:"priority"`
	AssignedTo   string         `json:"assigned_to"`
	AssigneeRole Role           `json:"assignee_role,omitempty"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	TemplateID   string         `json:"template_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
