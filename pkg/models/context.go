package models

import "time"

// TriggerEventType classifies what caused a rule evaluation.
type TriggerEventType string

const (
	EventPhaseChanged     TriggerEventType = "phase_changed"
	EventTaskStatusChange TriggerEventType = "task_status_change"
	EventTaskCreated      TriggerEventType = "task_created"
	EventDeadlineNear     TriggerEventType = "deadline_approaching"
	EventManual           TriggerEventType = "manual"
)

// TriggerEvent describes the event driving one evaluation pass.
type TriggerEvent struct {
	Type    TriggerEventType `json:"type" validate:"required"`
	Details map[string]any   `json:"details,omitempty"`
}

// WorkflowContext is the transient evaluation context constructed per call.
// Condition fields and template tokens resolve against Metadata by dot path.
type WorkflowContext struct {
	CaseID       string         `json:"case_id" validate:"required"`
	TaskID       string         `json:"task_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	TriggerEvent TriggerEvent   `json:"trigger_event"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
