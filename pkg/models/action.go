package models

import (
	"fmt"
	"time"
)

// ActionKind is the closed set of automation action variants. Unknown kinds
// are rejected when a rule is registered, never at execution time.
type ActionKind string

const (
	ActionAssignTask       ActionKind = "assign_task"
	ActionEscalateTask     ActionKind = "escalate_task"
	ActionChangePriority   ActionKind = "change_priority"
	ActionSetDeadline      ActionKind = "set_deadline"
	ActionSendNotification ActionKind = "send_notification"
	ActionCreateDependency ActionKind = "create_dependency"
	ActionUpdateStatus     ActionKind = "update_status"
	ActionRequestReview    ActionKind = "request_review"
	ActionReassignTask     ActionKind = "reassign_task"
)

// AllActionKinds enumerates every declared action kind.
func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionAssignTask,
		ActionEscalateTask,
		ActionChangePriority,
		ActionSetDeadline,
		ActionSendNotification,
		ActionCreateDependency,
		ActionUpdateStatus,
		ActionRequestReview,
		ActionReassignTask,
	}
}

// IsValid reports whether k names a declared action kind.
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionAssignTask, ActionEscalateTask, ActionChangePriority,
		ActionSetDeadline, ActionSendNotification, ActionCreateDependency,
		ActionUpdateStatus, ActionRequestReview, ActionReassignTask:
		return true
	default:
		return false
	}
}

// FailureStrategy controls what happens to the remaining actions of a rule
// when one action fails.
type FailureStrategy string

const (
	FailureContinue FailureStrategy = "continue"
	FailureStop     FailureStrategy = "stop"
	FailureRollback FailureStrategy = "rollback"
)

// Action is one automation action attached to a rule. Parameters are
// validated against the kind's JSON schema at registration time.
type Action struct {
	ID              string          `json:"id"               validate:"required"`
	Kind            ActionKind      `json:"kind"             validate:"required"`
	Parameters      map[string]any  `json:"parameters"`
	FailureStrategy FailureStrategy `json:"failure_strategy" validate:"omitempty,oneof=continue stop rollback"`
}

// Intent is the computed outcome of an action: a description of the state
// change the caller should apply through its ports. The engine itself never
// touches persistence.
type Intent interface {
	IntentKind() ActionKind
}

type AssignTaskIntent struct {
	TaskID     string `json:"task_id"`
	AssignTo   string `json:"assign_to"`
	AssignedBy string `json:"assigned_by"`
}

func (AssignTaskIntent) IntentKind() ActionKind { return ActionAssignTask }

type EscalateTaskIntent struct {
	TaskID           string `json:"task_id"`
	FromRole         Role   `json:"from_role"`
	ToRole           Role   `json:"to_role"`
	Level            int    `json:"level"`
	ApprovalRequired bool   `json:"approval_required"`
	Reason           string `json:"reason,omitempty"`
}

func (EscalateTaskIntent) IntentKind() ActionKind { return ActionEscalateTask }

type ChangePriorityIntent struct {
	TaskID      string       `json:"task_id"`
	NewPriority TaskPriority `json:"new_priority"`
	OldPriority TaskPriority `json:"old_priority,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

func (ChangePriorityIntent) IntentKind() ActionKind { return ActionChangePriority }

type SetDeadlineIntent struct {
	TaskID  string    `json:"task_id"`
	DueDate time.Time `json:"due_date"`
}

func (SetDeadlineIntent) IntentKind() ActionKind { return ActionSetDeadline }

type SendNotificationIntent struct {
	Notification NotificationRequest `json:"notification"`
}

func (SendNotificationIntent) IntentKind() ActionKind { return ActionSendNotification }

type CreateDependencyIntent struct {
	TaskID    string `json:"task_id"`
	DependsOn string `json:"depends_on"`
}

func (CreateDependencyIntent) IntentKind() ActionKind { return ActionCreateDependency }

type UpdateStatusIntent struct {
	CaseID    string     `json:"case_id,omitempty"`
	TaskID    string     `json:"task_id,omitempty"`
	NewStatus TaskStatus `json:"new_status"`
}

func (UpdateStatusIntent) IntentKind() ActionKind { return ActionUpdateStatus }

type RequestReviewIntent struct {
	TaskID   string `json:"task_id"`
	Reviewer Role   `json:"reviewer"`
	Reason   string `json:"reason,omitempty"`
}

func (RequestReviewIntent) IntentKind() ActionKind { return ActionRequestReview }

type ReassignTaskIntent struct {
	TaskID   string `json:"task_id"`
	FromUser string `json:"from_user,omitempty"`
	ToUser   string `json:"to_user"`
	Reason   string `json:"reason,omitempty"`
}

func (ReassignTaskIntent) IntentKind() ActionKind { return ActionReassignTask }

// ErrUnknownActionKind is returned when an action carries an undeclared kind.
type ErrUnknownActionKind struct {
	Kind ActionKind
}

func (e ErrUnknownActionKind) Error() string {
	return fmt.Sprintf("unknown action kind %q", string(e.Kind))
}
