// Package events defines the domain events published on the case workflow
// lifecycle and the topic they travel on.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/docket-io/docket/pkg/models"
)

type EventType string

// Topic is the bus topic every case workflow event is published to.
const Topic = "docket.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Case lifecycle events.
	CasePhaseChangedEvent EventType = "case.phase_changed"

	// Task lifecycle events.
	TaskCreatedEvent   EventType = "task.created"
	TaskCompletedEvent EventType = "task.completed"
	TaskEscalatedEvent EventType = "task.escalated"
	TaskOverdueEvent   EventType = "task.overdue"

	// Outbound notification requests.
	NotificationRequestedEvent EventType = "notification.requested"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	CaseID    string         `json:"case_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, caseID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		CaseID:    caseID,
		Metadata:  make(map[string]any),
	}
}

type CasePhaseChanged struct {
	BaseEvent

	FromPhase    models.CasePhase `json:"from_phase"`
	ToPhase      models.CasePhase `json:"to_phase"`
	PerformedBy  string           `json:"performed_by"`
	TasksSpawned int              `json:"tasks_spawned"`
}

func (e CasePhaseChanged) GetType() EventType {
	return CasePhaseChangedEvent
}

type TaskCreated struct {
	BaseEvent

	TaskID     string              `json:"task_id"`
	Title      string              `json:"title"`
	Priority   models.TaskPriority `json:"priority"`
	AssignedTo string              `json:"assigned_to"`
	DueDate    *time.Time          `json:"due_date,omitempty"`
	TemplateID string              `json:"template_id,omitempty"`
}

func (e TaskCreated) GetType() EventType {
	return TaskCreatedEvent
}

type TaskCompleted struct {
	BaseEvent

	TaskID      string        `json:"task_id"`
	CompletedBy string        `json:"completed_by"`
	Duration    time.Duration `json:"duration"`
}

func (e TaskCompleted) GetType() EventType {
	return TaskCompletedEvent
}

type TaskEscalated struct {
	BaseEvent

	TaskID          string      `json:"task_id"`
	FromRole        models.Role `json:"from_role"`
	ToRole          models.Role `json:"to_role"`
	EscalationLevel int         `json:"escalation_level"`
	Reason          string      `json:"reason,omitempty"`
}

func (e TaskEscalated) GetType() EventType {
	return TaskEscalatedEvent
}

type TaskOverdue struct {
	BaseEvent

	TaskID      string     `json:"task_id"`
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DaysOverdue float64    `json:"days_overdue"`
}

func (e TaskOverdue) GetType() EventType {
	return TaskOverdueEvent
}

type NotificationRequested struct {
	BaseEvent

	Recipients []string                   `json:"recipients"`
	Template   string                     `json:"template"`
	Urgency    models.NotificationUrgency `json:"urgency"`
	Data       map[string]any             `json:"data,omitempty"`
}

func (e NotificationRequested) GetType() EventType {
	return NotificationRequestedEvent
}
