package models

// NotificationType selects the delivery channel of a notification.
type NotificationType string

const (
	NotificationEmail NotificationType = "email"
	NotificationInApp NotificationType = "in_app"
	NotificationSMS   NotificationType = "sms"
)

// NotificationUrgency tags how quickly a notification should be delivered.
type NotificationUrgency string

const (
	UrgencyLow      NotificationUrgency = "low"
	UrgencyNormal   NotificationUrgency = "normal"
	UrgencyHigh     NotificationUrgency = "high"
	UrgencyCritical NotificationUrgency = "critical"
)

// NotificationRequest is the payload handed to the notification port. The
// core constructs these; delivery is entirely the port's concern.
type NotificationRequest struct {
	Type       NotificationType    `json:"type"       validate:"required,oneof=email in_app sms"`
	Recipients []string            `json:"recipients" validate:"required,min=1"`
	Template   string              `json:"template"   validate:"required"`
	Urgency    NotificationUrgency `json:"urgency"    validate:"omitempty,oneof=low normal high critical"`
	Data       map[string]any      `json:"data,omitempty"`
}
