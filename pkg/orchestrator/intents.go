package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/docket-io/docket/pkg/eventbus"
	"github.com/docket-io/docket/pkg/events"
	"github.com/docket-io/docket/pkg/models"
)

// eventbusEvent is the published event contract.
type eventbusEvent = eventbus.Event

func newAuditID() string {
	return uuid.NewString()
}

// applyIntents walks every matched rule's succeeded intents and applies them
// through the scheduler and notification plumbing. Application failures
// become warnings; the rule engine has already recorded the evaluation.
func (o *Orchestrator) applyIntents(ctx context.Context, results []models.RuleEvaluationResult, wctx models.WorkflowContext, notifications *[]models.NotificationRequest, warnings *[]string) {
	for _, result := range results {
		if !result.Matched {
			continue
		}

		for _, intent := range result.Intents() {
			if err := o.applyIntent(ctx, intent, wctx, notifications); err != nil {
				*warnings = append(*warnings,
					fmt.Sprintf("rule %s: failed to apply %s intent: %v", result.RuleID, intent.IntentKind(), err))
			}
		}
	}
}

func (o *Orchestrator) applyIntent(ctx context.Context, intent models.Intent, wctx models.WorkflowContext, notifications *[]models.NotificationRequest) error {
	switch it := intent.(type) {
	case models.AssignTaskIntent:
		return o.scheduler.Reassign(it.TaskID, it.AssignTo)
	case models.ReassignTaskIntent:
		return o.scheduler.Reassign(it.TaskID, it.ToUser)
	case models.ChangePriorityIntent:
		return o.scheduler.SetPriority(it.TaskID, it.NewPriority)
	case models.SetDeadlineIntent:
		return o.scheduler.SetDueDate(it.TaskID, it.DueDate)
	case models.CreateDependencyIntent:
		return o.scheduler.AddDependency(it.TaskID, it.DependsOn)
	case models.UpdateStatusIntent:
		if it.TaskID != "" {
			return o.scheduler.UpdateStatus(it.TaskID, it.NewStatus)
		}

		return nil
	case models.SendNotificationIntent:
		*notifications = append(*notifications, it.Notification)

		return nil
	case models.RequestReviewIntent:
		*notifications = append(*notifications, models.NotificationRequest{
			Type:       models.NotificationInApp,
			Recipients: []string{string(it.Reviewer)},
			Template:   "review_requested",
			Urgency:    models.UrgencyHigh,
			Data:       map[string]any{"task_id": it.TaskID, "reason": it.Reason},
		})

		return nil
	case models.EscalateTaskIntent:
		var warnings []string

		o.publish(ctx, wctx.CaseID, events.TaskEscalated{
			BaseEvent:       events.NewBaseEvent(events.TaskEscalatedEvent, wctx.CaseID),
			TaskID:          it.TaskID,
			FromRole:        it.FromRole,
			ToRole:          it.ToRole,
			EscalationLevel: it.Level,
			Reason:          it.Reason,
		}, &warnings)

		*notifications = append(*notifications, models.NotificationRequest{
			Type:       models.NotificationInApp,
			Recipients: []string{string(it.ToRole)},
			Template:   "task_escalated",
			Urgency:    models.UrgencyHigh,
			Data: map[string]any{
				"task_id":           it.TaskID,
				"escalation_level":  it.Level,
				"approval_required": it.ApprovalRequired,
			},
		})

		if len(warnings) > 0 {
			return fmt.Errorf("%s", warnings[0])
		}

		return nil
	default:
		return models.ErrUnknownActionKind{Kind: intent.IntentKind()}
	}
}
