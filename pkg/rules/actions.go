package rules

import (
	"fmt"
	"time"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/template"
)

// executeActions runs a matched rule's actions in declared order and records
// one outcome per action. Intents are pure computations; nothing is applied
// here, so a rollback strategy cancels the prior intents of the same rule
// before the caller ever sees them.
func (e *Engine) executeActions(rule *models.BusinessRule, wctx models.WorkflowContext) ([]models.ActionOutcome, bool) {
	outcomes := make([]models.ActionOutcome, 0, len(rule.Actions))
	failed := false

	for i, action := range rule.Actions {
		intent, err := e.buildIntent(action, wctx)

		outcome := models.ActionOutcome{
			ActionID: action.ID,
			Kind:     action.Kind,
		}

		if err == nil {
			outcome.Status = models.ActionSucceeded
			outcome.Intent = intent
			outcomes = append(outcomes, outcome)

			continue
		}

		failed = true
		outcome.Status = models.ActionFailed
		outcome.Error = err.Error()
		outcomes = append(outcomes, outcome)

		e.logger.Warn("Rule action failed",
			"rule_id", rule.ID,
			"action_id", action.ID,
			"kind", action.Kind,
			"strategy", action.FailureStrategy,
			"error", err)

		strategy := action.FailureStrategy
		if strategy == "" {
			strategy = models.FailureContinue
		}

		switch strategy {
		case models.FailureContinue:
			continue
		case models.FailureStop:
			outcomes = appendSkipped(outcomes, rule.Actions[i+1:])

			return outcomes, failed
		case models.FailureRollback:
			for j := range outcomes[:len(outcomes)-1] {
				if outcomes[j].Status == models.ActionSucceeded {
					outcomes[j].Status = models.ActionRolledBack
				}
			}

			outcomes = appendSkipped(outcomes, rule.Actions[i+1:])

			return outcomes, failed
		}
	}

	return outcomes, failed
}

func appendSkipped(outcomes []models.ActionOutcome, remaining []models.Action) []models.ActionOutcome {
	for _, action := range remaining {
		outcomes = append(outcomes, models.ActionOutcome{
			ActionID: action.ID,
			Kind:     action.Kind,
			Status:   models.ActionSkipped,
		})
	}

	return outcomes
}

// buildIntent computes the typed intent for one action. The switch is
// exhaustive over the declared action kinds; unknown kinds are rejected at
// registration and cannot reach here through the public API.
func (e *Engine) buildIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	switch action.Kind {
	case models.ActionAssignTask:
		return e.assignTaskIntent(action, wctx)
	case models.ActionEscalateTask:
		return e.escalateTaskIntent(action, wctx)
	case models.ActionChangePriority:
		return e.changePriorityIntent(action, wctx)
	case models.ActionSetDeadline:
		return e.setDeadlineIntent(action, wctx)
	case models.ActionSendNotification:
		return e.sendNotificationIntent(action, wctx)
	case models.ActionCreateDependency:
		return e.createDependencyIntent(action, wctx)
	case models.ActionUpdateStatus:
		return e.updateStatusIntent(action, wctx)
	case models.ActionRequestReview:
		return e.requestReviewIntent(action, wctx)
	case models.ActionReassignTask:
		return e.reassignTaskIntent(action, wctx)
	default:
		return nil, models.ErrUnknownActionKind{Kind: action.Kind}
	}
}

func (e *Engine) assignTaskIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	assignTo, err := stringParam(action.Parameters, "assign_to", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	return models.AssignTaskIntent{
		TaskID:     taskIDParam(action.Parameters, wctx),
		AssignTo:   assignTo,
		AssignedBy: wctx.UserID,
	}, nil
}

func (e *Engine) escalateTaskIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	role := models.Role(lookupString(wctx.Metadata, "task.assignee_role"))
	if role == "" {
		return nil, fmt.Errorf("escalate_task: context carries no task.assignee_role")
	}

	currentLevel := lookupInt(wctx.Metadata, "task.escalation_level")
	nextLevel := currentLevel + 1

	step, err := e.escalations.Next(role, nextLevel, wctx.Metadata)
	if err != nil {
		return nil, err
	}

	reason, _ := optionalStringParam(action.Parameters, "reason", wctx.Metadata)

	return models.EscalateTaskIntent{
		TaskID:           taskIDParam(action.Parameters, wctx),
		FromRole:         role,
		ToRole:           step.ToRole,
		Level:            nextLevel,
		ApprovalRequired: step.ApprovalRequired,
		Reason:           reason,
	}, nil
}

func (e *Engine) changePriorityIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	raw, err := stringParam(action.Parameters, "priority", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	priority := models.TaskPriority(raw)
	if priority.Rank() < 0 {
		return nil, fmt.Errorf("change_priority: %q is not a priority tier", raw)
	}

	reason, _ := optionalStringParam(action.Parameters, "reason", wctx.Metadata)

	return models.ChangePriorityIntent{
		TaskID:      taskIDParam(action.Parameters, wctx),
		NewPriority: priority,
		OldPriority: models.TaskPriority(lookupString(wctx.Metadata, "task.priority")),
		Reason:      reason,
	}, nil
}

func (e *Engine) setDeadlineIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	if raw, ok := optionalStringParam(action.Parameters, "due_date", wctx.Metadata); ok {
		due, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("set_deadline: due_date %q is not RFC 3339: %w", raw, err)
		}

		return models.SetDeadlineIntent{TaskID: taskIDParam(action.Parameters, wctx), DueDate: due}, nil
	}

	offset, ok := floatParam(action.Parameters, "offset_days")
	if !ok {
		return nil, fmt.Errorf("set_deadline: requires due_date or offset_days")
	}

	due := wctx.Timestamp.Add(time.Duration(offset * 24 * float64(time.Hour)))

	return models.SetDeadlineIntent{TaskID: taskIDParam(action.Parameters, wctx), DueDate: due}, nil
}

func (e *Engine) sendNotificationIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	notificationType, err := stringParam(action.Parameters, "type", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	templateName, err := stringParam(action.Parameters, "template", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	recipients := stringListParam(action.Parameters, "recipients", wctx.Metadata)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("send_notification: requires at least one recipient")
	}

	urgency, _ := optionalStringParam(action.Parameters, "urgency", wctx.Metadata)
	if urgency == "" {
		urgency = string(models.UrgencyNormal)
	}

	return models.SendNotificationIntent{
		Notification: models.NotificationRequest{
			Type:       models.NotificationType(notificationType),
			Recipients: recipients,
			Template:   templateName,
			Urgency:    models.NotificationUrgency(urgency),
			Data: map[string]any{
				"case_id": wctx.CaseID,
				"task_id": wctx.TaskID,
				"event":   string(wctx.TriggerEvent.Type),
			},
		},
	}, nil
}

func (e *Engine) createDependencyIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	dependsOn, err := stringParam(action.Parameters, "depends_on", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	return models.CreateDependencyIntent{
		TaskID:    taskIDParam(action.Parameters, wctx),
		DependsOn: dependsOn,
	}, nil
}

func (e *Engine) updateStatusIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	raw, err := stringParam(action.Parameters, "status", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	status := models.TaskStatus(raw)

	switch status {
	case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusBlocked,
		models.TaskStatusCompleted, models.TaskStatusCancelled:
	default:
		return nil, fmt.Errorf("update_status: %q is not a task status", raw)
	}

	return models.UpdateStatusIntent{
		CaseID:    wctx.CaseID,
		TaskID:    taskIDParam(action.Parameters, wctx),
		NewStatus: status,
	}, nil
}

func (e *Engine) requestReviewIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	reviewer, ok := optionalStringParam(action.Parameters, "reviewer_role", wctx.Metadata)
	if !ok {
		reviewer = string(models.RoleSupervisingAttorney)
	}

	reason, _ := optionalStringParam(action.Parameters, "reason", wctx.Metadata)

	return models.RequestReviewIntent{
		TaskID:   taskIDParam(action.Parameters, wctx),
		Reviewer: models.Role(reviewer),
		Reason:   reason,
	}, nil
}

func (e *Engine) reassignTaskIntent(action models.Action, wctx models.WorkflowContext) (models.Intent, error) {
	to, err := stringParam(action.Parameters, "to", wctx.Metadata)
	if err != nil {
		return nil, err
	}

	from, _ := optionalStringParam(action.Parameters, "from", wctx.Metadata)
	reason, _ := optionalStringParam(action.Parameters, "reason", wctx.Metadata)

	return models.ReassignTaskIntent{
		TaskID:   taskIDParam(action.Parameters, wctx),
		FromUser: from,
		ToUser:   to,
		Reason:   reason,
	}, nil
}

// Parameter helpers. String parameters pass through {path} interpolation so
// rule authors can reference context values.

func stringParam(params map[string]any, key string, metadata map[string]any) (string, error) {
	value, ok := optionalStringParam(params, key, metadata)
	if !ok || value == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}

	return value, nil
}

func optionalStringParam(params map[string]any, key string, metadata map[string]any) (string, bool) {
	raw, ok := params[key]
	if !ok {
		return "", false
	}

	s, ok := raw.(string)
	if !ok {
		return template.Stringify(raw), true
	}

	return template.Interpolate(s, metadata), true
}

func stringListParam(params map[string]any, key string, metadata map[string]any) []string {
	raw, ok := params[key]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, template.Interpolate(item, metadata))
		}

		return out
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, template.Interpolate(s, metadata))
			} else {
				out = append(out, template.Stringify(item))
			}
		}

		return out
	case string:
		return []string{template.Interpolate(v, metadata)}
	default:
		return nil
	}
}

func floatParam(params map[string]any, key string) (float64, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}

	return toFloat(raw)
}

func taskIDParam(params map[string]any, wctx models.WorkflowContext) string {
	if raw, ok := params["task_id"].(string); ok && raw != "" {
		return template.Interpolate(raw, wctx.Metadata)
	}

	return wctx.TaskID
}

func lookupString(metadata map[string]any, path string) string {
	value, ok := template.Lookup(metadata, path)
	if !ok {
		return ""
	}

	return template.Stringify(value)
}

func lookupInt(metadata map[string]any, path string) int {
	value, ok := template.Lookup(metadata, path)
	if !ok {
		return 0
	}

	f, ok := toFloat(value)
	if !ok {
		return 0
	}

	return int(f)
}
