package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/docket-io/docket/pkg/events"
	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/otelhelper"
)

// HandleTaskCompletion marks the task complete, evaluates the rules that
// listen for status changes and assembles any follow-up work those rules
// produce.
func (o *Orchestrator) HandleTaskCompletion(ctx context.Context, caseID, taskID, userID string) (*models.CompletionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "task.completion",
		attribute.String(otelhelper.CaseIDKey, caseID),
		attribute.String(otelhelper.TaskIDKey, taskID),
		attribute.String(otelhelper.ActorKey, userID),
	)
	defer span.End()

	lock := o.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	c, err := o.store.CaseRepository().CaseByID(ctx, caseID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	task, ok := o.scheduler.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("task %s is not registered with the scheduler", taskID)
	}

	oldStatus := task.Status

	result := &models.CompletionResult{}

	if err := o.scheduler.UpdateStatus(taskID, models.TaskStatusCompleted); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to complete task %s: %w", taskID, err)
	}

	wctx := o.workflowContext(c, userID, models.TriggerEvent{
		Type: models.EventTaskStatusChange,
		Details: map[string]any{
			"old_status": string(oldStatus),
			"new_status": string(models.TaskStatusCompleted),
		},
	})
	wctx.TaskID = taskID
	wctx.Metadata["task"] = map[string]any{
		"id":          task.ID,
		"title":       task.Title,
		"priority":    string(task.Priority),
		"old_status":  string(oldStatus),
		"new_status":  string(models.TaskStatusCompleted),
		"assigned_to": task.AssignedTo,
	}

	// Completing a recurring task spawns its next occurrence right away
	// instead of waiting on the poller.
	if task.Recurrence != nil {
		chainRoot := taskID
		if root, _ := task.Metadata["recurring_task_id"].(string); root != "" {
			chainRoot = root
		}

		for _, spawned := range o.scheduler.ProcessRecurringTasks() {
			if root, _ := spawned.Metadata["recurring_task_id"].(string); root != chainRoot {
				continue
			}

			result.FollowUpTasks = append(result.FollowUpTasks, models.CreatedTask{
				ID:         spawned.ID,
				CaseID:     spawned.CaseID,
				Title:      spawned.Title,
				Priority:   spawned.Priority,
				AssignedTo: spawned.AssignedTo,
				DueDate:    spawned.DueDate,
				Metadata:   spawned.Metadata,
			})

			if err := o.store.TaskRepository().SaveTask(ctx, spawned); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("failed to persist recurring follow-up: %v", err))
			}
		}
	}

	result.RuleResults = o.rules.EvaluateRules(ctx, wctx)
	o.applyIntents(ctx, result.RuleResults, wctx, &result.Notifications, &result.Errors)
	o.publishNotifications(ctx, caseID, result.Notifications, &result.Errors)

	if err := o.store.TaskRepository().SaveTask(ctx, task); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("failed to persist completed task: %v", err))
	}

	o.audit(ctx, caseID, taskID, userID, "task_completed", task.Title, &result.Errors)

	o.publish(ctx, caseID, events.TaskCompleted{
		BaseEvent:   events.NewBaseEvent(events.TaskCompletedEvent, caseID),
		TaskID:      taskID,
		CompletedBy: userID,
		Duration:    o.clock.Now().Sub(task.CreatedAt),
	}, &result.Errors)

	o.logger.Info("Task completed",
		"case_id", caseID,
		"task_id", taskID,
		"completed_by", userID,
		"rules_evaluated", len(result.RuleResults))

	return result, nil
}
