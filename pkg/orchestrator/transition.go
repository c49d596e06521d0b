package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/docket-io/docket/pkg/events"
	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/otelhelper"
	"github.com/docket-io/docket/pkg/scheduling"
)

// TransitionRequest asks for a case phase transition. TargetStatus, Reason
// and Metadata are optional: an empty status leaves the case status alone,
// the reason lands in the audit trail, and the metadata is exposed to rules
// and templates under the "request" key.
type TransitionRequest struct {
	CaseID       string
	TargetPhase  models.CasePhase
	TargetStatus models.CaseStatus
	UserID       string
	Role         models.Role
	Reason       string
	Metadata     map[string]any
}

// HandleCasePhaseTransition runs the full transition pipeline: validate the
// transition, move the case, generate and schedule the phase's tasks,
// evaluate rules, score priorities and assemble notifications. The returned
// result carries sub-step failures in Errors/Warnings; the error return is
// reserved for infrastructure failures.
func (o *Orchestrator) HandleCasePhaseTransition(ctx context.Context, req TransitionRequest) (*models.PhaseTransitionResult, error) {
	caseID, target := req.CaseID, req.TargetPhase

	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "case.phase_transition",
		attribute.String(otelhelper.CaseIDKey, caseID),
		attribute.String(otelhelper.CasePhaseKey, string(target)),
		attribute.String(otelhelper.ActorKey, req.UserID),
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

	result := &models.PhaseTransitionResult{
		CaseID:    caseID,
		FromPhase: c.Phase,
		ToPhase:   target,
	}

	if check := o.machine.CanTransition(c, target, req.Role); !check.Success {
		result.Errors = append(result.Errors, check.Errors...)
		result.CompletedAt = o.clock.Now()

		o.logger.Warn("Phase transition rejected",
			"case_id", caseID, "from", c.Phase, "to", target, "role", req.Role)

		return result, nil
	} else if len(check.Warnings) > 0 {
		result.Warnings = append(result.Warnings, check.Warnings...)
	}

	result.PhaseTransitionValid = true

	fromPhase := c.Phase
	fromStatus := c.Status
	c.Phase = target

	if req.TargetStatus != "" {
		c.Status = req.TargetStatus
	}

	c.UpdatedAt = o.clock.Now()

	if err := o.store.CaseRepository().SaveCase(ctx, c); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save case %s: %w", caseID, err)
	}

	eventDetails := map[string]any{
		"from_phase": string(fromPhase),
		"to_phase":   string(target),
	}
	if req.Reason != "" {
		eventDetails["reason"] = req.Reason
	}

	wctx := o.workflowContext(c, req.UserID, models.TriggerEvent{
		Type:    models.EventPhaseChanged,
		Details: eventDetails,
	})

	if len(req.Metadata) > 0 {
		wctx.Metadata["request"] = req.Metadata
	}

	created := o.generator.GenerateTasks(wctx, c.Type, target)
	result.TasksCreated = created

	o.scheduleCreatedTasks(ctx, c, created, req.UserID, result)

	result.RuleResults = o.rules.EvaluateRules(ctx, wctx)
	o.applyIntents(ctx, result.RuleResults, wctx, &result.Notifications, &result.Warnings)

	result.Notifications = append(result.Notifications, o.generator.Notifications(wctx, created)...)
	o.publishNotifications(ctx, caseID, result.Notifications, &result.Warnings)

	detail := fmt.Sprintf("%s -> %s", fromPhase, target)
	if fromStatus != c.Status {
		detail += fmt.Sprintf(" [%s -> %s]", fromStatus, c.Status)
	}

	if req.Reason != "" {
		detail += ": " + req.Reason
	}

	o.audit(ctx, caseID, "", req.UserID, "phase_transition", detail, &result.Warnings)

	o.publish(ctx, caseID, events.CasePhaseChanged{
		BaseEvent:    events.NewBaseEvent(events.CasePhaseChangedEvent, caseID),
		FromPhase:    fromPhase,
		ToPhase:      target,
		PerformedBy:  req.UserID,
		TasksSpawned: len(created),
	}, &result.Warnings)

	result.Success = len(result.Errors) == 0
	result.CompletedAt = o.clock.Now()

	o.logger.Info("Phase transition complete",
		"case_id", caseID,
		"from", fromPhase,
		"to", target,
		"tasks_created", len(created),
		"rules_evaluated", len(result.RuleResults))

	return result, nil
}

// scheduleCreatedTasks registers generated tasks with the scheduler, scores
// them and persists the outcome. Dependency conflicts reject the task; time
// overlaps are reported as warnings and scheduled anyway.
func (o *Orchestrator) scheduleCreatedTasks(ctx context.Context, c *models.Case, created []models.CreatedTask, userID string, result *models.PhaseTransitionResult) {
	for i := range created {
		task := &created[i]

		due := task.DueDate
		if due == nil {
			d := defaultDueDate(o.clock.Now(), c.Phase, c.Type)
			due = &d
		}

		req := scheduling.ScheduleRequest{
			TaskID:        task.ID,
			CaseID:        c.ID,
			Title:         task.Title,
			Description:   task.Description,
			ScheduledTime: o.clock.Now(),
			DueDate:       due,
			Priority:      task.Priority,
			AssignedTo:    task.AssignedTo,
			AssignedBy:    userID,
			Metadata:      task.Metadata,
		}

		if rejected := o.rejectOnDependencyConflict(req, result); rejected {
			continue
		}

		scheduled, err := o.scheduler.ScheduleTask(req)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to schedule task %q: %v", task.Title, err))

			continue
		}

		// Scoring raises the tier when the composite score warrants it; a
		// template's explicit priority is a floor, never lowered.
		score := o.scorer.CalculatePriority(scheduled)
		if score.Priority.Rank() > scheduled.Priority.Rank() {
			if err := o.scheduler.SetPriority(scheduled.ID, score.Priority); err == nil {
				result.TasksUpdated++
			}
		}

		if err := o.store.TaskRepository().SaveTask(ctx, scheduled); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to persist task %q: %v", task.Title, err))
		}

		o.publish(ctx, c.ID, events.TaskCreated{
			BaseEvent:  events.NewBaseEvent(events.TaskCreatedEvent, c.ID),
			TaskID:     scheduled.ID,
			Title:      scheduled.Title,
			Priority:   scheduled.Priority,
			AssignedTo: scheduled.AssignedTo,
			DueDate:    scheduled.DueDate,
			TemplateID: task.TemplateID,
		}, &result.Warnings)
	}
}

func (o *Orchestrator) rejectOnDependencyConflict(req scheduling.ScheduleRequest, result *models.PhaseTransitionResult) bool {
	for _, conflict := range o.scheduler.CheckScheduleConflicts(req) {
		switch conflict.Type {
		case scheduling.ConflictDependency:
			result.Errors = append(result.Errors,
				fmt.Sprintf("task %q rejected: %s", req.Title, conflict.Detail))

			return true
		case scheduling.ConflictTimeOverlap:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("task %q: %s", req.Title, conflict.Detail))
		}
	}

	return false
}

// audit appends an audit record, downgrading failures to warnings.
func (o *Orchestrator) audit(ctx context.Context, caseID, taskID, actor, action, detail string, warnings *[]string) {
	rec := &models.AuditRecord{
		ID:     newAuditID(),
		CaseID: caseID,
		TaskID: taskID,
		Actor:  actor,
		Action: action,
		Detail: detail,
		At:     o.clock.Now(),
	}

	if err := o.store.AuditRepository().AppendAudit(ctx, rec); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("failed to append audit record: %v", err))
	}
}

// publishNotifications announces each constructed notification payload so a
// delivery host can pick it up.
func (o *Orchestrator) publishNotifications(ctx context.Context, caseID string, notifications []models.NotificationRequest, warnings *[]string) {
	for _, n := range notifications {
		o.publish(ctx, caseID, events.NotificationRequested{
			BaseEvent:  events.NewBaseEvent(events.NotificationRequestedEvent, caseID),
			Recipients: n.Recipients,
			Template:   n.Template,
			Urgency:    n.Urgency,
			Data:       n.Data,
		}, warnings)
	}
}

// publish sends an event when a bus is configured, downgrading failures to
// warnings.
func (o *Orchestrator) publish(ctx context.Context, key string, event eventbusEvent, warnings *[]string) {
	if o.bus == nil {
		return
	}

	if err := o.bus.Publish(ctx, key, event); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("failed to publish %s: %v", event.GetType(), err))
	}
}
