package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/otelhelper"
	"github.com/docket-io/docket/pkg/scheduling"
)

// OrchestrationStatus is the aggregate view of a case's workflow state.
type OrchestrationStatus struct {
	CaseID        string                    `json:"case_id"`
	Phase         models.CasePhase          `json:"phase"`
	Status        models.CaseStatus         `json:"status"`
	TasksByStatus map[models.TaskStatus]int `json:"tasks_by_status"`
	OverdueTasks  int                       `json:"overdue_tasks"`
	UrgentTasks   int                       `json:"urgent_tasks"`
	Workloads     []scheduling.Workload     `json:"workloads,omitempty"`
	NextPhases    []models.CasePhase        `json:"next_phases,omitempty"`
	Requirements  []string                  `json:"requirements,omitempty"`
}

// GetTaskWorkflowOrchestration summarizes the workflow state of one case:
// task counts, overdue and urgent totals, the assignee workload balance and
// the transitions available to the acting role.
func (o *Orchestrator) GetTaskWorkflowOrchestration(ctx context.Context, caseID string, role models.Role) (*OrchestrationStatus, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "case.orchestration_status",
		attribute.String(otelhelper.CaseIDKey, caseID),
	)
	defer span.End()

	c, err := o.store.CaseRepository().CaseByID(ctx, caseID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	status := &OrchestrationStatus{
		CaseID:        caseID,
		Phase:         c.Phase,
		Status:        c.Status,
		TasksByStatus: make(map[models.TaskStatus]int),
		NextPhases:    o.machine.AvailableTransitions(c, role),
	}

	now := o.clock.Now()
	assignees := make(map[string]struct{})

	for _, task := range o.scheduler.TasksByCase(caseID) {
		status.TasksByStatus[task.Status]++
		assignees[task.AssignedTo] = struct{}{}

		if task.Overdue(now) {
			status.OverdueTasks++
		}

		if task.Priority == models.PriorityUrgent && task.Status.Active() {
			status.UrgentTasks++
		}
	}

	for assignee := range assignees {
		status.Workloads = append(status.Workloads, o.scheduler.AssigneeWorkload(assignee, nil))
	}

	for _, next := range status.NextPhases {
		status.Requirements = append(status.Requirements, o.machine.PhaseRequirements(next, c.Type)...)
	}

	return status, nil
}
