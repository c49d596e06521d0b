package scheduling

import (
	"context"
	"slices"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
)

// CapacityStatus buckets an assignee's utilization.
type CapacityStatus string

const (
	UnderCapacity CapacityStatus = "under_capacity"
	AtCapacity    CapacityStatus = "at_capacity"
	OverCapacity  CapacityStatus = "over_capacity"
)

// defaultAvailableHours applies when no identity profile is known.
const defaultAvailableHours = 40.0

// Workload summarizes one assignee's active scheduled work.
type Workload struct {
	Assignee        string         `json:"assignee"`
	ActiveTasks     int            `json:"active_tasks"`
	EstimatedHours  float64        `json:"estimated_hours"`
	AvailableHours  float64        `json:"available_hours"`
	UtilizationRate float64        `json:"utilization_rate"`
	Status          CapacityStatus `json:"status"`
}

// hourEstimate is the planning-grade effort estimate per priority tier.
func hourEstimate(tier models.TaskPriority) float64 {
	switch tier {
	case models.PriorityUrgent:
		return 4
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	default:
		return 1
	}
}

func capacityStatus(utilization float64) CapacityStatus {
	switch {
	case utilization > 100:
		return OverCapacity
	case utilization >= 80:
		return AtCapacity
	default:
		return UnderCapacity
	}
}

// AssigneeWorkload computes the workload of one assignee. profile may be
// nil, in which case the default weekly availability applies.
func (e *Engine) AssigneeWorkload(assignee string, profile *protocol.UserProfile) Workload {
	available := defaultAvailableHours
	if profile != nil && profile.AvailableHoursPerWeek > 0 {
		available = profile.AvailableHoursPerWeek
	}

	w := Workload{
		Assignee:       assignee,
		AvailableHours: available,
	}

	for _, task := range e.TasksByAssignee(assignee) {
		if !task.Status.Active() {
			continue
		}

		w.ActiveTasks++
		w.EstimatedHours += hourEstimate(task.Priority)
	}

	w.UtilizationRate = w.EstimatedHours / available * 100
	w.Status = capacityStatus(w.UtilizationRate)

	return w
}

// Workloads computes workloads across every assignee with registered tasks,
// sorted by descending utilization. Profiles are resolved through the
// identity service when one is provided.
func (e *Engine) Workloads(ctx context.Context, identity protocol.IdentityService) []Workload {
	e.mu.RLock()
	assignees := make(map[string]struct{})

	for _, task := range e.tasks {
		assignees[task.AssignedTo] = struct{}{}
	}
	e.mu.RUnlock()

	out := make([]Workload, 0, len(assignees))

	for assignee := range assignees {
		var profile *protocol.UserProfile

		if identity != nil {
			if p, err := identity.ResolveUser(ctx, assignee); err == nil {
				profile = p
			}
		}

		out = append(out, e.AssigneeWorkload(assignee, profile))
	}

	slices.SortFunc(out, func(a, b Workload) int {
		switch {
		case a.UtilizationRate > b.UtilizationRate:
			return -1
		case a.UtilizationRate < b.UtilizationRate:
			return 1
		default:
			return 0
		}
	})

	return out
}
