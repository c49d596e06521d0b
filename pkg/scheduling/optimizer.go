package scheduling

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
)

// OptimizationStrategy selects the heuristic an optimization run applies.
type OptimizationStrategy string

const (
	StrategyBalanceWorkload    OptimizationStrategy = "balance_workload"
	StrategyMinimizeDelays     OptimizationStrategy = "minimize_delays"
	StrategyMaximizeEfficiency OptimizationStrategy = "maximize_efficiency"
	StrategyMeetDeadlines      OptimizationStrategy = "meet_deadlines"
)

// ProposedChange is one suggested modification to the schedule. Proposals
// are never applied by the optimizer; the caller reviews and applies them.
type ProposedChange struct {
	TaskID           string     `json:"task_id"`
	TaskTitle        string     `json:"task_title"`
	NewAssignee      string     `json:"new_assignee,omitempty"`
	NewScheduledTime *time.Time `json:"new_scheduled_time,omitempty"`
	Reason           string     `json:"reason"`
}

// OptimizationResult is the output of one optimization run.
type OptimizationResult struct {
	Strategy        OptimizationStrategy `json:"strategy"`
	Changes         []ProposedChange     `json:"changes"`
	Recommendations []string             `json:"recommendations,omitempty"`
}

// OptimizeSchedule runs a heuristic pass over the active tasks and proposes
// changes. Every strategy is a greedy heuristic, not a solver; proposals
// favor obviousness over optimality.
func (e *Engine) OptimizeSchedule(ctx context.Context, strategy OptimizationStrategy, identity protocol.IdentityService) (*OptimizationResult, error) {
	active := make([]*models.ScheduledTask, 0)

	for _, task := range e.Tasks() {
		if task.Status.Active() {
			active = append(active, task)
		}
	}

	result := &OptimizationResult{Strategy: strategy, Changes: make([]ProposedChange, 0)}

	switch strategy {
	case StrategyBalanceWorkload:
		e.balanceWorkload(ctx, active, identity, result)
	case StrategyMinimizeDelays:
		e.minimizeDelays(active, result)
	case StrategyMaximizeEfficiency:
		e.maximizeEfficiency(active, result)
	case StrategyMeetDeadlines:
		e.meetDeadlines(active, result)
	default:
		return nil, fmt.Errorf("unknown optimization strategy %q", strategy)
	}

	e.logger.Info("Optimization pass complete",
		"strategy", strategy,
		"proposed_changes", len(result.Changes))

	return result, nil
}

// balanceWorkload moves tasks off over-capacity assignees onto the least
// loaded ones, lowest-priority tasks first.
func (e *Engine) balanceWorkload(ctx context.Context, active []*models.ScheduledTask, identity protocol.IdentityService, result *OptimizationResult) {
	workloads := e.Workloads(ctx, identity)
	if len(workloads) < 2 {
		result.Recommendations = append(result.Recommendations, "fewer than two assignees, nothing to balance")

		return
	}

	hours := make(map[string]float64, len(workloads))
	for _, w := range workloads {
		hours[w.Assignee] = w.EstimatedHours
	}

	// Workloads are sorted descending, so the heaviest assignees come first.
	for _, w := range workloads {
		if w.Status != OverCapacity {
			break
		}

		candidates := make([]*models.ScheduledTask, 0)

		for _, task := range active {
			if task.AssignedTo == w.Assignee {
				candidates = append(candidates, task)
			}
		}

		slices.SortFunc(candidates, func(a, b *models.ScheduledTask) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})

		for _, task := range candidates {
			lightest := lightestAssignee(hours, w.Assignee)
			if lightest == "" || hours[w.Assignee] <= w.AvailableHours {
				break
			}

			estimate := hourEstimate(task.Priority)
			hours[w.Assignee] -= estimate
			hours[lightest] += estimate

			result.Changes = append(result.Changes, ProposedChange{
				TaskID:      task.ID,
				TaskTitle:   task.Title,
				NewAssignee: lightest,
				Reason:      fmt.Sprintf("%s is over capacity", w.Assignee),
			})
		}
	}
}

func lightestAssignee(hours map[string]float64, exclude string) string {
	var (
		best     string
		bestLoad float64
	)

	for assignee, load := range hours {
		if assignee == exclude {
			continue
		}

		if best == "" || load < bestLoad {
			best, bestLoad = assignee, load
		}
	}

	return best
}

// minimizeDelays pulls the earliest-due tasks to the front of the queue by
// proposing earlier start times for tasks scheduled after a later-due peer.
func (e *Engine) minimizeDelays(active []*models.ScheduledTask, result *OptimizationResult) {
	withDue := make([]*models.ScheduledTask, 0)

	for _, task := range active {
		if task.DueDate != nil {
			withDue = append(withDue, task)
		}
	}

	slices.SortFunc(withDue, func(a, b *models.ScheduledTask) int {
		return a.DueDate.Compare(*b.DueDate)
	})

	for i := 1; i < len(withDue); i++ {
		earlierDue, laterDue := withDue[i-1], withDue[i]

		// A task due first should not start after a task due later.
		if earlierDue.ScheduledTime.After(laterDue.ScheduledTime) {
			proposed := laterDue.ScheduledTime

			result.Changes = append(result.Changes, ProposedChange{
				TaskID:           earlierDue.ID,
				TaskTitle:        earlierDue.Title,
				NewScheduledTime: &proposed,
				Reason:           "due before a task that currently starts earlier",
			})
		}
	}
}

// maximizeEfficiency groups same-case tasks for the same assignee into
// adjacent slots to cut context switching.
func (e *Engine) maximizeEfficiency(active []*models.ScheduledTask, result *OptimizationResult) {
	type key struct{ assignee, caseID string }

	groups := make(map[key][]*models.ScheduledTask)

	for _, task := range active {
		k := key{task.AssignedTo, task.CaseID}
		groups[k] = append(groups[k], task)
	}

	for k, tasks := range groups {
		if len(tasks) < 2 {
			continue
		}

		slices.SortFunc(tasks, func(a, b *models.ScheduledTask) int {
			return a.ScheduledTime.Compare(b.ScheduledTime)
		})

		slot := tasks[0].ScheduledTime

		for i := 1; i < len(tasks); i++ {
			slot = slot.Add(time.Duration(hourEstimate(tasks[i-1].Priority)) * time.Hour)

			if tasks[i].ScheduledTime.Sub(slot) <= time.Hour {
				continue
			}

			proposed := slot
			result.Changes = append(result.Changes, ProposedChange{
				TaskID:           tasks[i].ID,
				TaskTitle:        tasks[i].Title,
				NewScheduledTime: &proposed,
				Reason:           fmt.Sprintf("batch with other %s work for %s", k.caseID, k.assignee),
			})
		}
	}
}

// meetDeadlines flags at-risk tasks: due dates closer than the estimated
// effort remaining, with the registry ordered by slack ascending.
func (e *Engine) meetDeadlines(active []*models.ScheduledTask, result *OptimizationResult) {
	now := e.clock.Now()

	for _, task := range active {
		if task.DueDate == nil {
			continue
		}

		slack := task.DueDate.Sub(now) - time.Duration(hourEstimate(task.Priority))*time.Hour
		if slack >= 0 {
			continue
		}

		earlier := now
		result.Changes = append(result.Changes, ProposedChange{
			TaskID:           task.ID,
			TaskTitle:        task.Title,
			NewScheduledTime: &earlier,
			Reason:           fmt.Sprintf("deadline at risk, slack %s", slack.Round(time.Minute)),
		})
	}

	if len(result.Changes) == 0 {
		result.Recommendations = append(result.Recommendations, "all deadlines have positive slack")
	}
}
