package scheduling

import (
	"fmt"
	"math"
	"time"

	"github.com/docket-io/docket/pkg/models"
)

// ConflictType classifies a detected scheduling conflict.
type ConflictType string

const (
	ConflictTimeOverlap ConflictType = "time_overlap"
	ConflictDependency  ConflictType = "dependency"
)

// ConflictSeverity ranks how disruptive a conflict is.
type ConflictSeverity string

const (
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// Conflict describes one clash between a schedule request and the existing
// registry. Conflicts are advisory: the engine reports them, the caller
// decides whether to proceed.
type Conflict struct {
	Type       ConflictType     `json:"type"`
	Severity   ConflictSeverity `json:"severity"`
	TaskID     string           `json:"task_id"`
	TaskTitle  string           `json:"task_title"`
	Detail     string           `json:"detail"`
	Suggestion string           `json:"suggestion,omitempty"`
}

// CheckScheduleConflicts evaluates a request against the registry without
// registering anything.
//
// Two checks run: same-assignee start times within the conflict window, and
// dependency tasks whose due dates fall after the requested start.
func (e *Engine) CheckScheduleConflicts(req ScheduleRequest) []Conflict {
	conflicts := make([]Conflict, 0)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, existing := range e.tasks {
		if existing.AssignedTo != req.AssignedTo || !existing.Status.Active() {
			continue
		}

		gap := time.Duration(math.Abs(float64(existing.ScheduledTime.Sub(req.ScheduledTime))))
		if gap < e.conflictWindow {
			conflicts = append(conflicts, Conflict{
				Type:      ConflictTimeOverlap,
				Severity:  SeverityMedium,
				TaskID:    existing.ID,
				TaskTitle: existing.Title,
				Detail: fmt.Sprintf("starts within %s of %q for the same assignee",
					gap.Round(time.Minute), existing.Title),
				Suggestion: "shift the start time or reassign one of the tasks",
			})
		}
	}

	for _, depID := range req.Dependencies {
		dep, ok := e.tasks[depID]
		if !ok {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictDependency,
				Severity: SeverityHigh,
				TaskID:   depID,
				Detail:   "dependency does not exist",
			})

			continue
		}

		if dep.Status == models.TaskStatusCompleted || dep.Status == models.TaskStatusCancelled {
			continue
		}

		if dep.DueDate != nil && dep.DueDate.After(req.ScheduledTime) {
			conflicts = append(conflicts, Conflict{
				Type:      ConflictDependency,
				Severity:  SeverityHigh,
				TaskID:    dep.ID,
				TaskTitle: dep.Title,
				Detail: fmt.Sprintf("dependency %q is due %s, after the requested start",
					dep.Title, dep.DueDate.Format(time.RFC3339)),
				Suggestion: "start after the dependency's due date",
			})
		}
	}

	return conflicts
}
