// Package priority computes composite task priority scores from deadline
// proximity, case urgency, dependency blockage, workload pressure and age,
// and maps scores onto priority tiers.
package priority

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
)

// TaskSource is the view of the task registry the scorer reads. The
// scheduling engine implements it.
type TaskSource interface {
	Task(id string) (*models.ScheduledTask, bool)
	Tasks() []*models.ScheduledTask
	TasksByAssignee(assignee string) []*models.ScheduledTask
	Dependents(taskID string) []*models.ScheduledTask
}

// CaseSource resolves the case a task belongs to for urgency scoring.
type CaseSource interface {
	Case(id string) (*models.Case, bool)
}

// Factors itemizes the capped contribution of each scoring input.
type Factors struct {
	DeadlineProximity  float64 `json:"deadline_proximity"`
	CaseUrgency        float64 `json:"case_urgency"`
	ClientImportance   float64 `json:"client_importance"`
	DependencyBlockage float64 `json:"dependency_blockage"`
	WorkloadPressure   float64 `json:"workload_pressure"`
	Age                float64 `json:"age"`
}

// Score is the composite priority of one task. The total is the uncapped
// sum of capped factors, so it can exceed 100; tiering handles that.
type Score struct {
	TaskID    string              `json:"task_id"`
	Score     float64             `json:"score"`
	Factors   Factors             `json:"factors"`
	Priority  models.TaskPriority `json:"priority"`
	Reasoning []string            `json:"reasoning,omitempty"`
}

// clientImportanceBaseline is the fixed client-importance contribution until
// real client-value data is wired in.
const clientImportanceBaseline = 10

// Scorer computes priority scores over a task registry.
type Scorer struct {
	logger   *slog.Logger
	clock    protocol.Clock
	tasks    TaskSource
	cases    CaseSource
	identity protocol.IdentityService
	urgency  map[models.CaseType]map[models.CaseStatus]models.TaskPriority

	overrides *overrideLedger
}

// NewScorer creates a scorer with the default case-urgency matrix.
func NewScorer(logger *slog.Logger, clock protocol.Clock, tasks TaskSource, cases CaseSource) *Scorer {
	return &Scorer{
		logger:    logger.With("module", "priority_scorer"),
		clock:     clock,
		tasks:     tasks,
		cases:     cases,
		urgency:   defaultUrgencyMatrix(),
		overrides: newOverrideLedger(),
	}
}

// SetIdentity wires the identity port in as a source of assignee
// active-task counts. The registry count still applies; the identity count
// covers work tracked outside this registry.
func (s *Scorer) SetIdentity(identity protocol.IdentityService) {
	s.identity = identity
}

// CalculatePriority scores one task. A manual override, when present,
// bypasses the computed tier until the next recompute.
func (s *Scorer) CalculatePriority(task *models.ScheduledTask) Score {
	now := s.clock.Now()

	var (
		factors   Factors
		reasoning []string
	)

	factors.DeadlineProximity = deadlineProximity(task, now)
	if factors.DeadlineProximity > 0 {
		reasoning = append(reasoning, fmt.Sprintf("deadline proximity contributes %.0f", factors.DeadlineProximity))
	}

	factors.CaseUrgency = s.caseUrgency(task)
	reasoning = append(reasoning, fmt.Sprintf("case urgency contributes %.0f", factors.CaseUrgency))

	factors.ClientImportance = clientImportanceBaseline

	factors.DependencyBlockage = s.dependencyBlockage(task)
	if factors.DependencyBlockage > 0 {
		reasoning = append(reasoning, fmt.Sprintf("blocking %.0f points of dependent work", factors.DependencyBlockage))
	}

	factors.WorkloadPressure = s.workloadPressure(task)
	if factors.WorkloadPressure > 0 {
		reasoning = append(reasoning, fmt.Sprintf("assignee workload contributes %.0f", factors.WorkloadPressure))
	}

	factors.Age = ageFactor(task, now)

	total := factors.DeadlineProximity + factors.CaseUrgency + factors.ClientImportance +
		factors.DependencyBlockage + factors.WorkloadPressure + factors.Age

	score := Score{
		TaskID:    task.ID,
		Score:     total,
		Factors:   factors,
		Priority:  ScoreToPriority(total),
		Reasoning: reasoning,
	}

	if override, ok := s.overrides.get(task.ID); ok {
		score.Priority = override
		score.Reasoning = append(score.Reasoning, "manual override in effect")
	}

	return score
}

// ScoreToPriority maps a composite score onto a tier. The mapping is
// monotonic: a higher score never yields a lower tier.
func ScoreToPriority(score float64) models.TaskPriority {
	switch {
	case score >= 80:
		return models.PriorityUrgent
	case score >= 60:
		return models.PriorityHigh
	case score >= 40:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func deadlineProximity(task *models.ScheduledTask, now time.Time) float64 {
	if task.DueDate == nil {
		return 0
	}

	until := task.DueDate.Sub(now)

	switch {
	case until < 0:
		return 30
	case until <= 24*time.Hour:
		return 25
	case until <= 3*24*time.Hour:
		return 20
	case until <= 7*24*time.Hour:
		return 15
	case until <= 14*24*time.Hour:
		return 10
	default:
		return 0
	}
}

func (s *Scorer) caseUrgency(task *models.ScheduledTask) float64 {
	c, ok := s.cases.Case(task.CaseID)
	if !ok {
		return urgencyPoints(models.PriorityMedium)
	}

	base := models.PriorityMedium
	if byStatus, ok := s.urgency[c.Type]; ok {
		if tier, ok := byStatus[c.Status]; ok {
			base = tier
		}
	}

	return urgencyPoints(base)
}

func urgencyPoints(tier models.TaskPriority) float64 {
	switch tier {
	case models.PriorityUrgent:
		return 25
	case models.PriorityHigh:
		return 20
	case models.PriorityMedium:
		return 15
	default:
		return 10
	}
}

func (s *Scorer) dependencyBlockage(task *models.ScheduledTask) float64 {
	blocked := 0

	for _, dependent := range s.tasks.Dependents(task.ID) {
		if dependent.Status == models.TaskStatusPending || dependent.Status == models.TaskStatusInProgress {
			blocked++
		}
	}

	return math.Min(20, float64(blocked)*5)
}

func (s *Scorer) workloadPressure(task *models.ScheduledTask) float64 {
	active := 0

	for _, other := range s.tasks.TasksByAssignee(task.AssignedTo) {
		if other.Status.Active() {
			active++
		}
	}

	if s.identity != nil {
		profile, err := s.identity.ResolveUser(context.Background(), task.AssignedTo)
		if err == nil && profile.ActiveTaskCount > active {
			active = profile.ActiveTaskCount
		}
	}

	switch {
	case active > 15:
		return 15
	case active > 10:
		return 10
	case active > 5:
		return 5
	default:
		return 0
	}
}

func ageFactor(task *models.ScheduledTask, now time.Time) float64 {
	days := now.Sub(task.CreatedAt).Hours() / 24

	return math.Min(15, math.Max(0, days*0.5))
}

// defaultUrgencyMatrix maps (caseType, caseStatus) onto a base urgency tier.
func defaultUrgencyMatrix() map[models.CaseType]map[models.CaseStatus]models.TaskPriority {
	matrix := make(map[models.CaseType]map[models.CaseStatus]models.TaskPriority)

	for _, caseType := range models.AllCaseTypes() {
		matrix[caseType] = map[models.CaseStatus]models.TaskPriority{
			models.CaseStatusOpen:          models.PriorityMedium,
			models.CaseStatusActive:        models.PriorityHigh,
			models.CaseStatusPendingReview: models.PriorityMedium,
			models.CaseStatusOnHold:        models.PriorityLow,
			models.CaseStatusResolved:      models.PriorityLow,
			models.CaseStatusClosed:        models.PriorityLow,
		}
	}

	// Criminal defense and medical malpractice matters run hotter while
	// proceedings are live.
	matrix[models.CaseTypeCriminalDefense][models.CaseStatusActive] = models.PriorityUrgent
	matrix[models.CaseTypeMedicalMalpractice][models.CaseStatusActive] = models.PriorityUrgent
	matrix[models.CaseTypeCriminalDefense][models.CaseStatusOpen] = models.PriorityHigh

	return matrix
}
