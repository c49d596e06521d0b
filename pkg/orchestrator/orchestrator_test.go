package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence/file"
	"github.com/docket-io/docket/pkg/priority"
	"github.com/docket-io/docket/pkg/rules"
	"github.com/docket-io/docket/pkg/scheduling"
	"github.com/docket-io/docket/pkg/statemachine"
	"github.com/docket-io/docket/pkg/workflow"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	orchestrator *Orchestrator
	scheduler    *scheduling.Engine
	rules        *rules.Engine
	store        *file.Persistence
	clock        *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.Default()
	clock := &fakeClock{now: testNow}

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	scheduler := scheduling.NewEngine(logger, clock)
	engine := rules.NewEngine(logger, clock)

	caseSource := &storeCaseSource{store: store}
	scorer := priority.NewScorer(logger, clock, scheduler, caseSource)

	o := New(Config{
		Logger:    logger,
		Clock:     clock,
		Machine:   statemachine.New(),
		Generator: workflow.NewGenerator(logger, clock),
		Rules:     engine,
		Scheduler: scheduler,
		Scorer:    scorer,
		Store:     store,
	})

	return &fixture{
		orchestrator: o,
		scheduler:    scheduler,
		rules:        engine,
		store:        store,
		clock:        clock,
	}
}

// storeCaseSource adapts the persistence layer to the scorer's read view.
type storeCaseSource struct {
	store *file.Persistence
}

func (s *storeCaseSource) Case(id string) (*models.Case, bool) {
	c, err := s.store.CaseRepository().CaseByID(context.Background(), id)
	if err != nil {
		return nil, false
	}

	return c, true
}

func saveCase(t *testing.T, f *fixture, c *models.Case) {
	t.Helper()
	require.NoError(t, f.store.CaseRepository().SaveCase(context.Background(), c))
}

func transitionRequest(target models.CasePhase, userID string, role models.Role) TransitionRequest {
	return TransitionRequest{
		CaseID:      "case-1",
		TargetPhase: target,
		UserID:      userID,
		Role:        role,
	}
}

func criminalCase() *models.Case {
	return &models.Case{
		ID:        "case-1",
		Type:      models.CaseTypeCriminalDefense,
		Phase:     models.PhaseIntakeRiskAssessment,
		Status:    models.CaseStatusActive,
		Title:     "State v. Harmon",
		Metadata:  map[string]any{"conflict_check": "clear", "retainer_signed": true},
		CreatedAt: testNow.Add(-48 * time.Hour),
	}
}

func TestHandleCasePhaseTransition_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saveCase(t, f, criminalCase())

	result, err := f.orchestrator.HandleCasePhaseTransition(ctx,
		transitionRequest(models.PhasePreProceedingPreparation, "user-9", models.RoleAttorney))
	require.NoError(t, err)

	assert.True(t, result.Success, "errors: %v", result.Errors)
	assert.True(t, result.PhaseTransitionValid)
	assert.Equal(t, models.PhaseIntakeRiskAssessment, result.FromPhase)

	titles := make([]string, 0, len(result.TasksCreated))
	for _, task := range result.TasksCreated {
		titles = append(titles, task.Title)
	}

	assert.Contains(t, titles, "Bail Hearing Preparation")

	// The case moved and was persisted.
	c, err := f.store.CaseRepository().CaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhasePreProceedingPreparation, c.Phase)

	// Every generated task landed in the scheduler without conflicts.
	scheduled := f.scheduler.TasksByCase("case-1")
	assert.Len(t, scheduled, len(result.TasksCreated))

	for _, task := range scheduled {
		require.NotNil(t, task.DueDate, "tasks without a template offset get the phase default")
	}

	// Generated notifications accompany the created tasks.
	assert.NotEmpty(t, result.Notifications)
}

func TestHandleCasePhaseTransition_InvalidTransitionIsReportedNotThrown(t *testing.T) {
	f := newFixture(t)

	saveCase(t, f, criminalCase())

	result, err := f.orchestrator.HandleCasePhaseTransition(context.Background(),
		transitionRequest(models.PhaseClosureArchival, "user-9", models.RoleAttorney))
	require.NoError(t, err, "business rejection is a result, not an error")

	assert.False(t, result.Success)
	assert.False(t, result.PhaseTransitionValid)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.TasksCreated, "no tasks generate on a rejected transition")
}

func TestHandleCasePhaseTransition_PermissionDenied(t *testing.T) {
	f := newFixture(t)

	saveCase(t, f, criminalCase())

	result, err := f.orchestrator.HandleCasePhaseTransition(context.Background(),
		transitionRequest(models.PhasePreProceedingPreparation, "user-2", models.RoleLegalAssistant))
	require.NoError(t, err)

	assert.False(t, result.Success)

	c, err := f.store.CaseRepository().CaseByID(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseIntakeRiskAssessment, c.Phase, "case must not move")
}

func TestHandleCasePhaseTransition_TargetStatusReasonAndMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saveCase(t, f, criminalCase())

	require.NoError(t, f.rules.AddRule(&models.BusinessRule{
		ID:       "expedite-flagged",
		Name:     "Flag expedited transitions for supervision",
		Category: models.CategoryCompliance,
		IsActive: true,
		Conditions: []models.Condition{
			{Field: "request.expedited", Operator: models.OpEquals, Value: true},
		},
		Actions: []models.Action{
			{
				ID:   "a1",
				Kind: models.ActionSendNotification,
				Parameters: map[string]any{
					"recipients": []any{"SUPERVISING_ATTORNEY"},
					"template":   "expedited_transition",
					"urgency":    "high",
				},
			},
		},
	}))

	req := transitionRequest(models.PhasePreProceedingPreparation, "user-9", models.RoleAttorney)
	req.TargetStatus = models.CaseStatusPendingReview
	req.Reason = "client requested expedited handling"
	req.Metadata = map[string]any{"expedited": true}

	result, err := f.orchestrator.HandleCasePhaseTransition(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Success, "errors: %v", result.Errors)

	c, err := f.store.CaseRepository().CaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusPendingReview, c.Status, "optional target status applies with the phase")

	var matched bool

	for _, rr := range result.RuleResults {
		if rr.RuleID == "expedite-flagged" && rr.Matched {
			matched = true
		}
	}

	assert.True(t, matched, "request metadata is visible to rule conditions")

	trail, err := f.store.AuditRepository().AuditTrail(ctx, "case-1")
	require.NoError(t, err)
	require.NotEmpty(t, trail)

	var reasonRecorded bool

	for _, rec := range trail {
		if rec.Action == "phase_transition" && strings.Contains(rec.Detail, "client requested expedited handling") {
			reasonRecorded = true
		}
	}

	assert.True(t, reasonRecorded, "the actor's reason lands in the audit trail")
}

func TestHandleCasePhaseTransition_MatchedRuleIntentsApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saveCase(t, f, criminalCase())

	require.NoError(t, f.rules.AddRule(&models.BusinessRule{
		ID:       "notify-on-prep",
		Name:     "Notify supervising attorney on preparation start",
		Category: models.CategoryNotification,
		IsActive: true,
		Conditions: []models.Condition{
			{Field: "case.type", Operator: models.OpEquals, Value: "CRIMINAL_DEFENSE"},
		},
		Actions: []models.Action{
			{
				ID:   "a1",
				Kind: models.ActionSendNotification,
				Parameters: map[string]any{
					"recipients": []any{"SUPERVISING_ATTORNEY"},
					"template":   "prep_started",
					"urgency":    "high",
				},
			},
		},
	}))

	result, err := f.orchestrator.HandleCasePhaseTransition(ctx,
		transitionRequest(models.PhasePreProceedingPreparation, "user-9", models.RoleAttorney))
	require.NoError(t, err)

	require.NotEmpty(t, result.RuleResults)

	var matched bool

	for _, rr := range result.RuleResults {
		if rr.RuleID == "notify-on-prep" && rr.Matched {
			matched = true
		}
	}

	assert.True(t, matched, "rule keyed on case.type must match the transition context")

	var notified bool

	for _, n := range result.Notifications {
		if n.Template == "prep_started" {
			notified = true
		}
	}

	assert.True(t, notified, "send_notification intent surfaces in the result")
}

func TestHandleTaskCompletion_EvaluatesStatusChangeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saveCase(t, f, criminalCase())

	task, err := f.scheduler.ScheduleTask(scheduling.ScheduleRequest{
		CaseID:        "case-1",
		Title:         "Draft motion to suppress",
		ScheduledTime: testNow.Add(time.Hour),
		Priority:      models.PriorityHigh,
		AssignedTo:    "user-9",
	})
	require.NoError(t, err)
	require.NoError(t, f.scheduler.UpdateStatus(task.ID, models.TaskStatusInProgress))

	require.NoError(t, f.rules.AddRule(&models.BusinessRule{
		ID:       "review-on-complete",
		Name:     "Request review when high priority work completes",
		Category: models.CategoryCompliance,
		IsActive: true,
		Conditions: []models.Condition{
			{Field: "task.new_status", Operator: models.OpEquals, Value: "COMPLETED"},
			{Field: "task.priority", Operator: models.OpEquals, Value: "HIGH"},
		},
		Actions: []models.Action{
			{
				ID:   "a1",
				Kind: models.ActionRequestReview,
				Parameters: map[string]any{
					"task_id":  "{task.id}",
					"reviewer": "SUPERVISING_ATTORNEY",
				},
			},
		},
	}))

	result, err := f.orchestrator.HandleTaskCompletion(ctx, "case-1", task.ID, "user-9")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	completed, ok := f.scheduler.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusCompleted, completed.Status)

	var reviewRequested bool

	for _, n := range result.Notifications {
		if n.Template == "review_requested" {
			reviewRequested = true
		}
	}

	assert.True(t, reviewRequested)
}

func TestHandleTaskCompletion_RecurringSpawnsFollowUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saveCase(t, f, criminalCase())

	task, err := f.scheduler.ScheduleTask(scheduling.ScheduleRequest{
		CaseID:        "case-1",
		Title:         "Weekly client check-in",
		ScheduledTime: testNow.Add(time.Hour),
		Priority:      models.PriorityMedium,
		AssignedTo:    "user-9",
		Recurrence:    &models.RecurrenceRule{Type: models.RecurrenceWeekly, Interval: 1},
	})
	require.NoError(t, err)

	result, err := f.orchestrator.HandleTaskCompletion(ctx, "case-1", task.ID, "user-9")
	require.NoError(t, err)

	require.Len(t, result.FollowUpTasks, 1)
	assert.Equal(t, "Weekly client check-in", result.FollowUpTasks[0].Title)
}

func TestGetTaskWorkflowOrchestration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saveCase(t, f, criminalCase())

	_, err := f.orchestrator.HandleCasePhaseTransition(ctx,
		transitionRequest(models.PhasePreProceedingPreparation, "user-9", models.RoleAttorney))
	require.NoError(t, err)

	status, err := f.orchestrator.GetTaskWorkflowOrchestration(ctx, "case-1", models.RoleAttorney)
	require.NoError(t, err)

	assert.Equal(t, models.PhasePreProceedingPreparation, status.Phase)
	assert.Positive(t, status.TasksByStatus[models.TaskStatusPending])
	assert.NotEmpty(t, status.Workloads)
	assert.Contains(t, status.NextPhases, models.PhaseProceedingActive)
}
