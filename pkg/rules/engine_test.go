package rules

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	return NewEngine(slog.Default(), clock)
}

func testContext(metadata map[string]any) models.WorkflowContext {
	return models.WorkflowContext{
		CaseID:    "case-1",
		TaskID:    "task-1",
		UserID:    "user-1",
		Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		TriggerEvent: models.TriggerEvent{
			Type: models.EventPhaseChanged,
		},
		Metadata: metadata,
	}
}

func notifyAction(id string) models.Action {
	return models.Action{
		ID:   id,
		Kind: models.ActionSendNotification,
		Parameters: map[string]any{
			"type":       "in_app",
			"template":   "task_update",
			"recipients": []any{"assignee"},
		},
	}
}

func simpleRule(id string, priority int, conditions []models.Condition) *models.BusinessRule {
	return &models.BusinessRule{
		ID:         id,
		Name:       "rule " + id,
		Category:   models.CategoryNotification,
		Priority:   priority,
		IsActive:   true,
		Conditions: conditions,
		Actions:    []models.Action{notifyAction(id + "-a1")},
	}
}

func TestAddRule_RejectsUnknownActionKind(t *testing.T) {
	e := newTestEngine(t)

	rule := simpleRule("r1", 1, []models.Condition{{Field: "case.type", Operator: models.OpExists}})
	rule.Actions = []models.Action{{ID: "a1", Kind: models.ActionKind("explode_task")}}

	err := e.AddRule(rule)
	require.Error(t, err)
	assert.ErrorAs(t, err, &models.ErrUnknownActionKind{})
}

func TestAddRule_RejectsInvalidParameters(t *testing.T) {
	e := newTestEngine(t)

	rule := simpleRule("r1", 1, []models.Condition{{Field: "case.type", Operator: models.OpExists}})
	rule.Actions = []models.Action{{ID: "a1", Kind: models.ActionChangePriority, Parameters: map[string]any{
		"priority": "EXTREME",
	}}}

	err := e.AddRule(rule)
	assert.Error(t, err)
}

func TestEvaluateRules_AscendingPriorityOrder(t *testing.T) {
	e := newTestEngine(t)

	cond := []models.Condition{{Field: "case.type", Operator: models.OpExists}}
	require.NoError(t, e.AddRule(simpleRule("late", 50, cond)))
	require.NoError(t, e.AddRule(simpleRule("early", 1, cond)))
	require.NoError(t, e.AddRule(simpleRule("middle", 10, cond)))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{
		"case": map[string]any{"type": "CRIMINAL_DEFENSE"},
	}))

	require.Len(t, results, 3)
	assert.Equal(t, "early", results[0].RuleID)
	assert.Equal(t, "middle", results[1].RuleID)
	assert.Equal(t, "late", results[2].RuleID)
}

func TestEvaluateRules_ReturnsNonMatchesForAuditing(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule(simpleRule("nomatch", 1, []models.Condition{
		{Field: "case.type", Operator: models.OpEquals, Value: "FAMILY_LAW"},
	})))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{
		"case": map[string]any{"type": "CORPORATE"},
	}))

	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
	assert.Empty(t, results[0].Actions, "actions must not run for non-matches")
}

func TestEvaluateRules_Deterministic(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule(simpleRule("r1", 1, []models.Condition{
		{Field: "case.type", Operator: models.OpEquals, Value: "CORPORATE", Weight: 2},
		{Field: "case.value", Operator: models.OpGreaterThan, Value: 10000},
	})))

	wctx := testContext(map[string]any{
		"case": map[string]any{"type": "CORPORATE", "value": 5000},
	})

	first := e.EvaluateRules(context.Background(), wctx)
	second := e.EvaluateRules(context.Background(), wctx)

	require.Len(t, first, 1)
	assert.Equal(t, first[0].Matched, second[0].Matched)
	assert.Equal(t, first[0].Score, second[0].Score)
	assert.Equal(t, first[0].Confidence, second[0].Confidence)
}

func TestEvaluateRules_WeightedScore(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule(simpleRule("r1", 1, []models.Condition{
		{Field: "a", Operator: models.OpExists, Weight: 3},
		{Field: "b", Operator: models.OpExists, Weight: 1},
	})))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1}))

	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
	assert.InDelta(t, 75.0, results[0].Score, 0.001)
	assert.InDelta(t, 0.5, results[0].Confidence, 0.001)
}

func TestEvaluateRules_ANDRequiresAll(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule(simpleRule("and", 1, []models.Condition{
		{Field: "a", Operator: models.OpExists},
		{Field: "b", Operator: models.OpExists},
	})))

	matchedResults := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1, "b": 2}))
	assert.True(t, matchedResults[0].Matched)

	partialResults := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1}))
	assert.False(t, partialResults[0].Matched)
}

func TestEvaluateRules_ORMatchesAnyAndShortCircuits(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule(simpleRule("or", 1, []models.Condition{
		{Field: "a", Operator: models.OpExists, LogicalOperator: models.LogicalOr},
		{Field: "b", Operator: models.OpExists, LogicalOperator: models.LogicalOr},
		{Field: "c", Operator: models.OpExists, LogicalOperator: models.LogicalOr},
	})))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1, "c": 3}))

	require.Len(t, results, 1)
	assert.True(t, results[0].Matched)

	require.Len(t, results[0].Conditions, 3)
	assert.True(t, results[0].Conditions[0].Evaluated)
	assert.False(t, results[0].Conditions[1].Evaluated, "conditions after the first OR match are skipped")
	assert.False(t, results[0].Conditions[2].Evaluated)
}

func TestExecuteActions_StopStrategySkipsRemainder(t *testing.T) {
	e := newTestEngine(t)

	rule := simpleRule("stop", 1, []models.Condition{{Field: "a", Operator: models.OpExists}})
	rule.Actions = []models.Action{
		notifyAction("ok-1"),
		// assign_to interpolates to an empty string, which fails at
		// execution time even though the schema accepted the template.
		{ID: "bad", Kind: models.ActionAssignTask, FailureStrategy: models.FailureStop,
			Parameters: map[string]any{"assign_to": "{empty}"}},
		notifyAction("never-runs"),
	}

	require.NoError(t, e.AddRule(rule))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1, "empty": ""}))

	require.Len(t, results, 1)
	require.Len(t, results[0].Actions, 3)
	assert.Equal(t, models.ActionSucceeded, results[0].Actions[0].Status)
	assert.Equal(t, models.ActionFailed, results[0].Actions[1].Status)
	assert.Equal(t, models.ActionSkipped, results[0].Actions[2].Status)
}

func TestExecuteActions_RollbackCancelsPriorIntents(t *testing.T) {
	e := newTestEngine(t)

	rule := simpleRule("rollback", 1, []models.Condition{{Field: "a", Operator: models.OpExists}})
	rule.Actions = []models.Action{
		notifyAction("ok-1"),
		{ID: "bad", Kind: models.ActionAssignTask, FailureStrategy: models.FailureRollback,
			Parameters: map[string]any{"assign_to": "{empty}"}},
	}

	require.NoError(t, e.AddRule(rule))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1, "empty": ""}))

	require.Len(t, results, 1)
	assert.Equal(t, models.ActionRolledBack, results[0].Actions[0].Status)
	assert.Empty(t, results[0].Intents(), "rolled-back intents must not reach the caller")
}

func TestStats_CountsAndCategories(t *testing.T) {
	e := newTestEngine(t)

	cond := []models.Condition{{Field: "a", Operator: models.OpExists}}
	require.NoError(t, e.AddRule(simpleRule("r1", 1, cond)))

	escalation := simpleRule("r2", 2, cond)
	escalation.Category = models.CategoryEscalation
	require.NoError(t, e.AddRule(escalation))

	wctx := testContext(map[string]any{"a": 1})
	e.EvaluateRules(context.Background(), wctx)
	e.EvaluateRules(context.Background(), wctx)

	report := e.Stats()
	assert.Equal(t, 2, report.TotalRules)
	assert.Equal(t, int64(4), report.TotalEvaluations)
	assert.Equal(t, int64(2), report.ByCategory[models.CategoryEscalation])
	assert.InDelta(t, 1.0, report.OverallSuccess, 0.001)

	require.NoError(t, e.ResetStats("r1"))

	rule, err := e.Rule("r1")
	require.NoError(t, err)
	assert.Zero(t, rule.Stats.TriggerCount)
}

func TestSetActive_DeactivatedRulesSkipEvaluation(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddRule(simpleRule("r1", 1, []models.Condition{{Field: "a", Operator: models.OpExists}})))
	require.NoError(t, e.SetActive("r1", false))

	results := e.EvaluateRules(context.Background(), testContext(map[string]any{"a": 1}))
	assert.Empty(t, results)
}
