package workflow

import (
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

func testGenerator(t *testing.T) *Generator {
	t.Helper()

	return NewGenerator(slog.Default(), &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)})
}

func criminalContext() models.WorkflowContext {
	return models.WorkflowContext{
		CaseID:    "case-77",
		UserID:    "user-9",
		Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		TriggerEvent: models.TriggerEvent{
			Type: models.EventPhaseChanged,
		},
		Metadata: map[string]any{
			"case": map[string]any{"title": "State v. Harmon"},
		},
	}
}

func TestGenerateTasks_MatchesCaseTypeAndPhase(t *testing.T) {
	g := testGenerator(t)

	created := g.GenerateTasks(criminalContext(), models.CaseTypeCriminalDefense, models.PhasePreProceedingPreparation)

	titles := make([]string, 0, len(created))
	for _, task := range created {
		titles = append(titles, task.Title)
	}

	assert.Contains(t, titles, "Bail Hearing Preparation")
	assert.Contains(t, titles, "Review Discovery Materials")
	assert.NotContains(t, titles, "Compile Witness List", "wrong phase must not match")
}

func TestGenerateTasks_BailHearingDefaults(t *testing.T) {
	g := testGenerator(t)

	wctx := criminalContext()
	created := g.GenerateTasks(wctx, models.CaseTypeCriminalDefense, models.PhasePreProceedingPreparation)

	var bail *models.CreatedTask

	for i := range created {
		if created[i].Title == "Bail Hearing Preparation" {
			bail = &created[i]
		}
	}

	require.NotNil(t, bail)
	assert.Equal(t, models.PriorityUrgent, bail.Priority)
	assert.Equal(t, models.RoleAttorney, bail.AssigneeRole)
	assert.Equal(t, "user-9", bail.AssignedTo, "assignee defaults to the acting user")
	require.NotNil(t, bail.DueDate)
	assert.Equal(t, wctx.Timestamp.AddDate(0, 0, 1), *bail.DueDate)
	assert.Equal(t, "Prepare bail hearing materials for State v. Harmon", bail.Description)
}

func TestGenerateTasks_ConditionsGateTemplates(t *testing.T) {
	g := testGenerator(t)

	wctx := models.WorkflowContext{
		CaseID:    "case-3",
		UserID:    "user-1",
		Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Metadata: map[string]any{
			"case": map[string]any{"expert_retained": true},
		},
	}

	created := g.GenerateTasks(wctx, models.CaseTypeMedicalMalpractice, models.PhasePreProceedingPreparation)

	for _, task := range created {
		assert.NotEqual(t, "Retain Medical Expert", task.Title,
			"template gated on expert_retained absence must be skipped")
	}
}

func TestGenerateTasks_UnresolvedTokensLeftVerbatim(t *testing.T) {
	g := testGenerator(t)

	wctx := criminalContext()
	wctx.Metadata = map[string]any{}

	created := g.GenerateTasks(wctx, models.CaseTypeCriminalDefense, models.PhasePreProceedingPreparation)

	for _, task := range created {
		if task.TemplateID == "criminal-bail-hearing-prep" {
			assert.Equal(t, "Prepare bail hearing materials for {case.title}", task.Description)
		}
	}
}

func TestAddTemplate_Immutable(t *testing.T) {
	g := testGenerator(t)

	tpl := &models.TaskTemplate{
		ID:              "criminal-bail-hearing-prep",
		CaseType:        models.CaseTypeCriminalDefense,
		Phase:           models.PhasePreProceedingPreparation,
		TitleTemplate:   "Replacement",
		DefaultPriority: models.PriorityLow,
		AutoCreate:      true,
	}

	err := g.AddTemplate(tpl)
	assert.ErrorIs(t, err, ErrTemplateAlreadyExists)
}

func TestNotifications_UrgencyFollowsPriority(t *testing.T) {
	g := testGenerator(t)

	wctx := criminalContext()
	created := g.GenerateTasks(wctx, models.CaseTypeCriminalDefense, models.PhasePreProceedingPreparation)
	notifications := g.Notifications(wctx, created)

	require.Len(t, notifications, len(created))

	for i, task := range created {
		if task.Priority == models.PriorityUrgent {
			assert.Equal(t, models.UrgencyCritical, notifications[i].Urgency)
		} else {
			assert.Equal(t, models.UrgencyNormal, notifications[i].Urgency)
		}
	}
}
