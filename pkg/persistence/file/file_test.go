package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence"
)

func testPersistence(t *testing.T) *Persistence {
	t.Helper()

	p, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p
}

func TestCaseRepository_RoundTrip(t *testing.T) {
	p := testPersistence(t)
	ctx := context.Background()
	repo := p.CaseRepository()

	c := &models.Case{
		ID:        "case-1",
		Type:      models.CaseTypeFamilyLaw,
		Phase:     models.PhaseIntakeRiskAssessment,
		Status:    models.CaseStatusOpen,
		Title:     "In re Marriage of Vance",
		Metadata:  map[string]any{"client_id": "cl-9"},
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, repo.SaveCase(ctx, c))

	loaded, err := repo.CaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, c.Title, loaded.Title)
	assert.Equal(t, "cl-9", loaded.Metadata["client_id"])

	all, err := repo.Cases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteCase(ctx, "case-1"))

	_, err = repo.CaseByID(ctx, "case-1")
	assert.ErrorIs(t, err, persistence.ErrCaseNotFound)
}

func TestTaskRepository_FilterByCase(t *testing.T) {
	p := testPersistence(t)
	ctx := context.Background()
	repo := p.TaskRepository()

	for i, caseID := range []string{"case-1", "case-1", "case-2"} {
		task := &models.ScheduledTask{
			ID:            "t-" + string(rune('a'+i)),
			TaskID:        "t-" + string(rune('a'+i)),
			CaseID:        caseID,
			Title:         "task",
			ScheduledTime: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			Priority:      models.PriorityMedium,
			Status:        models.TaskStatusPending,
			AssignedTo:    "user-1",
		}
		require.NoError(t, repo.SaveTask(ctx, task))
	}

	tasks, err := repo.TasksByCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestAuditRepository_AppendOnlyOrdered(t *testing.T) {
	p := testPersistence(t)
	ctx := context.Background()
	repo := p.AuditRepository()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, action := range []string{"phase_transition", "task_created", "task_completed"} {
		require.NoError(t, repo.AppendAudit(ctx, &models.AuditRecord{
			ID:     action,
			CaseID: "case-1",
			Action: action,
			At:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	trail, err := repo.AuditTrail(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "phase_transition", trail[0].Action)
	assert.Equal(t, "task_completed", trail[2].Action)

	empty, err := repo.AuditTrail(ctx, "case-ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHealthCheck(t *testing.T) {
	p := testPersistence(t)
	assert.NoError(t, p.HealthCheck(context.Background()))
}
