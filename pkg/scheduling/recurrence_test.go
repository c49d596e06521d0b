package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
)

func anchor() time.Time {
	return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
}

func TestNextOccurrence_Daily(t *testing.T) {
	next, err := NextOccurrence(anchor(), &models.RecurrenceRule{
		Type:     models.RecurrenceDaily,
		Interval: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestNextOccurrence_WeeklyAlignsToAllowedDay(t *testing.T) {
	// 2024-01-01 is a Monday; one week later is Monday 2024-01-08, which
	// rolls forward to the allowed Wednesday.
	next, err := NextOccurrence(anchor(), &models.RecurrenceRule{
		Type:       models.RecurrenceWeekly,
		Interval:   1,
		DaysOfWeek: []int{3},
	})

	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, next.Weekday())
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), next)
}

func TestNextOccurrence_MonthlyClampsShortMonths(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

	next, err := NextOccurrence(jan31, &models.RecurrenceRule{
		Type:       models.RecurrenceMonthly,
		Interval:   1,
		DayOfMonth: 31,
	})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), next, "february clamps to its last day")
}

func TestNextOccurrence_ExceptionsSkipRelative(t *testing.T) {
	next, err := NextOccurrence(anchor(), &models.RecurrenceRule{
		Type:       models.RecurrenceDaily,
		Interval:   1,
		Exceptions: []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), next,
		"excepted candidate re-advances by a full interval")
}

func TestNextOccurrence_EndDateExhausts(t *testing.T) {
	end := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	_, err := NextOccurrence(anchor(), &models.RecurrenceRule{
		Type:     models.RecurrenceDaily,
		Interval: 1,
		EndDate:  &end,
	})

	assert.ErrorIs(t, err, ErrRecurrenceExhausted)
}

func TestProcessRecurringTasks_SpawnsSuccessorOnce(t *testing.T) {
	e, _ := testEngine()

	req := request("Weekly status report", "user-1", testNow.Add(time.Hour))
	req.Recurrence = &models.RecurrenceRule{Type: models.RecurrenceWeekly, Interval: 1}

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)
	require.NoError(t, e.UpdateStatus(task.ID, models.TaskStatusCompleted))

	created := e.ProcessRecurringTasks()
	require.Len(t, created, 1)

	next := created[0]
	assert.Equal(t, task.ScheduledTime.AddDate(0, 0, 7), next.ScheduledTime)
	assert.Equal(t, models.TaskStatusPending, next.Status)
	assert.Equal(t, task.ID, next.Metadata["recurring_task_id"])
	assert.Equal(t, 2, next.Metadata["occurrence"])

	assert.Empty(t, e.ProcessRecurringTasks(), "a completed task spawns at most once")
}

func TestProcessRecurringTasks_RestoredTaskWithNilMetadata(t *testing.T) {
	e, _ := testEngine()

	e.Restore([]*models.ScheduledTask{{
		ID:            "restored-1",
		CaseID:        "case-1",
		Title:         "Weekly status report",
		ScheduledTime: testNow.Add(-7 * 24 * time.Hour),
		Priority:      models.PriorityMedium,
		Status:        models.TaskStatusCompleted,
		AssignedTo:    "user-1",
		Recurrence:    &models.RecurrenceRule{Type: models.RecurrenceDaily, Interval: 1},
	}})

	created := e.ProcessRecurringTasks()
	require.Len(t, created, 1, "persisted tasks round-trip without metadata")
	assert.Equal(t, "restored-1", created[0].Metadata["recurring_task_id"])

	restored, ok := e.Task("restored-1")
	require.True(t, ok)
	assert.Equal(t, true, restored.Metadata["spawned_successor"])
}

func TestProcessRecurringTasks_MaxOccurrencesStopsChain(t *testing.T) {
	e, _ := testEngine()

	req := request("Monthly billing review", "user-1", testNow.Add(time.Hour))
	req.Recurrence = &models.RecurrenceRule{
		Type:           models.RecurrenceMonthly,
		Interval:       1,
		MaxOccurrences: 2,
	}

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)
	require.NoError(t, e.UpdateStatus(task.ID, models.TaskStatusCompleted))

	created := e.ProcessRecurringTasks()
	require.Len(t, created, 1, "occurrence 1 spawns occurrence 2")

	require.NoError(t, e.UpdateStatus(created[0].ID, models.TaskStatusCompleted))
	assert.Empty(t, e.ProcessRecurringTasks(), "occurrence cap reached")
}

func TestProcessRecurringTasks_CarriesDueDateOffset(t *testing.T) {
	e, _ := testEngine()

	start := testNow.Add(time.Hour)
	due := start.Add(48 * time.Hour)

	req := request("Compliance check", "user-1", start)
	req.DueDate = &due
	req.Recurrence = &models.RecurrenceRule{Type: models.RecurrenceDaily, Interval: 7}

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)
	require.NoError(t, e.UpdateStatus(task.ID, models.TaskStatusCompleted))

	created := e.ProcessRecurringTasks()
	require.Len(t, created, 1)
	require.NotNil(t, created[0].DueDate)
	assert.Equal(t, 48*time.Hour, created[0].DueDate.Sub(created[0].ScheduledTime),
		"due offset from start is preserved")
}
