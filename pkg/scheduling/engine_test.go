package scheduling

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func testEngine() (*Engine, *fakeClock) {
	clock := &fakeClock{now: testNow}

	return NewEngine(slog.Default(), clock), clock
}

func request(title, assignee string, start time.Time) ScheduleRequest {
	return ScheduleRequest{
		CaseID:        "case-1",
		Title:         title,
		ScheduledTime: start,
		Priority:      models.PriorityMedium,
		AssignedTo:    assignee,
	}
}

func TestScheduleTask_RegistersWithReminders(t *testing.T) {
	e, _ := testEngine()

	req := request("File motion", "user-1", testNow.Add(24*time.Hour))
	req.Priority = models.PriorityUrgent

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, task.ID, task.TaskID, "task id defaults to the registry id")

	require.NotNil(t, task.Reminders)
	assert.True(t, task.Reminders.Enabled)
	assert.Len(t, task.Reminders.Reminders, 3, "urgent tier carries three reminders")

	stored, ok := e.Task(task.ID)
	require.True(t, ok)
	assert.Same(t, task, stored)
}

func TestScheduleTask_DeadlineReminderNeedsDueDate(t *testing.T) {
	e, _ := testEngine()

	due := testNow.Add(72 * time.Hour)
	req := request("Draft brief", "user-1", testNow.Add(24*time.Hour))
	req.DueDate = &due

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)

	var hasDeadline bool

	for _, r := range task.Reminders.Reminders {
		if r.Message == "Deadline in 2 days" {
			hasDeadline = true
		}
	}

	assert.True(t, hasDeadline)
}

func TestScheduleTask_LowPriorityNoDueDate_RemindersDisabled(t *testing.T) {
	e, _ := testEngine()

	req := request("Tidy file room", "user-1", testNow.Add(24*time.Hour))
	req.Priority = models.PriorityLow

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)

	require.NotNil(t, task.Reminders)
	assert.False(t, task.Reminders.Enabled)
}

func TestScheduleTask_CollectsAllViolations(t *testing.T) {
	e, _ := testEngine()

	past := testNow.Add(-time.Hour)
	due := past.Add(-time.Hour)

	_, err := e.ScheduleTask(ScheduleRequest{
		CaseID:        "case-1",
		ScheduledTime: past,
		DueDate:       &due,
		Priority:      models.PriorityMedium,
	})

	var verr *ValidationError

	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Violations), 4,
		"missing title, missing assignee, past start and inverted due date all reported")
}

func TestScheduleTask_WallClockNowWithinGrace(t *testing.T) {
	e := NewEngine(slog.Default(), protocol.SystemClock{})

	task, err := e.ScheduleTask(request("Immediate intake call", "user-1", time.Now().UTC()))
	require.NoError(t, err, "a start time read moments before validation is not in the past")
	assert.Equal(t, models.TaskStatusPending, task.Status)

	var verr *ValidationError

	_, err = e.ScheduleTask(request("Backdated intake call", "user-1", time.Now().UTC().Add(-2*pastGrace)))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, "scheduled time is in the past")
}

func TestCheckScheduleConflicts_TimeOverlapWindow(t *testing.T) {
	e, _ := testEngine()

	_, err := e.ScheduleTask(request("Deposition prep", "user-1", testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	close := e.CheckScheduleConflicts(request("Client call", "user-1", testNow.Add(2*time.Hour+10*time.Minute)))
	require.Len(t, close, 1)
	assert.Equal(t, ConflictTimeOverlap, close[0].Type)
	assert.Equal(t, SeverityMedium, close[0].Severity)

	far := e.CheckScheduleConflicts(request("Client call", "user-1", testNow.Add(2*time.Hour+45*time.Minute)))
	assert.Empty(t, far, "45 minutes apart clears the 30-minute window")

	other := e.CheckScheduleConflicts(request("Client call", "user-2", testNow.Add(2*time.Hour+10*time.Minute)))
	assert.Empty(t, other, "different assignee never overlaps")
}

func TestCheckScheduleConflicts_DependencyDueAfterStart(t *testing.T) {
	e, _ := testEngine()

	depDue := testNow.Add(5 * 24 * time.Hour)
	depReq := request("Gather exhibits", "user-1", testNow.Add(24*time.Hour))
	depReq.DueDate = &depDue

	dep, err := e.ScheduleTask(depReq)
	require.NoError(t, err)

	req := request("Present exhibits", "user-2", testNow.Add(2*24*time.Hour))
	req.Dependencies = []string{dep.ID}

	conflicts := e.CheckScheduleConflicts(req)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDependency, conflicts[0].Type)
	assert.Equal(t, SeverityHigh, conflicts[0].Severity)

	require.NoError(t, e.UpdateStatus(dep.ID, models.TaskStatusCompleted))
	assert.Empty(t, e.CheckScheduleConflicts(req), "completed dependency no longer conflicts")
}

func TestCheckScheduleConflicts_MissingDependency(t *testing.T) {
	e, _ := testEngine()

	req := request("Orphan", "user-1", testNow.Add(24*time.Hour))
	req.Dependencies = []string{"ghost"}

	conflicts := e.CheckScheduleConflicts(req)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDependency, conflicts[0].Type)
}

func TestDependents(t *testing.T) {
	e, _ := testEngine()

	parent, err := e.ScheduleTask(request("Parent", "user-1", testNow.Add(24*time.Hour)))
	require.NoError(t, err)

	childReq := request("Child", "user-2", testNow.Add(48*time.Hour))
	childReq.Dependencies = []string{parent.ID}

	child, err := e.ScheduleTask(childReq)
	require.NoError(t, err)

	dependents := e.Dependents(parent.ID)
	require.Len(t, dependents, 1)
	assert.Equal(t, child.ID, dependents[0].ID)
}

func TestSetDueDate_RejectsBeforeScheduledTime(t *testing.T) {
	e, _ := testEngine()

	task, err := e.ScheduleTask(request("Task", "user-1", testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	err = e.SetDueDate(task.ID, testNow.Add(24*time.Hour))

	var verr *ValidationError

	assert.ErrorAs(t, err, &verr)

	require.NoError(t, e.SetDueDate(task.ID, testNow.Add(72*time.Hour)))
	assert.ErrorIs(t, e.SetDueDate("ghost", testNow.Add(72*time.Hour)), ErrTaskNotFound)
}
