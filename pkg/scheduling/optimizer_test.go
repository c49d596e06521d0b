package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
)

func TestOptimizeSchedule_UnknownStrategy(t *testing.T) {
	e, _ := testEngine()

	_, err := e.OptimizeSchedule(context.Background(), "teleport_tasks", nil)
	assert.Error(t, err)
}

func TestBalanceWorkload_MovesTasksOffOverloadedAssignee(t *testing.T) {
	e, _ := testEngine()

	// 48h of urgent work against a 40h week.
	scheduleN(t, e, "swamped", models.PriorityUrgent, 12)
	scheduleN(t, e, "idle", models.PriorityLow, 1)

	result, err := e.OptimizeSchedule(context.Background(), StrategyBalanceWorkload, nil)
	require.NoError(t, err)

	require.NotEmpty(t, result.Changes)

	for _, change := range result.Changes {
		assert.Equal(t, "idle", change.NewAssignee)
	}

	moved := float64(len(result.Changes)) * hourEstimate(models.PriorityUrgent)
	assert.GreaterOrEqual(t, moved, 8.0, "enough hours move to clear the overage")
}

func TestBalanceWorkload_SingleAssigneeRecommendsOnly(t *testing.T) {
	e, _ := testEngine()

	scheduleN(t, e, "solo", models.PriorityUrgent, 12)

	result, err := e.OptimizeSchedule(context.Background(), StrategyBalanceWorkload, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Changes)
	assert.NotEmpty(t, result.Recommendations)
}

func TestMinimizeDelays_FlagsInvertedOrder(t *testing.T) {
	e, _ := testEngine()

	soonDue := testNow.Add(6 * 24 * time.Hour)
	lateDue := testNow.Add(10 * 24 * time.Hour)

	soonReq := request("Due soon, starts late", "user-1", testNow.Add(5*24*time.Hour))
	soonReq.DueDate = &soonDue

	soon, err := e.ScheduleTask(soonReq)
	require.NoError(t, err)

	lateReq := request("Due late, starts early", "user-2", testNow.Add(24*time.Hour))
	lateReq.DueDate = &lateDue

	_, err = e.ScheduleTask(lateReq)
	require.NoError(t, err)

	result, err := e.OptimizeSchedule(context.Background(), StrategyMinimizeDelays, nil)
	require.NoError(t, err)

	require.Len(t, result.Changes, 1)
	assert.Equal(t, soon.ID, result.Changes[0].TaskID)
	require.NotNil(t, result.Changes[0].NewScheduledTime)
	assert.Equal(t, testNow.Add(24*time.Hour), *result.Changes[0].NewScheduledTime)
}

func TestMaximizeEfficiency_BatchesSameCaseWork(t *testing.T) {
	e, _ := testEngine()

	_, err := e.ScheduleTask(request("Morning block", "user-1", testNow.Add(24*time.Hour)))
	require.NoError(t, err)

	straggler, err := e.ScheduleTask(request("Afternoon straggler", "user-1", testNow.Add(24*time.Hour+8*time.Hour)))
	require.NoError(t, err)

	result, err := e.OptimizeSchedule(context.Background(), StrategyMaximizeEfficiency, nil)
	require.NoError(t, err)

	require.Len(t, result.Changes, 1)
	assert.Equal(t, straggler.ID, result.Changes[0].TaskID)
}

func TestMeetDeadlines_FlagsNegativeSlack(t *testing.T) {
	e, _ := testEngine()

	tightDue := testNow.Add(time.Hour)
	req := request("Emergency filing", "user-1", testNow.Add(30*time.Minute))
	req.Priority = models.PriorityUrgent
	req.DueDate = &tightDue

	task, err := e.ScheduleTask(req)
	require.NoError(t, err)

	result, err := e.OptimizeSchedule(context.Background(), StrategyMeetDeadlines, nil)
	require.NoError(t, err)

	require.Len(t, result.Changes, 1)
	assert.Equal(t, task.ID, result.Changes[0].TaskID)
}
