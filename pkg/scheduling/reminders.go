package scheduling

import (
	"github.com/docket-io/docket/pkg/models"
)

// reminderPlan holds the reminder sets attached to tasks at creation time,
// keyed by priority tier. Deadline reminders are appended only for tasks
// that carry a due date.
type reminderPlan struct {
	byTier   map[models.TaskPriority][]models.Reminder
	deadline []models.Reminder
}

func defaultReminderPlan() *reminderPlan {
	return &reminderPlan{
		byTier: map[models.TaskPriority][]models.Reminder{
			models.PriorityUrgent: {
				{
					Type:              models.ReminderInApp,
					TimeOffsetMinutes: -60,
					Recipients:        []string{"assignee", "supervisor"},
					Message:           "Urgent task starts in 1 hour",
				},
				{
					Type:              models.ReminderEmail,
					TimeOffsetMinutes: -24 * 60,
					Recipients:        []string{"assignee"},
					Message:           "Urgent task scheduled for tomorrow",
				},
				{
					Type:              models.ReminderSMS,
					TimeOffsetMinutes: -15,
					Recipients:        []string{"assignee"},
					Message:           "Urgent task starts in 15 minutes",
				},
			},
			models.PriorityHigh: {
				{
					Type:              models.ReminderInApp,
					TimeOffsetMinutes: -2 * 60,
					Recipients:        []string{"assignee"},
					Message:           "High priority task starts in 2 hours",
				},
				{
					Type:              models.ReminderEmail,
					TimeOffsetMinutes: -24 * 60,
					Recipients:        []string{"assignee"},
					Message:           "High priority task scheduled for tomorrow",
				},
			},
			models.PriorityMedium: {
				{
					Type:              models.ReminderInApp,
					TimeOffsetMinutes: -24 * 60,
					Recipients:        []string{"assignee"},
					Message:           "Task scheduled for tomorrow",
				},
			},
		},
		deadline: []models.Reminder{
			{
				Type:              models.ReminderEmail,
				TimeOffsetMinutes: -48 * 60,
				Recipients:        []string{"assignee", "case_attorney"},
				Message:           "Deadline in 2 days",
			},
		},
	}
}

// forPriority builds the reminder settings for one task. LOW priority tasks
// get no tier reminders; a due date still earns the deadline set.
func (p *reminderPlan) forPriority(tier models.TaskPriority, hasDueDate bool) *models.ReminderSettings {
	reminders := make([]models.Reminder, 0)
	reminders = append(reminders, p.byTier[tier]...)

	if hasDueDate {
		reminders = append(reminders, p.deadline...)
	}

	if len(reminders) == 0 {
		return &models.ReminderSettings{Enabled: false}
	}

	return &models.ReminderSettings{Enabled: true, Reminders: reminders}
}
