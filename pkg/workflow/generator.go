// Package workflow generates candidate tasks from templates when a case
// enters a new phase. Generated tasks are intentions; scheduling and
// persistence happen downstream.
package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
	"github.com/docket-io/docket/pkg/rules"
	"github.com/docket-io/docket/pkg/template"
)

var (
	// ErrTemplateNotFound indicates no template is registered under the id.
	ErrTemplateNotFound = errors.New("task template not found")

	// ErrTemplateAlreadyExists indicates a template id collision. Templates
	// are immutable once registered; changes go through a new id.
	ErrTemplateAlreadyExists = errors.New("task template already exists")
)

// Generator owns the task template registry.
type Generator struct {
	logger   *slog.Logger
	clock    protocol.Clock
	validate *validator.Validate

	mu        sync.RWMutex
	templates map[string]*models.TaskTemplate
}

// NewGenerator creates a generator preloaded with the default template set.
func NewGenerator(logger *slog.Logger, clock protocol.Clock) *Generator {
	g := &Generator{
		logger:    logger.With("module", "workflow_generator"),
		clock:     clock,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		templates: make(map[string]*models.TaskTemplate),
	}

	for _, tpl := range defaultTemplates() {
		// Defaults are declared in code; registration cannot collide.
		_ = g.AddTemplate(tpl)
	}

	return g
}

// AddTemplate validates and registers a template.
func (g *Generator) AddTemplate(tpl *models.TaskTemplate) error {
	if err := g.validate.Struct(tpl); err != nil {
		return fmt.Errorf("invalid template %s: %w", tpl.ID, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.templates[tpl.ID]; exists {
		return fmt.Errorf("%w: %s", ErrTemplateAlreadyExists, tpl.ID)
	}

	g.templates[tpl.ID] = tpl

	return nil
}

// Template returns a registered template by id.
func (g *Generator) Template(id string) (*models.TaskTemplate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	tpl, ok := g.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	return tpl, nil
}

// GenerateTasks emits one candidate task per template whose (caseType,
// phase) matches the context, autoCreate is set, and conditions pass.
// Title and description tokens interpolate against the context metadata;
// unresolved tokens stay verbatim.
func (g *Generator) GenerateTasks(wctx models.WorkflowContext, caseType models.CaseType, phase models.CasePhase) []models.CreatedTask {
	g.mu.RLock()
	candidates := make([]*models.TaskTemplate, 0)

	for _, tpl := range g.templates {
		if tpl.CaseType == caseType && tpl.Phase == phase && tpl.AutoCreate {
			candidates = append(candidates, tpl)
		}
	}
	g.mu.RUnlock()

	created := make([]models.CreatedTask, 0, len(candidates))

	for _, tpl := range candidates {
		if !rules.MatchConditions(tpl.Conditions, wctx.Metadata) {
			continue
		}

		task := models.CreatedTask{
			ID:           uuid.NewString(),
			CaseID:       wctx.CaseID,
			Title:        template.Interpolate(tpl.TitleTemplate, wctx.Metadata),
			Description:  template.Interpolate(tpl.DescriptionTemplate, wctx.Metadata),
			Priority:     tpl.DefaultPriority,
			AssignedTo:   wctx.UserID, // provisional; reassignment happens downstream
			AssigneeRole: tpl.DefaultAssigneeRole,
			TemplateID:   tpl.ID,
			Metadata: map[string]any{
				"generated_by": "template",
				"phase":        string(phase),
			},
		}

		if tpl.DueDateOffsetDays > 0 {
			due := wctx.Timestamp.AddDate(0, 0, tpl.DueDateOffsetDays)
			task.DueDate = &due
		}

		created = append(created, task)

		g.logger.Debug("Generated task from template",
			"template_id", tpl.ID,
			"case_id", wctx.CaseID,
			"title", task.Title)
	}

	return created
}

// Notifications builds the phase-entry notification payloads for the tasks
// just generated.
func (g *Generator) Notifications(wctx models.WorkflowContext, created []models.CreatedTask) []models.NotificationRequest {
	if len(created) == 0 {
		return nil
	}

	notifications := make([]models.NotificationRequest, 0, len(created))

	for _, task := range created {
		urgency := models.UrgencyNormal
		if task.Priority == models.PriorityUrgent {
			urgency = models.UrgencyCritical
		}

		notifications = append(notifications, models.NotificationRequest{
			Type:       models.NotificationInApp,
			Recipients: []string{"assignee"},
			Template:   "task_assigned",
			Urgency:    urgency,
			Data: map[string]any{
				"case_id":    wctx.CaseID,
				"task_title": task.Title,
				"due_date":   formatDue(task.DueDate),
			},
		})
	}

	return notifications
}

func formatDue(due *time.Time) string {
	if due == nil {
		return ""
	}

	return due.Format(time.RFC3339)
}
