package redis

import (
	"context"
	"fmt"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence"
)

type caseRepository struct {
	rp *Persistence
}

func (r *caseRepository) SaveCase(ctx context.Context, c *models.Case) error {
	return r.rp.set(ctx, "cases", c.ID, c)
}

func (r *caseRepository) CaseByID(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case

	found, err := r.rp.get(ctx, "cases", id, &c)
	if err != nil {
		return nil, persistence.NewCaseError("CaseByID", id, err)
	}

	if !found {
		return nil, persistence.NewCaseError("CaseByID", id, persistence.ErrCaseNotFound)
	}

	return &c, nil
}

func (r *caseRepository) Cases(ctx context.Context) ([]*models.Case, error) {
	ids, err := r.rp.scan(ctx, "cases")
	if err != nil {
		return nil, err
	}

	out := make([]*models.Case, 0, len(ids))

	for _, id := range ids {
		c, err := r.CaseByID(ctx, id)
		if err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, nil
}

func (r *caseRepository) DeleteCase(ctx context.Context, id string) error {
	return r.rp.del(ctx, "cases", id)
}

type taskRepository struct {
	rp *Persistence
}

func (r *taskRepository) SaveTask(ctx context.Context, task *models.ScheduledTask) error {
	return r.rp.set(ctx, "tasks", task.ID, task)
}

func (r *taskRepository) TaskByID(ctx context.Context, id string) (*models.ScheduledTask, error) {
	var task models.ScheduledTask

	found, err := r.rp.get(ctx, "tasks", id, &task)
	if err != nil {
		return nil, persistence.NewTaskError("TaskByID", id, err)
	}

	if !found {
		return nil, persistence.NewTaskError("TaskByID", id, persistence.ErrTaskNotFound)
	}

	return &task, nil
}

func (r *taskRepository) Tasks(ctx context.Context) ([]*models.ScheduledTask, error) {
	ids, err := r.rp.scan(ctx, "tasks")
	if err != nil {
		return nil, err
	}

	out := make([]*models.ScheduledTask, 0, len(ids))

	for _, id := range ids {
		task, err := r.TaskByID(ctx, id)
		if err != nil {
			return nil, err
		}

		out = append(out, task)
	}

	return out, nil
}

func (r *taskRepository) TasksByCase(ctx context.Context, caseID string) ([]*models.ScheduledTask, error) {
	all, err := r.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.ScheduledTask, 0)

	for _, task := range all {
		if task.CaseID == caseID {
			out = append(out, task)
		}
	}

	return out, nil
}

func (r *taskRepository) DeleteTask(ctx context.Context, id string) error {
	return r.rp.del(ctx, "tasks", id)
}

type ruleRepository struct {
	rp *Persistence
}

func (r *ruleRepository) SaveRule(ctx context.Context, rule *models.BusinessRule) error {
	return r.rp.set(ctx, "rules", rule.ID, rule)
}

func (r *ruleRepository) RuleByID(ctx context.Context, id string) (*models.BusinessRule, error) {
	var rule models.BusinessRule

	found, err := r.rp.get(ctx, "rules", id, &rule)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", persistence.ErrRuleNotFound, id)
	}

	return &rule, nil
}

func (r *ruleRepository) Rules(ctx context.Context) ([]*models.BusinessRule, error) {
	ids, err := r.rp.scan(ctx, "rules")
	if err != nil {
		return nil, err
	}

	out := make([]*models.BusinessRule, 0, len(ids))

	for _, id := range ids {
		rule, err := r.RuleByID(ctx, id)
		if err != nil {
			return nil, err
		}

		out = append(out, rule)
	}

	return out, nil
}

func (r *ruleRepository) DeleteRule(ctx context.Context, id string) error {
	return r.rp.del(ctx, "rules", id)
}

type templateRepository struct {
	rp *Persistence
}

func (r *templateRepository) SaveTemplate(ctx context.Context, tpl *models.TaskTemplate) error {
	return r.rp.set(ctx, "templates", tpl.ID, tpl)
}

func (r *templateRepository) TemplateByID(ctx context.Context, id string) (*models.TaskTemplate, error) {
	var tpl models.TaskTemplate

	found, err := r.rp.get(ctx, "templates", id, &tpl)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", persistence.ErrTemplateNotFound, id)
	}

	return &tpl, nil
}

func (r *templateRepository) Templates(ctx context.Context) ([]*models.TaskTemplate, error) {
	ids, err := r.rp.scan(ctx, "templates")
	if err != nil {
		return nil, err
	}

	out := make([]*models.TaskTemplate, 0, len(ids))

	for _, id := range ids {
		tpl, err := r.TemplateByID(ctx, id)
		if err != nil {
			return nil, err
		}

		out = append(out, tpl)
	}

	return out, nil
}

func (r *templateRepository) DeleteTemplate(ctx context.Context, id string) error {
	return r.rp.del(ctx, "templates", id)
}
