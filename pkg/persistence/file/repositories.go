package file

import (
	"context"
	"fmt"
	"slices"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence"
)

type caseRepository struct {
	fp *Persistence
}

func (r *caseRepository) SaveCase(_ context.Context, c *models.Case) error {
	return r.fp.write("cases", c.ID, c)
}

func (r *caseRepository) CaseByID(_ context.Context, id string) (*models.Case, error) {
	var c models.Case

	found, err := r.fp.read("cases", id, &c)
	if err != nil {
		return nil, persistence.NewCaseError("CaseByID", id, err)
	}

	if !found {
		return nil, persistence.NewCaseError("CaseByID", id, persistence.ErrCaseNotFound)
	}

	return &c, nil
}

func (r *caseRepository) Cases(ctx context.Context) ([]*models.Case, error) {
	ids, err := r.fp.ids("cases")
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

func (r *caseRepository) DeleteCase(_ context.Context, id string) error {
	return r.fp.remove("cases", id)
}

type taskRepository struct {
	fp *Persistence
}

func (r *taskRepository) SaveTask(_ context.Context, task *models.ScheduledTask) error {
	return r.fp.write("tasks", task.ID, task)
}

func (r *taskRepository) TaskByID(_ context.Context, id string) (*models.ScheduledTask, error) {
	var task models.ScheduledTask

	found, err := r.fp.read("tasks", id, &task)
	if err != nil {
		return nil, persistence.NewTaskError("TaskByID", id, err)
	}

	if !found {
		return nil, persistence.NewTaskError("TaskByID", id, persistence.ErrTaskNotFound)
	}

	return &task, nil
}

func (r *taskRepository) Tasks(ctx context.Context) ([]*models.ScheduledTask, error) {
	ids, err := r.fp.ids("tasks")
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

func (r *taskRepository) DeleteTask(_ context.Context, id string) error {
	return r.fp.remove("tasks", id)
}

type ruleRepository struct {
	fp *Persistence
}

func (r *ruleRepository) SaveRule(_ context.Context, rule *models.BusinessRule) error {
	return r.fp.write("rules", rule.ID, rule)
}

func (r *ruleRepository) RuleByID(_ context.Context, id string) (*models.BusinessRule, error) {
	var rule models.BusinessRule

	found, err := r.fp.read("rules", id, &rule)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", persistence.ErrRuleNotFound, id)
	}

	return &rule, nil
}

func (r *ruleRepository) Rules(ctx context.Context) ([]*models.BusinessRule, error) {
	ids, err := r.fp.ids("rules")
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

func (r *ruleRepository) DeleteRule(_ context.Context, id string) error {
	return r.fp.remove("rules", id)
}

type templateRepository struct {
	fp *Persistence
}

func (r *templateRepository) SaveTemplate(_ context.Context, tpl *models.TaskTemplate) error {
	return r.fp.write("templates", tpl.ID, tpl)
}

func (r *templateRepository) TemplateByID(_ context.Context, id string) (*models.TaskTemplate, error) {
	var tpl models.TaskTemplate

	found, err := r.fp.read("templates", id, &tpl)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", persistence.ErrTemplateNotFound, id)
	}

	return &tpl, nil
}

func (r *templateRepository) Templates(ctx context.Context) ([]*models.TaskTemplate, error) {
	ids, err := r.fp.ids("templates")
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

func (r *templateRepository) DeleteTemplate(_ context.Context, id string) error {
	return r.fp.remove("templates", id)
}

// auditRepository keeps one JSON array per case.
type auditRepository struct {
	fp *Persistence
}

func (r *auditRepository) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	trail, err := r.AuditTrail(ctx, record.CaseID)
	if err != nil {
		return err
	}

	trail = append(trail, record)

	return r.fp.write("audit", record.CaseID, trail)
}

func (r *auditRepository) AuditTrail(_ context.Context, caseID string) ([]*models.AuditRecord, error) {
	trail := make([]*models.AuditRecord, 0)

	if _, err := r.fp.read("audit", caseID, &trail); err != nil {
		return nil, err
	}

	slices.SortFunc(trail, func(a, b *models.AuditRecord) int {
		return a.At.Compare(b.At)
	})

	return trail, nil
}
