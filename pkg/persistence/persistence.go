// Package persistence provides the data storage abstraction for cases,
// scheduled tasks, business rules, task templates and audit records.
package persistence

import (
	"context"

	"github.com/docket-io/docket/pkg/models"
)

// CaseRepository stores legal cases.
type CaseRepository interface {
	SaveCase(ctx context.Context, c *models.Case) error
	CaseByID(ctx context.Context, id string) (*models.Case, error)
	Cases(ctx context.Context) ([]*models.Case, error)
	DeleteCase(ctx context.Context, id string) error
}

// TaskRepository stores scheduled tasks.
type TaskRepository interface {
	SaveTask(ctx context.Context, task *models.ScheduledTask) error
	TaskByID(ctx context.Context, id string) (*models.ScheduledTask, error)
	TasksByCase(ctx context.Context, caseID string) ([]*models.ScheduledTask, error)
	Tasks(ctx context.Context) ([]*models.ScheduledTask, error)
	DeleteTask(ctx context.Context, id string) error
}

// RuleRepository stores business rules.
type RuleRepository interface {
	SaveRule(ctx context.Context, rule *models.BusinessRule) error
	RuleByID(ctx context.Context, id string) (*models.BusinessRule, error)
	Rules(ctx context.Context) ([]*models.BusinessRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// TemplateRepository stores task templates.
type TemplateRepository interface {
	SaveTemplate(ctx context.Context, tpl *models.TaskTemplate) error
	TemplateByID(ctx context.Context, id string) (*models.TaskTemplate, error)
	Templates(ctx context.Context) ([]*models.TaskTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// AuditRepository stores the append-only audit trail.
type AuditRepository interface {
	AppendAudit(ctx context.Context, record *models.AuditRecord) error
	AuditTrail(ctx context.Context, caseID string) ([]*models.AuditRecord, error)
}

// Persistence bundles the repositories behind one backend.
type Persistence interface {
	CaseRepository() CaseRepository
	TaskRepository() TaskRepository
	RuleRepository() RuleRepository
	TemplateRepository() TemplateRepository
	AuditRepository() AuditRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
