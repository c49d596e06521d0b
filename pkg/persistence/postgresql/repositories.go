package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence"
)

type caseRepository struct {
	db *sql.DB
}

func (r *caseRepository) SaveCase(ctx context.Context, c *models.Case) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return persistence.NewCaseError("SaveCase", c.ID, err)
	}

	query := `
		INSERT INTO cases (id, type, phase, status, title, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			phase = EXCLUDED.phase,
			status = EXCLUDED.status,
			title = EXCLUDED.title,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Type, c.Phase, c.Status, c.Title, metadata, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return persistence.NewCaseError("SaveCase", c.ID, err)
	}

	return nil
}

func (r *caseRepository) CaseByID(ctx context.Context, id string) (*models.Case, error) {
	query := `
		SELECT id, type, phase, status, title, metadata, created_at, updated_at
		FROM cases WHERE id = $1
	`

	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewCaseError("CaseByID", id, persistence.ErrCaseNotFound)
	}

	if err != nil {
		return nil, persistence.NewCaseError("CaseByID", id, err)
	}

	return c, nil
}

func (r *caseRepository) Cases(ctx context.Context) ([]*models.Case, error) {
	query := `
		SELECT id, type, phase, status, title, metadata, created_at, updated_at
		FROM cases ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Case, 0)

	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *caseRepository) DeleteCase(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cases WHERE id = $1", id); err != nil {
		return persistence.NewCaseError("DeleteCase", id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c        models.Case
		metadata []byte
	)

	err := row.Scan(&c.ID, &c.Type, &c.Phase, &c.Status, &c.Title, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal case metadata: %w", err)
		}
	}

	return &c, nil
}

type taskRepository struct {
	db *sql.DB
}

func (r *taskRepository) SaveTask(ctx context.Context, task *models.ScheduledTask) error {
	recurrence, err := json.Marshal(task.Recurrence)
	if err != nil {
		return persistence.NewTaskError("SaveTask", task.ID, err)
	}

	reminders, err := json.Marshal(task.Reminders)
	if err != nil {
		return persistence.NewTaskError("SaveTask", task.ID, err)
	}

	dependencies, err := json.Marshal(task.Dependencies)
	if err != nil {
		return persistence.NewTaskError("SaveTask", task.ID, err)
	}

	metadata, err := json.Marshal(task.Metadata)
	if err != nil {
		return persistence.NewTaskError("SaveTask", task.ID, err)
	}

	query := `
		INSERT INTO scheduled_tasks (
			id, task_id, case_id, title, description, scheduled_time, due_date,
			priority, status, assigned_to, assigned_by, recurrence, reminders,
			dependencies, metadata, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			scheduled_time = EXCLUDED.scheduled_time,
			due_date = EXCLUDED.due_date,
			priority = EXCLUDED.priority,
			status = EXCLUDED.status,
			assigned_to = EXCLUDED.assigned_to,
			recurrence = EXCLUDED.recurrence,
			reminders = EXCLUDED.reminders,
			dependencies = EXCLUDED.dependencies,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		task.ID, task.TaskID, task.CaseID, task.Title, task.Description,
		task.ScheduledTime, task.DueDate, task.Priority, task.Status,
		task.AssignedTo, task.AssignedBy, recurrence, reminders,
		dependencies, metadata, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return persistence.NewTaskError("SaveTask", task.ID, err)
	}

	return nil
}

const taskColumns = `
	id, task_id, case_id, title, description, scheduled_time, due_date,
	priority, status, assigned_to, assigned_by, recurrence, reminders,
	dependencies, metadata, created_at, updated_at
`

func (r *taskRepository) TaskByID(ctx context.Context, id string) (*models.ScheduledTask, error) {
	query := "SELECT " + taskColumns + " FROM scheduled_tasks WHERE id = $1"

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewTaskError("TaskByID", id, persistence.ErrTaskNotFound)
	}

	if err != nil {
		return nil, persistence.NewTaskError("TaskByID", id, err)
	}

	return task, nil
}

func (r *taskRepository) Tasks(ctx context.Context) ([]*models.ScheduledTask, error) {
	query := "SELECT " + taskColumns + " FROM scheduled_tasks ORDER BY scheduled_time"

	return r.queryTasks(ctx, query)
}

func (r *taskRepository) TasksByCase(ctx context.Context, caseID string) ([]*models.ScheduledTask, error) {
	query := "SELECT " + taskColumns + " FROM scheduled_tasks WHERE case_id = $1 ORDER BY scheduled_time"

	return r.queryTasks(ctx, query, caseID)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.ScheduledTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled tasks: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ScheduledTask, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled task: %w", err)
		}

		out = append(out, task)
	}

	return out, rows.Err()
}

func (r *taskRepository) DeleteTask(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scheduled_tasks WHERE id = $1", id); err != nil {
		return persistence.NewTaskError("DeleteTask", id, err)
	}

	return nil
}

func scanTask(row rowScanner) (*models.ScheduledTask, error) {
	var (
		task         models.ScheduledTask
		assignedBy   sql.NullString
		description  sql.NullString
		recurrence   []byte
		reminders    []byte
		dependencies []byte
		metadata     []byte
	)

	err := row.Scan(&task.ID, &task.TaskID, &task.CaseID, &task.Title, &description,
		&task.ScheduledTime, &task.DueDate, &task.Priority, &task.Status,
		&task.AssignedTo, &assignedBy, &recurrence, &reminders,
		&dependencies, &metadata, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.AssignedBy = assignedBy.String

	for _, field := range []struct {
		data []byte
		into any
	}{
		{recurrence, &task.Recurrence},
		{reminders, &task.Reminders},
		{dependencies, &task.Dependencies},
		{metadata, &task.Metadata},
	} {
		if len(field.data) == 0 || string(field.data) == "null" {
			continue
		}

		if err := json.Unmarshal(field.data, field.into); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task field: %w", err)
		}
	}

	return &task, nil
}

// ruleRepository stores each rule as one JSONB document.
type ruleRepository struct {
	db *sql.DB
}

func (r *ruleRepository) SaveRule(ctx context.Context, rule *models.BusinessRule) error {
	return saveDocument(ctx, r.db, "rules", rule.ID, rule)
}

func (r *ruleRepository) RuleByID(ctx context.Context, id string) (*models.BusinessRule, error) {
	var rule models.BusinessRule

	if err := loadDocument(ctx, r.db, "rules", id, &rule, persistence.ErrRuleNotFound); err != nil {
		return nil, err
	}

	return &rule, nil
}

func (r *ruleRepository) Rules(ctx context.Context) ([]*models.BusinessRule, error) {
	docs, err := listDocuments(ctx, r.db, "rules")
	if err != nil {
		return nil, err
	}

	out := make([]*models.BusinessRule, 0, len(docs))

	for _, doc := range docs {
		var rule models.BusinessRule

		if err := json.Unmarshal(doc, &rule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule document: %w", err)
		}

		out = append(out, &rule)
	}

	return out, nil
}

func (r *ruleRepository) DeleteRule(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM rules WHERE id = $1", id)

	return err
}

// templateRepository stores each template as one JSONB document.
type templateRepository struct {
	db *sql.DB
}

func (r *templateRepository) SaveTemplate(ctx context.Context, tpl *models.TaskTemplate) error {
	return saveDocument(ctx, r.db, "templates", tpl.ID, tpl)
}

func (r *templateRepository) TemplateByID(ctx context.Context, id string) (*models.TaskTemplate, error) {
	var tpl models.TaskTemplate

	if err := loadDocument(ctx, r.db, "templates", id, &tpl, persistence.ErrTemplateNotFound); err != nil {
		return nil, err
	}

	return &tpl, nil
}

func (r *templateRepository) Templates(ctx context.Context) ([]*models.TaskTemplate, error) {
	docs, err := listDocuments(ctx, r.db, "templates")
	if err != nil {
		return nil, err
	}

	out := make([]*models.TaskTemplate, 0, len(docs))

	for _, doc := range docs {
		var tpl models.TaskTemplate

		if err := json.Unmarshal(doc, &tpl); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template document: %w", err)
		}

		out = append(out, &tpl)
	}

	return out, nil
}

func (r *templateRepository) DeleteTemplate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE id = $1", id)

	return err
}

func saveDocument(ctx context.Context, db *sql.DB, table, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document %s: %w", table, id, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`, table)

	if _, err := db.ExecContext(ctx, query, id, doc); err != nil {
		return fmt.Errorf("failed to save %s document %s: %w", table, id, err)
	}

	return nil
}

func loadDocument(ctx context.Context, db *sql.DB, table, id string, v any, notFound error) error {
	var doc []byte

	query := fmt.Sprintf("SELECT document FROM %s WHERE id = $1", table)

	err := db.QueryRowContext(ctx, query, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", notFound, id)
	}

	if err != nil {
		return fmt.Errorf("failed to load %s document %s: %w", table, id, err)
	}

	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s document %s: %w", table, id, err)
	}

	return nil
}

func listDocuments(ctx context.Context, db *sql.DB, table string) ([][]byte, error) {
	query := fmt.Sprintf("SELECT document FROM %s ORDER BY id", table)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", table, err)
	}
	defer rows.Close()

	out := make([][]byte, 0)

	for rows.Next() {
		var doc []byte

		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", table, err)
		}

		out = append(out, doc)
	}

	return out, rows.Err()
}

type auditRepository struct {
	db *sql.DB
}

func (r *auditRepository) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	query := `
		INSERT INTO audit_records (id, case_id, task_id, actor, action, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.CaseID, record.TaskID, record.Actor, record.Action, record.Detail, record.At)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

func (r *auditRepository) AuditTrail(ctx context.Context, caseID string) ([]*models.AuditRecord, error) {
	query := `
		SELECT id, case_id, task_id, actor, action, detail, at
		FROM audit_records WHERE case_id = $1 ORDER BY at
	`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AuditRecord, 0)

	for rows.Next() {
		var (
			record models.AuditRecord
			taskID sql.NullString
			actor  sql.NullString
			detail sql.NullString
		)

		err := rows.Scan(&record.ID, &record.CaseID, &taskID, &actor, &record.Action, &detail, &record.At)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		record.TaskID = taskID.String
		record.Actor = actor.String
		record.Detail = detail.String

		out = append(out, &record)
	}

	return out, rows.Err()
}
