// Package postgresql provides PostgreSQL persistence for cases, tasks,
// rules, templates and the audit trail.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/docket-io/docket/pkg/persistence"
	"github.com/docket-io/docket/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence connects, runs migrations and returns the persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{db: database, logger: logger}, nil
}

func (p *Persistence) CaseRepository() persistence.CaseRepository {
	return &caseRepository{db: p.db}
}

func (p *Persistence) TaskRepository() persistence.TaskRepository {
	return &taskRepository{db: p.db}
}

func (p *Persistence) RuleRepository() persistence.RuleRepository {
	return &ruleRepository{db: p.db}
}

func (p *Persistence) TemplateRepository() persistence.TemplateRepository {
	return &templateRepository{db: p.db}
}

func (p *Persistence) AuditRepository() persistence.AuditRepository {
	return &auditRepository{db: p.db}
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
