package rules

import (
	"errors"
	"fmt"

	"github.com/docket-io/docket/pkg/models"
)

// ErrNoEscalationPath indicates no escalation step is declared for the
// current role at the requested level.
var ErrNoEscalationPath = errors.New("no escalation path")

// EscalationStep is one level in a role's escalation path.
type EscalationStep struct {
	ToRole models.Role `json:"to_role"`

	// Conditions gate this step against the context metadata; all must
	// match for the step to apply.
	Conditions []models.Condition `json:"conditions,omitempty"`

	ApprovalRequired bool `json:"approval_required"`
}

// EscalationTable maps a current assignee role to its ordered escalation
// levels. Level 1 is the first escalation away from the role.
type EscalationTable struct {
	paths map[models.Role][]EscalationStep
}

// NewEscalationTable builds a table from explicit paths.
func NewEscalationTable(paths map[models.Role][]EscalationStep) *EscalationTable {
	return &EscalationTable{paths: paths}
}

// DefaultEscalationTable routes work up the supervision chain:
// assistant -> paralegal -> attorney -> supervising attorney, with
// supervisor approval required on the last hop.
func DefaultEscalationTable() *EscalationTable {
	return NewEscalationTable(map[models.Role][]EscalationStep{
		models.RoleIntakeCoordinator: {
			{ToRole: models.RoleParalegal},
			{ToRole: models.RoleAttorney},
		},
		models.RoleLegalAssistant: {
			{ToRole: models.RoleParalegal},
			{ToRole: models.RoleAttorney},
			{ToRole: models.RoleSupervisingAttorney, ApprovalRequired: true},
		},
		models.RoleParalegal: {
			{ToRole: models.RoleAttorney},
			{ToRole: models.RoleSupervisingAttorney, ApprovalRequired: true},
		},
		models.RoleAttorney: {
			{ToRole: models.RoleSupervisingAttorney, ApprovalRequired: true},
		},
	})
}

// Next resolves the escalation step for a role at the given level (1-based)
// and checks the step's gating conditions against the context metadata.
func (t *EscalationTable) Next(role models.Role, level int, metadata map[string]any) (*EscalationStep, error) {
	steps, ok := t.paths[role]
	if !ok || level < 1 || level > len(steps) {
		return nil, fmt.Errorf("%w: role %s has no level %d", ErrNoEscalationPath, role, level)
	}

	step := steps[level-1]

	for _, cond := range step.Conditions {
		matched, err := evaluateCondition(cond, metadata)
		if err != nil {
			return nil, fmt.Errorf("escalation condition on %s level %d: %w", role, level, err)
		}

		if !matched {
			return nil, fmt.Errorf("%w: conditions for %s level %d not met", ErrNoEscalationPath, role, level)
		}
	}

	return &step, nil
}
