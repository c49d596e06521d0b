package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
)

func criminalCase(phase models.CasePhase) *models.Case {
	return &models.Case{
		ID:     "case-1",
		Type:   models.CaseTypeCriminalDefense,
		Phase:  phase,
		Status: models.CaseStatusActive,
	}
}

func TestCheck_DeclaredEdgeWithPermittedRole(t *testing.T) {
	m := New()

	err := m.Check(criminalCase(models.PhaseIntakeRiskAssessment), models.PhasePreProceedingPreparation, models.RoleAttorney)
	assert.NoError(t, err)
}

func TestCheck_UndeclaredEdge(t *testing.T) {
	m := New()

	err := m.Check(criminalCase(models.PhaseIntakeRiskAssessment), models.PhaseResolutionNegotiation, models.RoleAttorney)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestCheck_DeclaredEdgeWithForbiddenRole(t *testing.T) {
	m := New()

	// The edge exists, so the failure must be a permission error, not a
	// missing-edge error.
	err := m.Check(criminalCase(models.PhaseIntakeRiskAssessment), models.PhasePreProceedingPreparation, models.RoleLegalAssistant)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestCheck_EveryDeclaredEdgeIsRoleGated(t *testing.T) {
	m := New()

	for caseType, phases := range m.table {
		for from, edges := range phases {
			for target, roles := range edges {
				require.NotEmpty(t, roles, "%s %s->%s has no allowed roles", caseType, from, target)

				c := &models.Case{ID: "c", Type: caseType, Phase: from, Status: models.CaseStatusActive}

				for _, role := range roles {
					assert.NoError(t, m.Check(c, target, role))
				}
			}
		}
	}
}

func TestCanTransition_WarnsOnMissingRequirements(t *testing.T) {
	m := New()

	c := criminalCase(models.PhaseIntakeRiskAssessment)
	c.Metadata = map[string]any{"client_agreement_signed": true}

	result := m.CanTransition(c, models.PhasePreProceedingPreparation, models.RoleAttorney)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Warnings, "absent requirement fields should surface as warnings")
}

func TestAvailableTransitions_FiltersByRole(t *testing.T) {
	m := New()

	c := criminalCase(models.PhaseIntakeRiskAssessment)

	attorney := m.AvailableTransitions(c, models.RoleAttorney)
	assert.Equal(t, []models.CasePhase{models.PhasePreProceedingPreparation}, attorney)

	supervisor := m.AvailableTransitions(c, models.RoleSupervisingAttorney)
	assert.Len(t, supervisor, 2, "supervisors may also close out of intake")

	assistant := m.AvailableTransitions(c, models.RoleLegalAssistant)
	assert.Empty(t, assistant)
}

func TestPhaseRequirements_TypeSpecificOverridesShared(t *testing.T) {
	m := New()

	criminal := m.PhaseRequirements(models.PhasePreProceedingPreparation, models.CaseTypeCriminalDefense)
	assert.Contains(t, criminal, "bail_status")

	family := m.PhaseRequirements(models.PhasePreProceedingPreparation, models.CaseTypeFamilyLaw)
	assert.Equal(t, []string{"client_agreement_signed", "conflict_check_cleared"}, family)
}
