package statemachine

import "github.com/docket-io/docket/pkg/models"

// anyCaseType keys requirements shared by all case types.
const anyCaseType = models.CaseType("*")

var (
	attorneyUp  = []models.Role{models.RoleAttorney, models.RoleSupervisingAttorney, models.RoleAdmin}
	paralegalUp = []models.Role{models.RoleParalegal, models.RoleAttorney, models.RoleSupervisingAttorney, models.RoleAdmin}
	intakeUp    = []models.Role{models.RoleIntakeCoordinator, models.RoleParalegal, models.RoleAttorney, models.RoleSupervisingAttorney, models.RoleAdmin}
	supervisors = []models.Role{models.RoleSupervisingAttorney, models.RoleAdmin}
)

// defaultTable declares the legal workflow edges per case type. The linear
// spine is intake -> preparation -> proceedings -> resolution -> closure,
// with a back edge from resolution to proceedings where negotiation fails
// and a supervisor-gated reopen edge out of closure.
func defaultTable() transitionTable {
	table := make(transitionTable, 6)

	for _, caseType := range models.AllCaseTypes() {
		table[caseType] = map[models.CasePhase]edge{
			models.PhaseIntakeRiskAssessment: {
				models.PhasePreProceedingPreparation: attorneyUp,
				models.PhaseClosureArchival:          supervisors,
			},
			models.PhasePreProceedingPreparation: {
				models.PhaseProceedingActive:     attorneyUp,
				models.PhaseIntakeRiskAssessment: supervisors,
			},
			models.PhaseProceedingActive: {
				models.PhaseResolutionNegotiation: attorneyUp,
			},
			models.PhaseResolutionNegotiation: {
				models.PhaseProceedingActive: attorneyUp,
				models.PhaseClosureArchival:  paralegalUp,
			},
			models.PhaseClosureArchival: {
				models.PhaseResolutionNegotiation: supervisors,
			},
		}
	}

	// Estate planning and corporate matters rarely reach a proceeding;
	// paralegals may advance them through preparation.
	for _, caseType := range []models.CaseType{models.CaseTypeCorporate, models.CaseTypeEstatePlanning} {
		table[caseType][models.PhaseIntakeRiskAssessment][models.PhasePreProceedingPreparation] = paralegalUp
		table[caseType][models.PhasePreProceedingPreparation][models.PhaseResolutionNegotiation] = paralegalUp
	}

	// Intake coordinators open the pipeline for personal injury matters.
	table[models.CaseTypePersonalInjury][models.PhaseIntakeRiskAssessment][models.PhasePreProceedingPreparation] = intakeUp

	return table
}

// defaultRequirements lists the metadata fields expected before a case
// enters a phase. Consumed by validators outside this package.
func defaultRequirements() map[models.CasePhase]map[models.CaseType][]string {
	return map[models.CasePhase]map[models.CaseType][]string{
		models.PhasePreProceedingPreparation: {
			anyCaseType:                       {"client_agreement_signed", "conflict_check_cleared"},
			models.CaseTypeCriminalDefense:    {"client_agreement_signed", "conflict_check_cleared", "charges_documented", "bail_status"},
			models.CaseTypeMedicalMalpractice: {"client_agreement_signed", "conflict_check_cleared", "medical_records_requested"},
		},
		models.PhaseProceedingActive: {
			anyCaseType: {"filing_confirmed", "opposing_counsel"},
		},
		models.PhaseResolutionNegotiation: {
			anyCaseType: {"settlement_authority"},
		},
		models.PhaseClosureArchival: {
			anyCaseType: {"outstanding_balance_cleared", "client_notified"},
		},
	}
}
