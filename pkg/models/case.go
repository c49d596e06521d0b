// Package models defines the core domain models for legal case and task orchestration.
package models

import "time"

// CaseType classifies the legal matter a case represents.
type CaseType string

const (
	CaseTypePersonalInjury     CaseType = "PERSONAL_INJURY"
	CaseTypeMedicalMalpractice CaseType = "MEDICAL_MALPRACTICE"
	CaseTypeCriminalDefense    CaseType = "CRIMINAL_DEFENSE"
	CaseTypeFamilyLaw          CaseType = "FAMILY_LAW"
	CaseTypeCorporate          CaseType = "CORPORATE"
	CaseTypeEstatePlanning     CaseType = "ESTATE_PLANNING"
)

// CasePhase is the workflow phase a case currently sits in. Phases advance
// only through declared transition edges (see pkg/statemachine).
type CasePhase string

const (
	PhaseIntakeRiskAssessment     CasePhase = "INTAKE_RISK_ASSESSMENT"
	PhasePreProceedingPreparation CasePhase = "PRE_PROCEEDING_PREPARATION"
	PhaseProceedingActive         CasePhase = "PROCEEDING_ACTIVE"
	PhaseResolutionNegotiation    CasePhase = "RESOLUTION_NEGOTIATION"
	PhaseClosureArchival          CasePhase = "CLOSURE_ARCHIVAL"
)

// CaseStatus is the administrative status within a phase.
type CaseStatus string

const (
	CaseStatusOpen          CaseStatus = "OPEN"
	CaseStatusActive        CaseStatus = "ACTIVE"
	CaseStatusPendingReview CaseStatus = "PENDING_REVIEW"
	CaseStatusOnHold        CaseStatus = "ON_HOLD"
	CaseStatusResolved      CaseStatus = "RESOLVED"
	CaseStatusClosed        CaseStatus = "CLOSED"
)

// Role identifies the professional role of an acting user.
type Role string

const (
	RoleIntakeCoordinator   Role = "INTAKE_COORDINATOR"
	RoleLegalAssistant      Role = "LEGAL_ASSISTANT"
	RoleParalegal           Role = "PARALEGAL"
	RoleAttorney            Role = "ATTORNEY"
	RoleSupervisingAttorney Role = "SUPERVISING_ATTORNEY"
	RoleAdmin               Role = "ADMIN"
)

// Case represents the orchestration-relevant state of a legal case.
// Phase and Status are mutated only by a successful transition request.
type Case struct {
	ID        string         `json:"id"         validate:"required"`
	Type      CaseType       `json:"type"       validate:"required"`
	Phase     CasePhase      `json:"phase"      validate:"required"`
	Status    CaseStatus     `json:"status"     validate:"required"`
	Title     string         `json:"title"      validate:"required,min=3"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AllCaseTypes enumerates every declared case type.
func AllCaseTypes() []CaseType {
	return []CaseType{
		CaseTypePersonalInjury,
		CaseTypeMedicalMalpractice,
		CaseTypeCriminalDefense,
		CaseTypeFamilyLaw,
		CaseTypeCorporate,
		CaseTypeEstatePlanning,
	}
}
