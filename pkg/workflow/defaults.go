package workflow

import "github.com/docket-io/docket/pkg/models"

// defaultTemplates is the built-in template library. Hosts typically load
// additional templates from persistence at startup.
func defaultTemplates() []*models.TaskTemplate {
	return []*models.TaskTemplate{
		{
			ID:                  "criminal-bail-hearing-prep",
			CaseType:            models.CaseTypeCriminalDefense,
			Phase:               models.PhasePreProceedingPreparation,
			TitleTemplate:       "Bail Hearing Preparation",
			DescriptionTemplate: "Prepare bail hearing materials for {case.title}",
			DefaultPriority:     models.PriorityUrgent,
			DefaultAssigneeRole: models.RoleAttorney,
			DueDateOffsetDays:   1,
			AutoCreate:          true,
		},
		{
			ID:                  "criminal-discovery-review",
			CaseType:            models.CaseTypeCriminalDefense,
			Phase:               models.PhasePreProceedingPreparation,
			TitleTemplate:       "Review Discovery Materials",
			DescriptionTemplate: "Catalog and review prosecution discovery for {case.title}",
			DefaultPriority:     models.PriorityHigh,
			DefaultAssigneeRole: models.RoleParalegal,
			DueDateOffsetDays:   7,
			AutoCreate:          true,
		},
		{
			ID:                  "criminal-witness-list",
			CaseType:            models.CaseTypeCriminalDefense,
			Phase:               models.PhaseProceedingActive,
			TitleTemplate:       "Compile Witness List",
			DefaultPriority:     models.PriorityHigh,
			DefaultAssigneeRole: models.RoleParalegal,
			DueDateOffsetDays:   5,
			AutoCreate:          true,
		},
		{
			ID:                  "medmal-records-request",
			CaseType:            models.CaseTypeMedicalMalpractice,
			Phase:               models.PhaseIntakeRiskAssessment,
			TitleTemplate:       "Request Medical Records",
			DescriptionTemplate: "Request complete records from {case.provider}",
			DefaultPriority:     models.PriorityHigh,
			DefaultAssigneeRole: models.RoleLegalAssistant,
			DueDateOffsetDays:   3,
			AutoCreate:          true,
		},
		{
			ID:                  "medmal-expert-review",
			CaseType:            models.CaseTypeMedicalMalpractice,
			Phase:               models.PhasePreProceedingPreparation,
			TitleTemplate:       "Retain Medical Expert",
			DefaultPriority:     models.PriorityUrgent,
			DefaultAssigneeRole: models.RoleAttorney,
			DueDateOffsetDays:   14,
			AutoCreate:          true,
			Conditions: []models.Condition{
				{Field: "case.expert_retained", Operator: models.OpNotExists},
			},
		},
		{
			ID:                  "pi-demand-letter",
			CaseType:            models.CaseTypePersonalInjury,
			Phase:               models.PhaseResolutionNegotiation,
			TitleTemplate:       "Draft Demand Letter",
			DescriptionTemplate: "Draft settlement demand for {case.title}",
			DefaultPriority:     models.PriorityMedium,
			DefaultAssigneeRole: models.RoleAttorney,
			DueDateOffsetDays:   10,
			AutoCreate:          true,
		},
		{
			ID:                  "closure-final-invoice",
			CaseType:            models.CaseTypeCorporate,
			Phase:               models.PhaseClosureArchival,
			TitleTemplate:       "Prepare Final Invoice",
			DefaultPriority:     models.PriorityLow,
			DefaultAssigneeRole: models.RoleLegalAssistant,
			DueDateOffsetDays:   5,
			AutoCreate:          true,
		},
	}
}
