// Package statemachine validates case phase transitions against a declared
// transition table. It is a pure function of configuration and input state;
// it never mutates the case.
package statemachine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/docket-io/docket/pkg/models"
)

var (
	// ErrTransitionNotAllowed indicates no edge exists from the current
	// phase to the target phase for the case type.
	ErrTransitionNotAllowed = errors.New("transition not allowed")

	// ErrPermissionDenied indicates the edge exists but the acting role is
	// not in its allowed set.
	ErrPermissionDenied = errors.New("permission denied")
)

// edge maps a target phase to the roles allowed to take it.
type edge map[models.CasePhase][]models.Role

// transitionTable declares, per case type, the edges out of each phase.
type transitionTable map[models.CaseType]map[models.CasePhase]edge

// Machine validates transitions against a static table.
type Machine struct {
	table        transitionTable
	requirements map[models.CasePhase]map[models.CaseType][]string
}

// New returns a machine configured with the default legal-workflow table.
func New() *Machine {
	return &Machine{
		table:        defaultTable(),
		requirements: defaultRequirements(),
	}
}

// Check validates the transition and returns the sentinel error kind on
// failure: ErrTransitionNotAllowed when no edge is declared,
// ErrPermissionDenied when the edge exists but the role is not permitted.
func (m *Machine) Check(c *models.Case, target models.CasePhase, role models.Role) error {
	phases, ok := m.table[c.Type]
	if !ok {
		return fmt.Errorf("%w: no transitions declared for case type %s", ErrTransitionNotAllowed, c.Type)
	}

	edges, ok := phases[c.Phase]
	if !ok {
		return fmt.Errorf("%w: phase %s is terminal for case type %s", ErrTransitionNotAllowed, c.Phase, c.Type)
	}

	roles, ok := edges[target]
	if !ok {
		return fmt.Errorf("%w: %s -> %s is not declared for case type %s",
			ErrTransitionNotAllowed, c.Phase, target, c.Type)
	}

	if !slices.Contains(roles, role) {
		return fmt.Errorf("%w: role %s may not move %s cases from %s to %s",
			ErrPermissionDenied, role, c.Type, c.Phase, target)
	}

	return nil
}

// CanTransition wraps Check into the structured result callers render.
func (m *Machine) CanTransition(c *models.Case, target models.CasePhase, role models.Role) models.TransitionResult {
	if err := m.Check(c, target, role); err != nil {
		return models.TransitionResult{Success: false, Errors: []string{err.Error()}}
	}

	result := models.TransitionResult{Success: true}

	if missing := m.missingRequirements(c, target); len(missing) > 0 {
		for _, field := range missing {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("requirement %q not present in case metadata", field))
		}
	}

	return result
}

// AvailableTransitions lists every target phase reachable from the case's
// current phase for which the role is permitted.
func (m *Machine) AvailableTransitions(c *models.Case, role models.Role) []models.CasePhase {
	targets := make([]models.CasePhase, 0)

	edges, ok := m.table[c.Type][c.Phase]
	if !ok {
		return targets
	}

	for target, roles := range edges {
		if slices.Contains(roles, role) {
			targets = append(targets, target)
		}
	}

	slices.Sort(targets)

	return targets
}

// PhaseRequirements returns the declarative prerequisite fields for entering
// a phase. Validation of the fields happens outside this core.
func (m *Machine) PhaseRequirements(phase models.CasePhase, caseType models.CaseType) []string {
	byType, ok := m.requirements[phase]
	if !ok {
		return nil
	}

	if fields, ok := byType[caseType]; ok {
		return fields
	}

	return byType[anyCaseType]
}

func (m *Machine) missingRequirements(c *models.Case, target models.CasePhase) []string {
	var missing []string

	for _, field := range m.PhaseRequirements(target, c.Type) {
		if _, ok := c.Metadata[field]; !ok {
			missing = append(missing, field)
		}
	}

	return missing
}
