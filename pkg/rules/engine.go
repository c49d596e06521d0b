// Package rules evaluates weighted business rules against a workflow context
// and computes the action intents of matching rules. The engine owns the rule
// registry for the process lifetime; durability is the persistence port's
// concern.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/protocol"
)

var (
	// ErrRuleNotFound indicates no rule is registered under the given id.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrRuleAlreadyExists indicates a rule id collision on registration.
	ErrRuleAlreadyExists = errors.New("rule already exists")
)

// maxActionsPerRule bounds the work one rule match can fan out into.
const maxActionsPerRule = 25

// Engine is the business rule engine. Rules are read-mostly; statistics
// counters are incremented atomically so concurrent evaluations never lose
// updates.
type Engine struct {
	logger      *slog.Logger
	clock       protocol.Clock
	validate    *validator.Validate
	escalations *EscalationTable

	mu    sync.RWMutex
	rules map[string]*models.BusinessRule

	// lastTriggeredMu guards the non-atomic LastTriggered timestamps.
	lastTriggeredMu sync.Mutex
}

// NewEngine creates a rule engine with the default escalation table.
func NewEngine(logger *slog.Logger, clock protocol.Clock) *Engine {
	return &Engine{
		logger:      logger.With("module", "rule_engine"),
		clock:       clock,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		escalations: DefaultEscalationTable(),
		rules:       make(map[string]*models.BusinessRule),
	}
}

// AddRule validates and registers a rule. Action kinds and parameters are
// checked here so evaluation never sees an invalid tag.
func (e *Engine) AddRule(rule *models.BusinessRule) error {
	if err := e.validate.Struct(rule); err != nil {
		return fmt.Errorf("invalid rule %s: %w", rule.ID, err)
	}

	if len(rule.Actions) > maxActionsPerRule {
		return fmt.Errorf("invalid rule %s: %d actions exceeds the limit of %d",
			rule.ID, len(rule.Actions), maxActionsPerRule)
	}

	for _, action := range rule.Actions {
		if !action.Kind.IsValid() {
			return fmt.Errorf("invalid rule %s: %w", rule.ID, models.ErrUnknownActionKind{Kind: action.Kind})
		}

		if err := ValidateActionParameters(action); err != nil {
			return fmt.Errorf("invalid rule %s action %s: %w", rule.ID, action.ID, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrRuleAlreadyExists, rule.ID)
	}

	now := e.clock.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	e.rules[rule.ID] = rule

	e.logger.Info("Registered business rule", "rule_id", rule.ID, "category", rule.Category, "priority", rule.Priority)

	return nil
}

// Rule returns the registered rule by id.
func (e *Engine) Rule(id string) (*models.BusinessRule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rule, ok := e.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	return rule, nil
}

// SetActive activates or deactivates a rule.
func (e *Engine) SetActive(id string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule, ok := e.rules[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	rule.IsActive = active
	rule.UpdatedAt = e.clock.Now()

	return nil
}

// RemoveRule unregisters a rule.
func (e *Engine) RemoveRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.rules[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	delete(e.rules, id)

	return nil
}

// ResetStats zeroes the counters of a rule. Counters are never reset any
// other way.
func (e *Engine) ResetStats(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule, ok := e.rules[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	atomic.StoreInt64(&rule.Stats.TriggerCount, 0)
	atomic.StoreInt64(&rule.Stats.SuccessCount, 0)
	atomic.StoreInt64(&rule.Stats.FailureCount, 0)
	rule.Stats.LastTriggered = nil

	return nil
}

// EvaluateRules evaluates every active rule against the context, ascending
// by priority (lower first), and returns one result per rule so non-matches
// stay observable. Matching rules execute their actions in declared order.
func (e *Engine) EvaluateRules(ctx context.Context, wctx models.WorkflowContext) []models.RuleEvaluationResult {
	active := e.activeRulesByPriority()

	results := make([]models.RuleEvaluationResult, 0, len(active))

	for _, rule := range active {
		select {
		case <-ctx.Done():
			e.logger.Warn("Rule evaluation cancelled", "case_id", wctx.CaseID, "evaluated", len(results))

			return results
		default:
		}

		results = append(results, e.evaluateRule(rule, wctx))
	}

	return results
}

func (e *Engine) evaluateRule(rule *models.BusinessRule, wctx models.WorkflowContext) models.RuleEvaluationResult {
	result := models.RuleEvaluationResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
	}

	matched, score, confidence, conditionResults := e.evaluateConditions(rule.Conditions, wctx)
	result.Matched = matched
	result.Score = score
	result.Confidence = confidence
	result.Conditions = conditionResults

	failed := false

	if matched {
		result.Actions, failed = e.executeActions(rule, wctx)
		if failed {
			result.Error = "one or more actions failed"
		}
	}

	e.recordEvaluation(rule, failed)

	e.logger.Debug("Evaluated rule",
		"rule_id", rule.ID,
		"case_id", wctx.CaseID,
		"matched", matched,
		"score", score,
		"confidence", confidence)

	return result
}

// recordEvaluation bumps the rule counters. Every evaluation counts as a
// trigger regardless of match, so stats expose evaluation volume.
func (e *Engine) recordEvaluation(rule *models.BusinessRule, failed bool) {
	atomic.AddInt64(&rule.Stats.TriggerCount, 1)

	if failed {
		atomic.AddInt64(&rule.Stats.FailureCount, 1)
	} else {
		atomic.AddInt64(&rule.Stats.SuccessCount, 1)
	}

	now := e.clock.Now()

	e.lastTriggeredMu.Lock()
	rule.Stats.LastTriggered = &now
	e.lastTriggeredMu.Unlock()
}

// activeRulesByPriority snapshots the active rules sorted ascending by
// priority, with id as the tiebreaker to keep evaluation order stable.
func (e *Engine) activeRulesByPriority() []*models.BusinessRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	active := make([]*models.BusinessRule, 0, len(e.rules))

	for _, rule := range e.rules {
		if rule.IsActive {
			active = append(active, rule)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}

		return active[i].ID < active[j].ID
	})

	return active
}

// Rules returns a snapshot of all registered rules sorted by priority.
func (e *Engine) Rules() []*models.BusinessRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	all := make([]*models.BusinessRule, 0, len(e.rules))
	for _, rule := range e.rules {
		all = append(all, rule)
	}

	slices.SortFunc(all, func(a, b *models.BusinessRule) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}

		return compareStrings(a.ID, b.ID)
	})

	return all
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
