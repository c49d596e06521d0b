package models

import "time"

// ConditionOperator is the comparison applied by a rule condition.
type ConditionOperator string

const (
	OpEquals         ConditionOperator = "equals"
	OpNotEquals      ConditionOperator = "not_equals"
	OpContains       ConditionOperator = "contains"
	OpExists         ConditionOperator = "exists"
	OpNotExists      ConditionOperator = "not_exists"
	OpGreaterThan    ConditionOperator = "greater_than"
	OpLessThan       ConditionOperator = "less_than"
	OpIn             ConditionOperator = "in"
	OpNotIn          ConditionOperator = "not_in"
	OpMatchesPattern ConditionOperator = "matches_pattern"
)

// LogicalOperator switches condition combination semantics mid-list.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition is one weighted predicate over the evaluation context.
// Field is a dot path resolved against the context metadata.
type Condition struct {
	Field           string            `json:"field"    validate:"required"`
	Operator        ConditionOperator `json:"operator" validate:"required,oneof=equals not_equals contains exists not_exists greater_than less_than in not_in matches_pattern"`
	Value           any               `json:"value,omitempty"`
	Weight          float64           `json:"weight,omitempty"   validate:"omitempty,gt=0"`
	LogicalOperator LogicalOperator   `json:"logical_operator,omitempty" validate:"omitempty,oneof=AND OR"`
}

// EffectiveWeight returns the condition weight with the default of 1 applied.
func (c Condition) EffectiveWeight() float64 {
	if c.Weight <= 0 {
		return 1
	}

	return c.Weight
}

// RuleCategory groups rules for statistics reporting.
type RuleCategory string

const (
	CategoryAssignment   RuleCategory = "assignment"
	CategoryEscalation   RuleCategory = "escalation"
	CategoryDeadline     RuleCategory = "deadline"
	CategoryNotification RuleCategory = "notification"
	CategoryCompliance   RuleCategory = "compliance"
)

// RuleStats carries the mutable evaluation counters of a rule. Counters are
// incremented atomically by the engine and reset only by an explicit call.
type RuleStats struct {
	TriggerCount  int64      `json:"trigger_count"`
	SuccessCount  int64      `json:"success_count"`
	FailureCount  int64      `json:"failure_count"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}

// BusinessRule is one automation rule: a weighted condition tree plus an
// ordered action list. Lower Priority evaluates first.
type BusinessRule struct {
	ID          string       `json:"id"          validate:"required"`
	Name        string       `json:"name"        validate:"required,min=3"`
	Description string       `json:"description"`
	Category    RuleCategory `json:"category"    validate:"required"`
	Priority    int          `json:"priority"`
	IsActive    bool         `json:"is_active"`
	Conditions  []Condition  `json:"conditions"  validate:"required,min=1,dive"`
	Actions     []Action     `json:"actions"     validate:"required,min=1,dive"`
	Stats       RuleStats    `json:"stats"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
