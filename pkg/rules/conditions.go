package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/template"
)

// evaluateConditions applies the rule's condition list to the context.
//
// Combination starts in AND mode; the first condition carrying
// logical_operator=OR switches the remainder of the list to OR mode, and in
// OR mode evaluation short-circuits on the first match without scoring the
// remaining conditions. Skipped conditions still count in the confidence
// denominator and the weight denominator. This mirrors the original
// behavior; see DESIGN.md for the open question on OR scoring.
func (e *Engine) evaluateConditions(conditions []models.Condition, wctx models.WorkflowContext) (bool, float64, float64, []models.ConditionResult) {
	if len(conditions) == 0 {
		return true, 100, 1, nil
	}

	results := make([]models.ConditionResult, 0, len(conditions))

	orMode := false
	allMatched := true
	anyMatched := false
	matchedCount := 0
	contribution := 0.0
	totalWeight := 0.0

	shortCircuited := false

	for _, cond := range conditions {
		weight := cond.EffectiveWeight()
		totalWeight += weight

		if cond.LogicalOperator == models.LogicalOr {
			orMode = true
		}

		if shortCircuited {
			results = append(results, models.ConditionResult{
				Field:     cond.Field,
				Evaluated: false,
				Weight:    weight,
			})

			continue
		}

		matched, err := evaluateCondition(cond, wctx.Metadata)

		result := models.ConditionResult{
			Field:     cond.Field,
			Evaluated: true,
			Matched:   matched,
			Weight:    weight,
		}
		if err != nil {
			result.Error = err.Error()
			matched = false
			result.Matched = false
		}

		results = append(results, result)

		if matched {
			anyMatched = true
			matchedCount++
			contribution += 100 * weight
		} else {
			allMatched = false
		}

		if orMode && matched {
			shortCircuited = true
		}
	}

	matched := allMatched
	if orMode {
		matched = anyMatched
	}

	score := contribution / totalWeight
	confidence := float64(matchedCount) / float64(len(conditions))

	return matched, score, confidence, results
}

// MatchConditions reports whether every condition matches the metadata,
// AND-joined. Template gating and escalation steps use this; evaluation
// errors count as non-matches.
func MatchConditions(conditions []models.Condition, metadata map[string]any) bool {
	for _, cond := range conditions {
		matched, err := evaluateCondition(cond, metadata)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// evaluateCondition resolves the condition field against the context
// metadata and applies the operator.
func evaluateCondition(cond models.Condition, metadata map[string]any) (bool, error) {
	value, present := template.Lookup(metadata, cond.Field)

	switch cond.Operator {
	case models.OpExists:
		return present, nil
	case models.OpNotExists:
		return !present, nil
	case models.OpEquals:
		return present && looseEqual(value, cond.Value), nil
	case models.OpNotEquals:
		return !present || !looseEqual(value, cond.Value), nil
	case models.OpContains:
		return present && contains(value, cond.Value), nil
	case models.OpGreaterThan:
		return compareNumeric(value, cond.Value, present, func(a, b float64) bool { return a > b })
	case models.OpLessThan:
		return compareNumeric(value, cond.Value, present, func(a, b float64) bool { return a < b })
	case models.OpIn:
		return present && inList(value, cond.Value), nil
	case models.OpNotIn:
		return present && !inList(value, cond.Value), nil
	case models.OpMatchesPattern:
		return matchesPattern(value, cond.Value, present)
	default:
		return false, fmt.Errorf("unknown condition operator %q", cond.Operator)
	}
}

// looseEqual compares values the way JSON-decoded data demands: numbers
// compare numerically across int/float representations, everything else by
// string rendering.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}

	return template.Stringify(a) == template.Stringify(b)
}

func contains(value, needle any) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, template.Stringify(needle))
	case []any:
		for _, item := range v {
			if looseEqual(item, needle) {
				return true
			}
		}

		return false
	case []string:
		for _, item := range v {
			if item == template.Stringify(needle) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func inList(value, list any) bool {
	switch l := list.(type) {
	case []any:
		for _, item := range l {
			if looseEqual(value, item) {
				return true
			}
		}
	case []string:
		for _, item := range l {
			if template.Stringify(value) == item {
				return true
			}
		}
	}

	return false
}

func compareNumeric(value, threshold any, present bool, cmp func(a, b float64) bool) (bool, error) {
	if !present {
		return false, nil
	}

	a, aok := toFloat(value)
	b, bok := toFloat(threshold)

	if !aok || !bok {
		return false, fmt.Errorf("cannot compare %T against %T numerically", value, threshold)
	}

	return cmp(a, b), nil
}

func matchesPattern(value, pattern any, present bool) (bool, error) {
	if !present {
		return false, nil
	}

	expr, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("matches_pattern requires a string pattern, got %T", pattern)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}

	return re.MatchString(template.Stringify(value)), nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)

		return f, err == nil
	default:
		return 0, false
	}
}
