package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/models"
)

func TestEvaluateCondition_Operators(t *testing.T) {
	metadata := map[string]any{
		"case": map[string]any{
			"type":   "CRIMINAL_DEFENSE",
			"value":  float64(25000),
			"tags":   []any{"urgent", "jury"},
			"docket": "2024-CR-0192",
		},
	}

	testCases := []struct {
		name      string
		condition models.Condition
		expected  bool
	}{
		{
			name:      "equals matches",
			condition: models.Condition{Field: "case.type", Operator: models.OpEquals, Value: "CRIMINAL_DEFENSE"},
			expected:  true,
		},
		{
			name:      "equals across numeric representations",
			condition: models.Condition{Field: "case.value", Operator: models.OpEquals, Value: 25000},
			expected:  true,
		},
		{
			name:      "not_equals",
			condition: models.Condition{Field: "case.type", Operator: models.OpNotEquals, Value: "FAMILY_LAW"},
			expected:  true,
		},
		{
			name:      "not_equals on absent field matches",
			condition: models.Condition{Field: "case.judge", Operator: models.OpNotEquals, Value: "x"},
			expected:  true,
		},
		{
			name:      "contains on string",
			condition: models.Condition{Field: "case.docket", Operator: models.OpContains, Value: "CR"},
			expected:  true,
		},
		{
			name:      "contains on list",
			condition: models.Condition{Field: "case.tags", Operator: models.OpContains, Value: "jury"},
			expected:  true,
		},
		{
			name:      "exists",
			condition: models.Condition{Field: "case.value", Operator: models.OpExists},
			expected:  true,
		},
		{
			name:      "not_exists",
			condition: models.Condition{Field: "case.judge", Operator: models.OpNotExists},
			expected:  true,
		},
		{
			name:      "greater_than",
			condition: models.Condition{Field: "case.value", Operator: models.OpGreaterThan, Value: 10000},
			expected:  true,
		},
		{
			name:      "less_than fails",
			condition: models.Condition{Field: "case.value", Operator: models.OpLessThan, Value: 10000},
			expected:  false,
		},
		{
			name:      "in",
			condition: models.Condition{Field: "case.type", Operator: models.OpIn, Value: []any{"CRIMINAL_DEFENSE", "FAMILY_LAW"}},
			expected:  true,
		},
		{
			name:      "not_in",
			condition: models.Condition{Field: "case.type", Operator: models.OpNotIn, Value: []any{"CORPORATE"}},
			expected:  true,
		},
		{
			name:      "matches_pattern",
			condition: models.Condition{Field: "case.docket", Operator: models.OpMatchesPattern, Value: `^\d{4}-CR-`},
			expected:  true,
		},
		{
			name:      "greater_than on absent field fails",
			condition: models.Condition{Field: "case.missing", Operator: models.OpGreaterThan, Value: 1},
			expected:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			matched, err := evaluateCondition(tc.condition, metadata)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, matched)
		})
	}
}

func TestEvaluateCondition_Errors(t *testing.T) {
	metadata := map[string]any{"case": map[string]any{"type": "CORPORATE"}}

	_, err := evaluateCondition(models.Condition{
		Field:    "case.type",
		Operator: models.OpGreaterThan,
		Value:    10,
	}, metadata)
	assert.Error(t, err, "non-numeric comparison must surface an error")

	_, err = evaluateCondition(models.Condition{
		Field:    "case.type",
		Operator: models.OpMatchesPattern,
		Value:    "([",
	}, metadata)
	assert.Error(t, err)
}

func TestEffectiveWeight_DefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, models.Condition{}.EffectiveWeight())
	assert.Equal(t, 2.5, models.Condition{Weight: 2.5}.EffectiveWeight())
}
