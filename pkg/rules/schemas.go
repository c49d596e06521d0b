package rules

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/docket-io/docket/pkg/models"
)

// actionParameterSchemas declares, per action kind, the JSON schema its
// parameter map must satisfy. Validated at rule registration so evaluation
// never fails on malformed parameters it could have rejected up front.
var actionParameterSchemas = map[models.ActionKind]map[string]any{
	models.ActionAssignTask: {
		"type":     "object",
		"required": []string{"assign_to"},
		"properties": map[string]any{
			"assign_to": map[string]any{"type": "string", "minLength": 1},
			"task_id":   map[string]any{"type": "string"},
		},
	},
	models.ActionEscalateTask: {
		"type": "object",
		"properties": map[string]any{
			"reason":  map[string]any{"type": "string"},
			"task_id": map[string]any{"type": "string"},
		},
	},
	models.ActionChangePriority: {
		"type":     "object",
		"required": []string{"priority"},
		"properties": map[string]any{
			"priority": map[string]any{
				"type": "string",
				"enum": []any{"LOW", "MEDIUM", "HIGH", "URGENT"},
			},
			"reason":  map[string]any{"type": "string"},
			"task_id": map[string]any{"type": "string"},
		},
	},
	models.ActionSetDeadline: {
		"type": "object",
		"properties": map[string]any{
			"due_date":    map[string]any{"type": "string", "format": "date-time"},
			"offset_days": map[string]any{"type": "number", "minimum": 0},
			"task_id":     map[string]any{"type": "string"},
		},
	},
	models.ActionSendNotification: {
		"type":     "object",
		"required": []string{"type", "template", "recipients"},
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []any{"email", "in_app", "sms"},
			},
			"template": map[string]any{"type": "string", "minLength": 1},
			"recipients": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
			"urgency": map[string]any{
				"type": "string",
				"enum": []any{"low", "normal", "high", "critical"},
			},
		},
	},
	models.ActionCreateDependency: {
		"type":     "object",
		"required": []string{"depends_on"},
		"properties": map[string]any{
			"depends_on": map[string]any{"type": "string", "minLength": 1},
			"task_id":    map[string]any{"type": "string"},
		},
	},
	models.ActionUpdateStatus: {
		"type":     "object",
		"required": []string{"status"},
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []any{"PENDING", "IN_PROGRESS", "BLOCKED", "COMPLETED", "CANCELLED"},
			},
			"task_id": map[string]any{"type": "string"},
		},
	},
	models.ActionRequestReview: {
		"type": "object",
		"properties": map[string]any{
			"reviewer_role": map[string]any{"type": "string"},
			"reason":        map[string]any{"type": "string"},
			"task_id":       map[string]any{"type": "string"},
		},
	},
	models.ActionReassignTask: {
		"type":     "object",
		"required": []string{"to"},
		"properties": map[string]any{
			"to":      map[string]any{"type": "string", "minLength": 1},
			"from":    map[string]any{"type": "string"},
			"reason":  map[string]any{"type": "string"},
			"task_id": map[string]any{"type": "string"},
		},
	},
}

// ValidateActionParameters checks an action's parameter map against its
// kind's schema.
func ValidateActionParameters(action models.Action) error {
	schema, ok := actionParameterSchemas[action.Kind]
	if !ok {
		return models.ErrUnknownActionKind{Kind: action.Kind}
	}

	params := action.Parameters
	if params == nil {
		params = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(params)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return fmt.Errorf("parameter validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}
