package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// pipelineDocumentSchema describes the persisted pipeline wire shape. It is a
// structural check only; condition grammar and step semantics belong to the
// engine.
var pipelineDocumentSchema = map[string]any{
	"type":     "object",
	"required": []any{"name", "steps", "terminal_rules"},
	"properties": map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"step_type", "order"},
				"properties": map[string]any{
					"step_type": map[string]any{"type": "string", "minLength": 1},
					"order":     map[string]any{"type": "integer", "minimum": 1},
					"params":    map[string]any{"type": "object"},
				},
			},
		},
		"terminal_rules": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"condition", "outcome", "order"},
				"properties": map[string]any{
					"condition": map[string]any{"type": "string", "minLength": 1},
					"outcome": map[string]any{
						"type": "string",
						"enum": []any{"APPROVED", "REJECTED", "NEEDS_REVIEW"},
					},
					"order": map[string]any{"type": "integer", "minimum": 1},
				},
			},
		},
	},
}

// ValidatePipelineDocument checks a pipeline document against the persisted
// wire schema before it is sent to the engine.
func ValidatePipelineDocument(document any) error {
	schemaLoader := gojsonschema.NewGoLoader(pipelineDocumentSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("pipeline schema validation: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid pipeline document: %s", strings.Join(details, "; "))
	}

	return nil
}
