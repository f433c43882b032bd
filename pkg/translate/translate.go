// Package translate maps between the builder's in-memory item shape and the
// engine's persisted wire shape. All functions are pure: field renames,
// default-filling and 1-based order assignment only, no I/O.
package translate

import (
	"github.com/lendkit/decisor/pkg/editor"
	"github.com/lendkit/decisor/pkg/models"
)

// StepItem is a pipeline step as held by the builder: step type discriminant,
// parameter object payload, no order field (sequence position is authoritative
// while editing).
type StepItem = editor.Item[models.StepType, map[string]any]

// RuleItem is a terminal rule as held by the builder: outcome discriminant,
// condition text payload.
type RuleItem = editor.Item[models.FinalStatus, string]

// StepsToPersisted assigns each step its 1-based order from sequence position
// and fills a missing params object.
func StepsToPersisted(items []StepItem) []models.StepConfig {
	steps := make([]models.StepConfig, len(items))

	for i, item := range items {
		params := item.Payload
		if params == nil {
			params = map[string]any{}
		}

		steps[i] = models.StepConfig{
			StepType: item.Discriminant,
			Order:    i + 1,
			Params:   params,
		}
	}

	return steps
}

// StepsFromPersisted strips the persisted order field; the position in the
// fetched array becomes the in-memory sequence position.
func StepsFromPersisted(steps []models.StepConfig) []StepItem {
	items := make([]StepItem, len(steps))

	for i, step := range steps {
		params := step.Params
		if params == nil {
			params = map[string]any{}
		}

		items[i] = StepItem{Discriminant: step.StepType, Payload: params}
	}

	return items
}

// RulesToPersisted maps the builder's action discriminant to the persisted
// outcome field and assigns 1-based order from sequence position.
func RulesToPersisted(items []RuleItem) []models.TerminalRule {
	rules := make([]models.TerminalRule, len(items))

	for i, item := range items {
		rules[i] = models.TerminalRule{
			Condition: item.Payload,
			Outcome:   item.Discriminant,
			Order:     i + 1,
		}
	}

	return rules
}

// RulesFromPersisted is the inverse of RulesToPersisted, dropping order.
func RulesFromPersisted(rules []models.TerminalRule) []RuleItem {
	items := make([]RuleItem, len(rules))

	for i, rule := range rules {
		items[i] = RuleItem{Discriminant: rule.Outcome, Payload: rule.Condition}
	}

	return items
}
