package models

// CatalogEntry describes one step type the engine can execute, with the
// default parameter payload a new step of that type starts from.
type CatalogEntry struct {
	StepType      StepType       `json:"step_type"`
	DefaultParams map[string]any `json:"default_params"`
}
