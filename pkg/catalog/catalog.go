// Package catalog holds the per-session snapshot of step types available from
// the engine, mapping each step type to its default parameter payload.
package catalog

import (
	"github.com/lendkit/decisor/pkg/models"
)

// Snapshot is a read-only view of the step catalog, fetched once per editing
// session. Staleness within a session is acceptable; there is no live reload.
type Snapshot struct {
	entries []models.CatalogEntry
	byType  map[models.StepType]int
}

// NewSnapshot builds a snapshot preserving catalog order. The first entry is
// the default type for a newly added step.
func NewSnapshot(entries []models.CatalogEntry) *Snapshot {
	byType := make(map[models.StepType]int, len(entries))
	for i, entry := range entries {
		if _, exists := byType[entry.StepType]; !exists {
			byType[entry.StepType] = i
		}
	}

	return &Snapshot{entries: entries, byType: byType}
}

// Len returns the number of catalog entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns the catalog entries in engine order.
func (s *Snapshot) Entries() []models.CatalogEntry {
	entries := make([]models.CatalogEntry, len(s.entries))
	copy(entries, s.entries)

	return entries
}

// First returns the default entry for a new step, with its params deep-copied
// so builder edits never alias the snapshot.
func (s *Snapshot) First() (models.CatalogEntry, bool) {
	if len(s.entries) == 0 {
		return models.CatalogEntry{}, false
	}

	entry := s.entries[0]
	entry.DefaultParams = copyParams(entry.DefaultParams)

	return entry, true
}

// DefaultParams returns a deep copy of the default payload for the given step
// type.
func (s *Snapshot) DefaultParams(stepType models.StepType) (map[string]any, bool) {
	i, ok := s.byType[stepType]
	if !ok {
		return nil, false
	}

	return copyParams(s.entries[i].DefaultParams), true
}

func copyParams(params map[string]any) map[string]any {
	copied := make(map[string]any, len(params))
	for key, value := range params {
		copied[key] = copyValue(value)
	}

	return copied
}

func copyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return copyParams(typed)
	case []any:
		copied := make([]any, len(typed))
		for i, element := range typed {
			copied[i] = copyValue(element)
		}

		return copied
	default:
		return typed
	}
}
