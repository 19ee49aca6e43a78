// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &reg, reg.Validate()
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate rejects activities without a task type and duplicate task types.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for i, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %d (%s): taskType is required", i, a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return nil
}
