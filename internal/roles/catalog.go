// Package roles manages the persona catalog: the named system prompts a
// conversation is seeded from. The catalog is synced from a JSON file into
// the database and served through a read-through cache.
package roles

import (
	"encoding/json"
	"fmt"
	"os"
)

// CatalogEntry is one persona definition in the roles file.
type CatalogEntry struct {
	Name             string `json:"role"`
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
	SystemPrompt     string `json:"system_prompt"`
}

// LoadCatalog reads persona definitions from a JSON file. Entries without a
// name or system prompt are rejected rather than skipped, since a partial
// catalog sync would silently lose personas.
func LoadCatalog(path string) ([]CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse roles file: %w", err)
	}

	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("roles file entry %d: missing role name", i)
		}
		if e.SystemPrompt == "" {
			return nil, fmt.Errorf("roles file entry %d (%s): missing system prompt", i, e.Name)
		}
	}
	return entries, nil
}
