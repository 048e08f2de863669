package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides is the YAML content-file shape. Every section is optional;
// entries replace or extend the built-in tables by key.
type Overrides struct {
	Ranks   []RankRow   `yaml:"ranks,omitempty"`
	Teams   []TeamDef   `yaml:"teams,omitempty"`
	Allies  []AllyDef   `yaml:"allies,omitempty"`
	Events  []EventDef  `yaml:"events,omitempty"`
	Actions []ActionDef `yaml:"actions,omitempty"`
}

// Load builds the catalog from built-in defaults, then applies the YAML
// content file at path if one exists. A missing file is not an error; a
// malformed one is.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no content file, using built-in catalog", "path", path)
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}

	var ov Overrides
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return nil, fmt.Errorf("parse content file %s: %w", path, err)
	}
	cat.apply(ov)
	slog.Info("content overrides applied",
		"path", path,
		"ranks", len(ov.Ranks),
		"teams", len(ov.Teams),
		"allies", len(ov.Allies),
		"events", len(ov.Events),
		"actions", len(ov.Actions),
	)
	return cat, nil
}

func (c *Catalog) apply(ov Overrides) {
	if len(ov.Ranks) > 0 {
		c.Ranks = ov.Ranks
	}
	for _, t := range ov.Teams {
		c.Teams[t.Key] = t
	}
	for _, a := range ov.Allies {
		c.Allies[a.Slug] = a
	}
	for _, e := range ov.Events {
		c.Events[e.Name] = e
	}
	for _, a := range ov.Actions {
		c.Actions[a.Key] = a
	}
}
