// Package manifest provides service manifest loading: the deployment's
// name, version and the methods it promises to expose.
package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/methodbus/methodbus/pkg/api"
)

const logPrefix = "manifest:loader"

// SchemaConstraint is the range of manifest schema versions this build
// understands.
const SchemaConstraint = ">= 1.0.0, < 2.0.0"

// Manifest is the root manifest document.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	// MinimumMethods lists full method names that must be registered
	// before the service starts serving.
	MinimumMethods []string `json:"minimum_methods,omitempty"`
	// Collections optionally describes the collections this deployment
	// expects, keyed by collection name.
	Collections map[string]Collection `json:"collections,omitempty"`
}

// Collection is one collection entry in the manifest.
type Collection struct {
	BasePath    string   `json:"basePath,omitempty"`
	Description string   `json:"description,omitempty"`
	Methods     []string `json:"methods,omitempty"`
}

// Load reads the manifest from file paths or environment. It tries paths
// in order: first any paths passed in, then METHODBUS_MANIFEST_FILE env,
// then defaults. An unreadable or unparsable file is skipped with a
// warning; when nothing matches, the embedded default manifest is used.
func Load(paths ...string) (*Manifest, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("METHODBUS_MANIFEST_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/manifest.json", "manifest.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse manifest file %s: %v", logPrefix, p, err))
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%s - manifest %s invalid: %w", logPrefix, p, err)
		}

		slog.Info(fmt.Sprintf("%s - Loaded manifest from %s", logPrefix, p))
		return &m, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default manifest", logPrefix))
	return Default(), nil
}

// Default returns the embedded fallback manifest.
func Default() *Manifest {
	return &Manifest{
		Name:           "methodbus",
		Version:        "1.0.0",
		Description:    "Default method bus manifest",
		MinimumMethods: []string{"system.health", "system.methods", "system.describe"},
	}
}

// Validate checks the manifest's structural invariants: a name, and a
// schema version inside the supported range.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest name is required")
	}

	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("invalid manifest version %q: %w", m.Version, err)
	}
	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return fmt.Errorf("invalid schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("manifest version %s outside supported range %s", m.Version, SchemaConstraint)
	}
	return nil
}

// VerifyMinimumMethods checks that every method the manifest promises is
// present in the registry.
func (m *Manifest) VerifyMinimumMethods(reg *api.Registry) error {
	var missing []string
	for _, name := range m.MinimumMethods {
		if _, ok := reg.Method(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s - registry is missing required methods: %v", logPrefix, missing)
	}
	return nil
}
