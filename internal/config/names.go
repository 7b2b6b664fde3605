package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Canonical configuration filenames. Defaults templates are version-controlled,
// overrides templates are local and auto-seeded from defaults, rendered files
// are generated output.
const (
	GlobalDefaultsName  = "ciu-global.defaults.toml.j2"
	GlobalOverridesName = "ciu-global.toml.j2"
	GlobalRenderedName  = "ciu-global.toml"

	StackDefaultsName  = "ciu.defaults.toml.j2"
	StackOverridesName = "ciu.toml.j2"
	StackRenderedName  = "ciu.toml"
)

// RenderedName returns the rendered filename for a defaults template name.
func RenderedName(defaultsName string) string {
	return strings.Replace(defaultsName, ".defaults.toml.j2", ".toml", 1)
}

// FindRepoRoot walks up directories starting from startDir to locate the
// directory holding the global defaults template. Returns the absolute path
// of that directory, or an error if none exists up to the filesystem root.
func FindRepoRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path for %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, GlobalDefaultsName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory: %w", GlobalDefaultsName, startDir, ErrConfigNotFound)
}
