package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dst-dns/ciu/internal/render"
	"github.com/dst-dns/ciu/internal/state"
)

// Loader renders and merges the layered configuration chain. Each directory
// level contributes a defaults template and an optional overrides template;
// layers are applied root-to-leaf so the deepest layer wins.
type Loader struct {
	renderer *render.Renderer
}

// NewLoader creates a Loader that renders templates with the given renderer.
func NewLoader(renderer *render.Renderer) *Loader {
	return &Loader{renderer: renderer}
}

// LoadGlobal walks the directory chain from repoRoot down to workingDir,
// rendering and merging each level's global defaults/overrides pair in
// order. The merged result is written to the rendered global file at
// repoRoot for reuse by read-only consumers.
//
// workingDir must be repoRoot or a descendant of it. Returns
// ErrConfigNotFound when no defaults template exists anywhere in the chain
// and ErrConfigConflict when an overrides template has no matching defaults.
func (l *Loader) LoadGlobal(repoRoot, workingDir string) (Tree, error) {
	dirs, err := chainDirs(repoRoot, workingDir)
	if err != nil {
		return nil, err
	}

	merged := Tree{}
	found := false

	for _, dir := range dirs {
		layer, ok, err := l.loadLayer(dir, GlobalDefaultsName, GlobalOverridesName, merged)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		found = true
		merged = layer
	}

	if !found {
		return nil, fmt.Errorf("no %s found between %s and %s: %w",
			GlobalDefaultsName, repoRoot, workingDir, ErrConfigNotFound)
	}

	renderedPath := filepath.Join(repoRoot, GlobalRenderedName)
	if err := state.WriteDocument(renderedPath, merged); err != nil {
		return nil, fmt.Errorf("writing rendered global config: %w", err)
	}

	log.Debug().Str("path", renderedPath).Int("layers", len(dirs)).Msg("rendered global config")

	return merged, nil
}

// LoadStack renders the stack defaults/overrides pair in stackDir on top of
// the merged global configuration and writes the rendered stack file.
//
// Defaults render against the global tree; overrides render against global
// merged with defaults, so override templates can reference default values.
// With preserveState set, the state and generated-secret subtrees of an
// existing rendered file are spliced into the fresh tree before it is
// written, keeping repeated runs idempotent.
func (l *Loader) LoadStack(stackDir string, global Tree, preserveState bool) (Tree, error) {
	defaultsPath := filepath.Join(stackDir, StackDefaultsName)
	overridesPath := filepath.Join(stackDir, StackOverridesName)
	renderedPath := filepath.Join(stackDir, StackRenderedName)

	if _, err := os.Stat(defaultsPath); err != nil {
		return nil, fmt.Errorf("no %s in %s: %w", StackDefaultsName, stackDir, ErrConfigNotFound)
	}

	if err := seedOverrides(defaultsPath, overridesPath); err != nil {
		return nil, err
	}

	defaults, err := l.renderer.RenderFile(defaultsPath, global)
	if err != nil {
		return nil, err
	}

	stack := defaults

	if _, err := os.Stat(overridesPath); err == nil {
		overrides, err := l.renderer.RenderFile(overridesPath, Merge(global, defaults))
		if err != nil {
			return nil, err
		}
		stack = Merge(defaults, overrides)
	}

	if preserveState {
		splicePriorState(stack, renderedPath)
	}

	if err := state.WriteDocument(renderedPath, stack); err != nil {
		return nil, fmt.Errorf("writing rendered stack config: %w", err)
	}

	log.Debug().Str("path", renderedPath).Msg("rendered stack config")

	return stack, nil
}

// loadLayer renders one directory level's defaults/overrides pair into the
// accumulator. Returns false when the level has no defaults template.
func (l *Loader) loadLayer(dir, defaultsName, overridesName string, acc Tree) (Tree, bool, error) {
	defaultsPath := filepath.Join(dir, defaultsName)
	overridesPath := filepath.Join(dir, overridesName)

	_, defErr := os.Stat(defaultsPath)
	_, ovErr := os.Stat(overridesPath)
	hasDefaults := defErr == nil
	hasOverrides := ovErr == nil

	if hasOverrides && !hasDefaults {
		return nil, false, fmt.Errorf("%s without %s in %s: %w",
			overridesName, defaultsName, dir, ErrConfigConflict)
	}

	if !hasDefaults {
		return nil, false, nil
	}

	if err := seedOverrides(defaultsPath, overridesPath); err != nil {
		return nil, false, err
	}

	defaults, err := l.renderer.RenderFile(defaultsPath, acc)
	if err != nil {
		return nil, false, err
	}
	merged := Merge(acc, defaults)

	if _, err := os.Stat(overridesPath); err == nil {
		overrides, err := l.renderer.RenderFile(overridesPath, merged)
		if err != nil {
			return nil, false, err
		}
		merged = Merge(merged, overrides)
	}

	return merged, true, nil
}

// chainDirs builds the ordered ancestor list from repoRoot to workingDir,
// root first. workingDir must be repoRoot or inside it.
func chainDirs(repoRoot, workingDir string) ([]string, error) {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path for %s: %w", repoRoot, err)
	}

	work, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path for %s: %w", workingDir, err)
	}

	rel, err := filepath.Rel(root, work)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("working directory %s is not inside repository root %s", work, root)
	}

	dirs := []string{root}
	if rel != "." {
		current := root
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			current = filepath.Join(current, part)
			dirs = append(dirs, current)
		}
	}

	return dirs, nil
}

// seedOverrides creates the overrides template as a byte-for-byte copy of
// the defaults template when it does not exist yet. An existing overrides
// file is never touched.
func seedOverrides(defaultsPath, overridesPath string) error {
	if _, err := os.Stat(overridesPath); err == nil {
		return nil
	}

	data, err := os.ReadFile(defaultsPath)
	if err != nil {
		return fmt.Errorf("reading defaults template %s: %w", defaultsPath, err)
	}

	if err := os.WriteFile(overridesPath, data, 0o644); err != nil {
		return fmt.Errorf("seeding overrides template %s: %w", overridesPath, err)
	}

	log.Info().Str("path", overridesPath).Msg("seeded overrides template from defaults")

	return nil
}

// splicePriorState copies the state and generated-secret subtrees from an
// existing rendered file into the fresh tree, so already generated secrets
// are reused instead of regenerated.
func splicePriorState(stack Tree, renderedPath string) {
	prior, err := state.LoadDocument(renderedPath)
	if err != nil {
		return
	}

	if st, ok := prior["state"].(map[string]any); ok {
		stack["state"] = CloneTree(st)
	}

	priorSecrets, ok := prior["secrets"].(map[string]any)
	if !ok {
		return
	}

	secretsTree, ok := stack["secrets"].(map[string]any)
	if !ok {
		secretsTree = map[string]any{}
		stack["secrets"] = secretsTree
	}

	for _, key := range []string{"local", "state"} {
		if sub, ok := priorSecrets[key].(map[string]any); ok {
			secretsTree[key] = CloneTree(sub)
		}
	}
}
