// Package pipeline sequences one deployment run: render the configuration
// chain, execute pre hooks, resolve secret directives against the store
// snapshot, hand the flattened environment to the compose step, and finish
// with post hooks. The pipeline is single-threaded and synchronous; a run
// either completes or fails fatally, and callers re-run from scratch.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dst-dns/ciu/internal/config"
	ciuexec "github.com/dst-dns/ciu/internal/exec"
	"github.com/dst-dns/ciu/internal/hooks"
	"github.com/dst-dns/ciu/internal/render"
	"github.com/dst-dns/ciu/internal/secrets"
	"github.com/dst-dns/ciu/internal/state"
	"github.com/dst-dns/ciu/internal/vault"
)

// StoreFactory builds a secret store client once the merged configuration
// reveals the store address. Tests substitute an in-memory store.
type StoreFactory func(address, mount string) (vault.Store, error)

// Options configure one pipeline run.
type Options struct {
	RepoRoot string
	StackDir string

	// Env is the immutable environment snapshot taken at startup. The
	// pipeline never reads the process environment directly.
	Env map[string]string

	// ComposeFile is the compose template or file name inside StackDir.
	ComposeFile string

	RenderOnly    bool
	DryRun        bool
	SkipHooks     bool
	SkipSecrets   bool
	PreserveState bool

	Registry     *hooks.Registry
	StoreFactory StoreFactory
}

// Outcome reports what a completed run produced.
type Outcome struct {
	Global config.Tree
	Stack  config.Tree
	Merged config.Tree

	// ComposeEnv is the full environment handed to the compose step.
	ComposeEnv map[string]string
}

// Run executes the pipeline. Any error is fatal for the whole run; no
// partially rendered output is considered trustworthy.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	renderer := render.NewRenderer(opts.Env)
	loader := config.NewLoader(renderer)

	global, err := loader.LoadGlobal(opts.RepoRoot, opts.StackDir)
	if err != nil {
		return nil, err
	}

	stack, err := loader.LoadStack(opts.StackDir, global, opts.PreserveState)
	if err != nil {
		return nil, err
	}

	merged := config.Merge(global, stack)
	injectBuildMetadata(merged, opts.RepoRoot)

	outcome := &Outcome{Global: global, Stack: stack, Merged: merged}

	if opts.RenderOnly {
		log.Info().Msg("rendered configuration files")
		return outcome, nil
	}

	stackKey, err := stackRootKey(stack)
	if err != nil {
		return nil, err
	}

	stackFile := filepath.Join(opts.StackDir, config.StackRenderedName)
	globalFile := filepath.Join(opts.RepoRoot, config.GlobalRenderedName)
	runner := hooks.NewRunner(opts.Registry, stackFile, globalFile)

	baseEnv := copyEnv(opts.Env)

	if !opts.SkipHooks {
		additions, err := runPhase(runner, "pre-compose", merged, stackKey, baseEnv)
		if err != nil {
			return nil, err
		}
		mergeInto(baseEnv, additions)
	}

	if !opts.SkipSecrets {
		merged, err = resolveSecrets(merged, stackFile, opts)
		if err != nil {
			return nil, err
		}
		outcome.Merged = merged
	}

	composeEnv := copyEnv(baseEnv)
	mergeInto(composeEnv, config.FlattenEnv(merged))
	outcome.ComposeEnv = composeEnv

	composePath, err := prepareComposeFile(renderer, opts.StackDir, opts.ComposeFile, merged)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		log.Info().Msg("dry-run: skipping compose execution")
	} else {
		command := []string{"docker", "compose", "-f", composePath, "up", "-d"}
		log.Info().Str("compose", composePath).Msg("executing compose step")
		if err := ciuexec.Run(ctx, command, opts.StackDir, composeEnv); err != nil {
			return nil, fmt.Errorf("compose step: %w", err)
		}
	}

	if !opts.SkipHooks {
		additions, err := runPhase(runner, "post-compose", merged, stackKey, baseEnv)
		if err != nil {
			return nil, err
		}
		mergeInto(baseEnv, additions)
	}

	return outcome, nil
}

// resolveSecrets prefetches the store snapshot, resolves every directive,
// flushes buffered writes, and persists the local secrets and state into
// the rendered stack file.
func resolveSecrets(merged config.Tree, stackFile string, opts Options) (config.Tree, error) {
	paths := secrets.CollectVaultPaths(merged)

	snapshot := map[string]string{}
	var store vault.Store

	if len(paths) > 0 {
		if opts.StoreFactory == nil {
			return nil, fmt.Errorf("store-backed directives present but no secret store is configured")
		}

		address, mount, err := storeSettings(merged)
		if err != nil {
			return nil, err
		}

		store, err = opts.StoreFactory(address, mount)
		if err != nil {
			return nil, err
		}

		snapshot, err = store.FetchSnapshot(paths)
		if err != nil {
			return nil, fmt.Errorf("fetching store snapshot: %w", err)
		}
	}

	resolver := secrets.NewResolver(opts.Env)
	result, err := resolver.Resolve(merged, snapshot)
	if err != nil {
		return nil, err
	}

	if store != nil && len(result.Buffer) > 0 {
		if err := store.Flush(result.Buffer); err != nil {
			return nil, fmt.Errorf("flushing buffered secrets: %w", err)
		}
	}

	resolvedSecrets, _ := result.Tree["secrets"].(map[string]any)
	updates := map[string]any{
		"secrets.local": resolvedSecrets["local"],
		"secrets.state": result.State.Tree(),
	}
	if err := state.Apply(stackFile, updates); err != nil {
		return nil, fmt.Errorf("persisting secret state: %w", err)
	}

	return result.Tree, nil
}

// runPhase executes one hook phase for the stack's declared unit names.
func runPhase(runner *hooks.Runner, phase string, merged config.Tree, stackKey string, env map[string]string) (map[string]string, error) {
	names := hookNames(merged, stackKey, phase)
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	log.Info().Str("phase", phase).Int("hooks", len(names)).Msg("executing hooks")

	return runner.RunPhase(phase, names, merged, env)
}

// hookNames reads the unit name list at <stackKey>.hooks.<phase key>.
func hookNames(merged config.Tree, stackKey, phase string) []string {
	key := strings.ReplaceAll(phase, "-", "_")

	section, _ := merged[stackKey].(map[string]any)
	hooksTable, _ := section["hooks"].(map[string]any)
	raw, _ := hooksTable[key].([]any)

	names := make([]string, 0, len(raw))
	for _, item := range raw {
		if name, ok := item.(string); ok {
			names = append(names, name)
		}
	}

	return names
}

// stackRootKey finds the single stack section in the rendered stack tree.
// Bookkeeping subtrees do not count.
func stackRootKey(stack config.Tree) (string, error) {
	var keys []string
	for key := range stack {
		if key == "state" || key == "secrets" {
			continue
		}
		keys = append(keys, key)
	}

	if len(keys) != 1 {
		return "", fmt.Errorf("expected exactly one stack root section in %s, found %v", config.StackDefaultsName, keys)
	}

	return keys[0], nil
}

// storeSettings extracts the secret store address and mount from the merged
// tree's vault table.
func storeSettings(merged config.Tree) (string, string, error) {
	table, _ := merged["vault"].(map[string]any)
	address, _ := table["address"].(string)
	mount, _ := table["mount"].(string)

	if address == "" {
		return "", "", fmt.Errorf("vault.address is required to resolve store-backed directives")
	}
	if mount == "" {
		mount = "secret"
	}

	return address, mount, nil
}

// prepareComposeFile renders a templated compose file into its runtime form,
// or passes a plain compose file through untouched. Returns the path to
// hand to the compose command.
func prepareComposeFile(renderer *render.Renderer, stackDir, composeFile string, merged config.Tree) (string, error) {
	source := filepath.Join(stackDir, composeFile)

	if !strings.HasSuffix(composeFile, ".j2") {
		return source, nil
	}

	rendered, err := renderer.RenderText(source, merged)
	if err != nil {
		return "", err
	}

	target := filepath.Join(stackDir, strings.TrimSuffix(composeFile, ".j2"))
	if err := os.WriteFile(target, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("writing rendered compose file %s: %w", target, err)
	}

	return target, nil
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func mergeInto(dst map[string]string, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
