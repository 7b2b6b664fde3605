package hooks

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dst-dns/ciu/internal/config"
	"github.com/dst-dns/ciu/internal/state"
)

// ErrHookFailure reports a unit that failed to load or run. The remaining
// units in the phase are not executed; partial phase completion is not
// tolerated.
var ErrHookFailure = errors.New("hook execution failed")

// Runner executes hook phases. Units run sequentially; each sees the
// accumulated environment including earlier units' env-persisted updates.
type Runner struct {
	registry *Registry
	// stackFile is the rendered stack file, the target of toml and local
	// persistence.
	stackFile string
	// globalFile is the rendered global file at the repository root, the
	// target of project persistence.
	globalFile string
}

// NewRunner creates a Runner writing persisted updates to the given rendered
// files.
func NewRunner(registry *Registry, stackFile, globalFile string) *Runner {
	return &Runner{registry: registry, stackFile: stackFile, globalFile: globalFile}
}

// RunPhase executes the named units in order against cfg and an immutable
// base environment snapshot. It returns the accumulated environment
// additions. Any unit error aborts the phase with ErrHookFailure. The cfg
// tree is mutated only by updates declaring apply_to_config.
func (r *Runner) RunPhase(phase string, names []string, cfg config.Tree, baseEnv map[string]string) (map[string]string, error) {
	env := make(map[string]string, len(baseEnv))
	for k, v := range baseEnv {
		env[k] = v
	}
	additions := map[string]string{}

	for _, name := range names {
		hook, err := r.registry.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%s phase: %s: %w", phase, err, ErrHookFailure)
		}

		log.Debug().Str("phase", phase).Str("hook", name).Msg("running hook")

		result, err := hook.Apply(cfg, env)
		if err != nil {
			return nil, fmt.Errorf("%s phase: hook %q: %s: %w", phase, name, err, ErrHookFailure)
		}

		updates, err := normalizeResult(result, name)
		if err != nil {
			return nil, fmt.Errorf("%s phase: %s: %w", phase, err, ErrHookFailure)
		}

		if err := r.route(updates, cfg, env, additions); err != nil {
			return nil, fmt.Errorf("%s phase: hook %q: %s: %w", phase, name, err, ErrHookFailure)
		}
	}

	return additions, nil
}

// normalizeResult converts a raw hook return mapping into canonical updates
// in deterministic path order.
func normalizeResult(result map[string]any, source string) ([]Update, error) {
	paths := make([]string, 0, len(result))
	for path := range result {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	updates := make([]Update, 0, len(paths))
	for _, path := range paths {
		update, err := normalizeUpdate(path, result[path], source)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}

	return updates, nil
}

// route applies one hook's updates to their persistence targets. File
// writes for a unit are batched per target file and applied before the next
// unit runs, so later units observe them.
func (r *Runner) route(updates []Update, cfg config.Tree, env, additions map[string]string) error {
	stackWrites := map[string]any{}
	globalWrites := map[string]any{}

	for _, update := range updates {
		switch update.Persist {
		case PersistNone:
			continue

		case PersistEnv:
			exportEnv(update, env, additions)

		case PersistTOML:
			stackWrites[update.Path] = update.Value
			exportEnv(update, env, additions)

		case PersistLocal:
			stackWrites["secrets.local."+localKey(update.Path)] = update.Value

		case PersistProject:
			globalWrites[update.Path] = update.Value
			exportEnv(update, env, additions)
		}

		if update.ApplyToConfig || update.Persist == PersistTOML || update.Persist == PersistLocal {
			applyToTree(cfg, update)
		}
	}

	if len(stackWrites) > 0 {
		if err := state.Apply(r.stackFile, stackWrites); err != nil {
			return fmt.Errorf("persisting stack updates: %w", err)
		}
	}
	if len(globalWrites) > 0 {
		if err := state.Apply(r.globalFile, globalWrites); err != nil {
			return fmt.Errorf("persisting project updates: %w", err)
		}
	}

	return nil
}

// applyToTree mutates the in-memory tree so later units and any subsequent
// rendering see the new value.
func applyToTree(cfg config.Tree, update Update) {
	if update.Persist == PersistLocal {
		config.SetPath(cfg, "secrets.local."+localKey(update.Path), update.Value)
		return
	}
	config.SetPath(cfg, update.Path, update.Value)
}

func exportEnv(update Update, env, additions map[string]string) {
	name := envName(update.Path)
	value := envValue(update.Value)
	env[name] = value
	additions[name] = value
}

// envName maps a dotted update path to its environment variable form. A
// path that is already a bare variable name passes through unchanged.
func envName(path string) string {
	if !strings.Contains(path, ".") {
		return path
	}
	return strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

// localKey reduces a dotted path to the key used in the secrets.local
// namespace, the same last-segment convention the resolver uses.
func localKey(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
