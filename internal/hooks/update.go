package hooks

import "fmt"

// Persistence targets for hook updates.
const (
	// PersistEnv exports the value to the accumulated environment only.
	PersistEnv = "env"
	// PersistTOML writes the value into the rendered stack file and also
	// exports it to the environment.
	PersistTOML = "toml"
	// PersistLocal stores the value under secrets.local in the rendered
	// stack file; it is implicitly sensitive and not exported.
	PersistLocal = "local"
	// PersistProject writes the value into the rendered global file at the
	// repository root and exports it to the environment.
	PersistProject = "project"
	// PersistNone leaves no artifact on disk, in state, or in the
	// environment.
	PersistNone = "none"
	// PersistAuto resolves to toml for non-sensitive values and to env for
	// sensitive ones, keeping secrets off disk by default.
	PersistAuto = "auto"
)

// Update is the canonical record a hook return entry normalizes to. Later
// updates to the same path from a later unit override earlier ones.
type Update struct {
	Path          string
	Value         any
	Persist       string
	Sensitive     bool
	ApplyToConfig bool
	Source        string
}

// normalizeUpdate converts one raw return entry into an Update. A flat
// name-to-value entry persists to the environment; a table with a "value"
// key is taken as given.
func normalizeUpdate(path string, raw any, source string) (Update, error) {
	table, ok := raw.(map[string]any)
	if !ok {
		return Update{Path: path, Value: raw, Persist: PersistEnv, Source: source}, nil
	}

	value, hasValue := table["value"]
	if !hasValue {
		// A table without "value" metadata is itself the value.
		return Update{Path: path, Value: table, Persist: PersistEnv, Source: source}, nil
	}

	update := Update{
		Path:    path,
		Value:   value,
		Persist: PersistEnv,
		Source:  source,
	}

	if persist, ok := table["persist"].(string); ok && persist != "" {
		update.Persist = persist
	}
	if sensitive, ok := table["sensitive"].(bool); ok {
		update.Sensitive = sensitive
	}
	if apply, ok := table["apply_to_config"].(bool); ok {
		update.ApplyToConfig = apply
	}

	switch update.Persist {
	case PersistEnv, PersistTOML, PersistLocal, PersistProject, PersistNone, PersistAuto:
	default:
		return Update{}, fmt.Errorf("hook %q returned unknown persist target %q for %s", source, update.Persist, path)
	}

	if update.Persist == PersistAuto {
		update.Persist = PersistTOML
		if update.Sensitive {
			update.Persist = PersistEnv
		}
	}

	return update, nil
}

// envValue renders an update value for environment export.
func envValue(value any) string {
	switch val := value.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}
