package secrets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dst-dns/ciu/internal/config"
)

// ErrDirectiveResolution reports a fatal resolution failure: a required
// vault path missing from the snapshot. No partially resolved tree is
// trusted once this fires; callers re-run from scratch.
var ErrDirectiveResolution = errors.New("secret directive resolution failed")

// Resolver walks a fully merged configuration tree and replaces directive
// string leaves with concrete values. It is deterministic and network-free:
// vault-backed values come exclusively from a pre-fetched snapshot, and
// pending writes are handed back to the caller in a buffer.
type Resolver struct {
	env map[string]string
}

// NewResolver creates a Resolver bound to an environment snapshot used for
// ASK_EXTERNAL lookups.
func NewResolver(env map[string]string) *Resolver {
	if env == nil {
		env = map[string]string{}
	}
	return &Resolver{env: env}
}

// Result is the output of one resolution run.
type Result struct {
	// Tree is the resolved configuration, with secrets.local holding local
	// plaintexts and secrets.state holding the state side-table.
	Tree config.Tree
	// State is the persistable side-table.
	State State
	// Buffer maps store paths to plaintext values generated this run that
	// the caller must push to the secret store. In-memory only.
	Buffer map[string]string
}

// Resolve performs one depth-first walk over tree, resolving every directive
// leaf. The input tree is not mutated. Prior state and locally generated
// plaintexts are picked up from the tree's secrets subtree when the caller
// spliced a previous run's rendered output in, which makes repeated runs
// reproduce identical local and once-generated values.
func (r *Resolver) Resolve(tree config.Tree, snapshot map[string]string) (*Result, error) {
	working := config.CloneTree(tree)

	locals := ensureTable(ensureTable(working, "secrets"), "local")

	st := NewState()
	if secTree, ok := working["secrets"].(map[string]any); ok {
		if stTree, ok := secTree["state"].(map[string]any); ok {
			st = StateFromTree(stTree)
		}
	}

	w := &walker{
		resolver: r,
		tree:     working,
		locals:   locals,
		state:    st,
		known:    copyStringMap(snapshot),
		buffer:   map[string]string{},
	}

	if err := w.walkTable(working, ""); err != nil {
		return nil, err
	}

	secTree := ensureTable(working, "secrets")
	secTree["local"] = locals
	secTree["state"] = st.Tree()

	return &Result{Tree: working, State: st, Buffer: w.buffer}, nil
}

// walker carries the mutable resolution context through one depth-first
// traversal. The tree is resolved in place so DERIVE sources visited earlier
// in the walk are seen in their resolved form.
type walker struct {
	resolver *Resolver
	tree     config.Tree
	locals   map[string]any
	state    State
	// known holds every plaintext available for vault paths: the snapshot
	// plus values generated during this walk.
	known map[string]string
	// buffer holds only the values generated this walk, pending a store
	// write by the caller.
	buffer map[string]string
}

// walkTable resolves every entry of a table in sorted key order, keeping the
// traversal deterministic.
func (w *walker) walkTable(table map[string]any, path string) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}

		resolved, err := w.walkValue(table[key], childPath)
		if err != nil {
			return err
		}
		table[key] = resolved
	}

	return nil
}

func (w *walker) walkValue(value any, path string) (any, error) {
	switch val := value.(type) {
	case map[string]any:
		if err := w.walkTable(val, path); err != nil {
			return nil, err
		}
		return val, nil

	case []any:
		for i, item := range val {
			resolved, err := w.walkValue(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			val[i] = resolved
		}
		return val, nil

	case string:
		return w.resolveString(val, path)

	default:
		return value, nil
	}
}

// resolveString resolves a single string leaf. Unrecognized strings and soft
// failures pass through as literals.
func (w *walker) resolveString(value string, path string) (any, error) {
	directive, ok := Parse(value)
	if !ok {
		return value, nil
	}

	switch directive.Kind {
	case KindGenLocal:
		return w.resolveGenLocal(directive.ID), nil

	case KindEphemeral:
		return NewToken(), nil

	case KindAskExternal:
		if env, ok := w.resolver.env[directive.EnvVar]; ok {
			return env, nil
		}
		return value, nil

	case KindDerive:
		return w.resolveDerive(directive, value, path), nil

	case KindAskVault:
		if plaintext, ok := w.known[directive.VaultPath]; ok {
			w.state.Vault[lastSegment(path)] = VaultEntry{Retrieved: true}
			return plaintext, nil
		}
		return nil, fmt.Errorf("vault secret %q required at %s is not in the store snapshot: %w",
			directive.VaultPath, path, ErrDirectiveResolution)

	case KindAskVaultOnce:
		return w.resolveVaultGenerate(directive.VaultPath, path, true), nil

	case KindGenToVault:
		return w.resolveVaultGenerate(directive.VaultPath, path, false), nil
	}

	return value, nil
}

// resolveGenLocal reuses a previously generated local plaintext when the
// caller carried it forward, generating and recording a new one otherwise.
func (w *walker) resolveGenLocal(id string) string {
	if existing, ok := w.locals[id].(string); ok && existing != "" {
		return existing
	}

	token := NewToken()
	w.locals[id] = token
	w.state.Local[id] = LocalEntry{Hash: ShortHash(token)}

	return token
}

// resolveDerive hashes the value at the directive's source path. Absent or
// empty sources (the empty string, false, zero, empty containers) and
// unsupported algorithms are soft failures: the literal directive stays in
// the output for a downstream validator to reject.
func (w *walker) resolveDerive(directive Directive, literal string, path string) any {
	source := config.GetPath(w.tree, directive.SourcePath)
	if emptyDeriveSource(source) {
		log.Debug().Str("path", path).Str("source", directive.SourcePath).
			Msg("derive source is empty, keeping literal")
		return literal
	}

	if directive.Algo != "sha256" {
		log.Debug().Str("path", path).Str("algo", directive.Algo).
			Msg("unsupported derive algorithm, keeping literal")
		return literal
	}

	return Sha256Hex(stringify(source))
}

// emptyDeriveSource reports whether a source value counts as absent for
// derivation: nil, the empty string, false, numeric zero, or an empty
// container. Such leaves hold no material worth hashing.
func emptyDeriveSource(value any) bool {
	switch val := value.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case int64:
		return val == 0
	case float64:
		return val == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// resolveVaultGenerate implements the generate-if-absent directives. A value
// already in the snapshot is reused and marked retrieved; a value generated
// earlier in this walk is reused as-is; otherwise a fresh token is generated
// and buffered for a store write.
func (w *walker) resolveVaultGenerate(vaultPath string, path string, once bool) string {
	field := lastSegment(path)

	if plaintext, ok := w.known[vaultPath]; ok {
		if _, pending := w.buffer[vaultPath]; !pending {
			if once {
				w.state.Vault[field] = VaultEntry{Retrieved: true, Once: once}
			}
			return plaintext
		}
		return plaintext
	}

	token := NewToken()
	w.known[vaultPath] = token
	w.buffer[vaultPath] = token
	w.state.Vault[field] = VaultEntry{Hash: ShortHash(token), Once: once}

	return token
}

// lastSegment returns the final dotted segment of a walk path. State entries
// are keyed by this field name alone; see the resolver docs for the known
// collision caveat between equal field names under different parents.
func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func ensureTable(table map[string]any, key string) map[string]any {
	if sub, ok := table[key].(map[string]any); ok {
		return sub
	}
	sub := map[string]any{}
	table[key] = sub
	return sub
}

func copyStringMap(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func stringify(value any) string {
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
