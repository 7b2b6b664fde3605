package config

import "strings"

// Tree is a parsed TOML document: string keys mapping to nested tables
// (map[string]any), lists ([]any), or scalars. There is no fixed schema;
// any leaf may carry a secret directive string.
type Tree = map[string]any

// CloneTree returns a deep copy of a tree. Nested tables and lists are
// copied recursively; scalars are shared (they are immutable).
func CloneTree(t Tree) Tree {
	if t == nil {
		return nil
	}

	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = CloneValue(v)
	}

	return out
}

// CloneValue deep-copies a single tree value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneTree(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// GetPath looks up a value by dotted path. A single segment without dots is
// a direct key lookup. Missing segments or traversal through a non-table
// value return the empty string, matching how derive sources treat absent
// paths.
func GetPath(t Tree, path string) any {
	if !strings.Contains(path, ".") {
		if v, ok := t[path]; ok {
			return v
		}
		return ""
	}

	var current any = map[string]any(t)
	for _, part := range strings.Split(path, ".") {
		table, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = table[part]
		if !ok {
			return ""
		}
	}

	return current
}

// SetPath writes a value at a dotted path, creating intermediate tables as
// needed. Non-table intermediate values are replaced by tables.
func SetPath(t Tree, path string, value any) {
	parts := strings.Split(path, ".")
	cursor := t

	for _, part := range parts[:len(parts)-1] {
		next, ok := cursor[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cursor[part] = next
		}
		cursor = next
	}

	cursor[parts[len(parts)-1]] = value
}
