package secrets

import "sort"

// CollectVaultPaths walks a tree and returns every store path referenced by
// a vault-backed directive, sorted and deduplicated. The orchestrator
// prefetches these into the snapshot handed to Resolve.
func CollectVaultPaths(tree map[string]any) []string {
	seen := map[string]struct{}{}
	collectPaths(tree, seen)

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return paths
}

func collectPaths(value any, seen map[string]struct{}) {
	switch val := value.(type) {
	case map[string]any:
		for _, item := range val {
			collectPaths(item, seen)
		}
	case []any:
		for _, item := range val {
			collectPaths(item, seen)
		}
	case string:
		directive, ok := Parse(val)
		if !ok {
			return
		}
		switch directive.Kind {
		case KindAskVault, KindAskVaultOnce, KindGenToVault:
			seen[directive.VaultPath] = struct{}{}
		}
	}
}
