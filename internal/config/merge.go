package config

// Merge combines two configuration trees key-level. For each override key,
// table values on both sides recurse; any other combination (scalars, lists,
// type changes) replaces the base value wholesale. Keys only present in base
// survive unchanged. Neither input is mutated; the result shares no tables
// or lists with either input.
//
// Layers must be merged in root-to-leaf order so the deepest layer defining
// a key wins.
func Merge(base, override Tree) Tree {
	result := make(Tree, len(base)+len(override))

	for k, v := range base {
		result[k] = CloneValue(v)
	}

	for k, v := range override {
		baseTable, baseIsTable := result[k].(map[string]any)
		overTable, overIsTable := v.(map[string]any)

		if baseIsTable && overIsTable {
			result[k] = Merge(baseTable, overTable)
			continue
		}

		result[k] = CloneValue(v)
	}

	return result
}
