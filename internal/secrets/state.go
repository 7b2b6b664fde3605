package secrets

// State is the persistable side-table describing every secret the resolver
// touched. It never contains plaintext for vault-backed secrets; local
// entries carry only a truncated hash, with the plaintext stored separately
// under secrets.local in the rendered file.
type State struct {
	Local map[string]LocalEntry
	Vault map[string]VaultEntry
}

// LocalEntry records a locally generated secret.
type LocalEntry struct {
	Hash string
}

// VaultEntry records a store-backed secret. Exactly one of the retrieval or
// generation forms applies: Retrieved for values read from the store, Hash
// for values generated this side and buffered for writing.
type VaultEntry struct {
	Hash      string
	Once      bool
	Retrieved bool
}

// NewState returns an empty state table.
func NewState() State {
	return State{
		Local: map[string]LocalEntry{},
		Vault: map[string]VaultEntry{},
	}
}

// StateFromTree rebuilds a State from its tree form, as spliced out of a
// previously rendered file. Unknown or malformed entries are skipped.
func StateFromTree(tree map[string]any) State {
	st := NewState()

	if local, ok := tree["local"].(map[string]any); ok {
		for id, raw := range local {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			hash, _ := entry["hash"].(string)
			st.Local[id] = LocalEntry{Hash: hash}
		}
	}

	if vault, ok := tree["vault"].(map[string]any); ok {
		for field, raw := range vault {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			hash, _ := entry["hash"].(string)
			once, _ := entry["once"].(bool)
			retrieved, _ := entry["retrieved"].(bool)
			st.Vault[field] = VaultEntry{Hash: hash, Once: once, Retrieved: retrieved}
		}
	}

	return st
}

// Tree converts the state into its persistable tree form.
func (s State) Tree() map[string]any {
	local := make(map[string]any, len(s.Local))
	for id, entry := range s.Local {
		local[id] = map[string]any{"hash": entry.Hash}
	}

	vault := make(map[string]any, len(s.Vault))
	for field, entry := range s.Vault {
		node := map[string]any{}
		if entry.Retrieved {
			node["retrieved"] = true
		}
		if entry.Hash != "" {
			node["hash"] = entry.Hash
		}
		if entry.Once {
			node["once"] = true
		}
		vault[field] = node
	}

	return map[string]any{"local": local, "vault": vault}
}
