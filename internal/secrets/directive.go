// Package secrets resolves directive strings inside a merged configuration
// tree into concrete values: locally generated tokens, vault-backed secrets,
// derived hashes, or externally supplied values.
package secrets

import "strings"

// Kind identifies a directive category.
type Kind int

const (
	// KindNone marks a string that is not a directive.
	KindNone Kind = iota
	// KindGenLocal generates a token once and persists it locally.
	KindGenLocal
	// KindEphemeral generates a fresh token every run, never persisted.
	KindEphemeral
	// KindAskExternal substitutes an environment variable when set.
	KindAskExternal
	// KindDerive hashes the value found at another path in the same tree.
	KindDerive
	// KindAskVault requires the secret to already exist in the store.
	KindAskVault
	// KindAskVaultOnce uses the stored value, generating and buffering a
	// one-time write when absent.
	KindAskVaultOnce
	// KindGenToVault generates when absent and buffers the write.
	KindGenToVault
)

// Directive is a parsed secret directive. Exactly the fields relevant to the
// Kind are set: ID for GenLocal, EnvVar for AskExternal, Algo and SourcePath
// for Derive, VaultPath for the vault-backed kinds.
type Directive struct {
	Kind       Kind
	ID         string
	EnvVar     string
	Algo       string
	SourcePath string
	VaultPath  string
}

// Parse classifies a string leaf. Returns false when the string is not a
// recognized directive and must be kept as a literal value. A DERIVE with a
// missing payload segment is not recognized; the malformed literal survives
// for a downstream validator to reject.
func Parse(value string) (Directive, bool) {
	switch {
	case value == "GEN_EPHEMERAL":
		return Directive{Kind: KindEphemeral}, true

	case strings.HasPrefix(value, "GEN_LOCAL:"):
		return Directive{Kind: KindGenLocal, ID: strings.TrimPrefix(value, "GEN_LOCAL:")}, true

	case strings.HasPrefix(value, "ASK_EXTERNAL:"):
		return Directive{Kind: KindAskExternal, EnvVar: strings.TrimPrefix(value, "ASK_EXTERNAL:")}, true

	case strings.HasPrefix(value, "DERIVE:"):
		parts := strings.SplitN(value, ":", 3)
		if len(parts) != 3 {
			return Directive{}, false
		}
		return Directive{Kind: KindDerive, Algo: parts[1], SourcePath: parts[2]}, true

	case strings.HasPrefix(value, "ASK_VAULT_ONCE:"):
		return Directive{Kind: KindAskVaultOnce, VaultPath: strings.TrimPrefix(value, "ASK_VAULT_ONCE:")}, true

	case strings.HasPrefix(value, "ASK_VAULT:"):
		return Directive{Kind: KindAskVault, VaultPath: strings.TrimPrefix(value, "ASK_VAULT:")}, true

	case strings.HasPrefix(value, "GEN_TO_VAULT:"):
		return Directive{Kind: KindGenToVault, VaultPath: strings.TrimPrefix(value, "GEN_TO_VAULT:")}, true

	case strings.HasPrefix(value, "GEN:"):
		// Short alias with identical generate-if-absent semantics.
		return Directive{Kind: KindGenToVault, VaultPath: strings.TrimPrefix(value, "GEN:")}, true
	}

	return Directive{}, false
}

// IsDirective reports whether value parses as a directive. Used by the
// post-resolution validator to detect leftover directive-shaped strings.
func IsDirective(value string) bool {
	_, ok := Parse(value)
	return ok
}
