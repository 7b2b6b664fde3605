package secrets

import (
	"reflect"
	"testing"
)

func TestCollectVaultPaths(t *testing.T) {
	tree := map[string]any{
		"myapp": map[string]any{
			"db_password": "ASK_VAULT:shared/db/password",
			"api_token":   "GEN_TO_VAULT:myapp/api/token",
			"signing_key": "ASK_VAULT_ONCE:myapp/signing/key",
			"plain":       "not a directive",
			"local_token": "GEN_LOCAL:local_token",
			"nested": map[string]any{
				"dup": "GEN:myapp/api/token",
			},
			"list": []any{"ASK_VAULT:shared/list/secret"},
		},
	}

	got := CollectVaultPaths(tree)

	want := []string{
		"myapp/api/token",
		"myapp/signing/key",
		"shared/db/password",
		"shared/list/secret",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectVaultPaths() = %v, want %v", got, want)
	}
}

func TestCollectVaultPaths_Empty(t *testing.T) {
	got := CollectVaultPaths(map[string]any{"plain": "value"})
	if len(got) != 0 {
		t.Errorf("CollectVaultPaths() = %v, want none", got)
	}
}
