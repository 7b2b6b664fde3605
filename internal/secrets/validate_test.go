package secrets

import (
	"reflect"
	"testing"
)

func TestFindUnresolved(t *testing.T) {
	tree := map[string]any{
		"myapp": map[string]any{
			"resolved": "plain value",
			"missing":  "ASK_EXTERNAL:NEVER_SET",
			"broken":   "DERIVE:sha256",
			"nested": map[string]any{
				"leftover": "GEN_LOCAL:leftover",
			},
		},
	}

	got := FindUnresolved(tree)

	want := []string{"myapp.broken", "myapp.missing", "myapp.nested.leftover"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindUnresolved() = %v, want %v", got, want)
	}
}

func TestFindUnresolved_CleanTree(t *testing.T) {
	tree := map[string]any{
		"myapp": map[string]any{"value": "resolved", "port": int64(8080)},
	}

	if got := FindUnresolved(tree); len(got) != 0 {
		t.Errorf("FindUnresolved() = %v, want none", got)
	}
}
