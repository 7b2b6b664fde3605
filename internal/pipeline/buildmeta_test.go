package pipeline

import (
	"testing"

	"github.com/dst-dns/ciu/internal/config"
)

func TestInjectBuildMetadata(t *testing.T) {
	tree := config.Tree{}

	injectBuildMetadata(tree, t.TempDir())

	meta, ok := tree["auto_generated"].(map[string]any)
	if !ok {
		t.Fatal("auto_generated table not created")
	}
	// Outside a git checkout the version falls back to dev.
	if meta["build_version"] != "dev" {
		t.Errorf("build_version = %v, want dev", meta["build_version"])
	}
	if meta["build_time"] == "" {
		t.Error("build_time not set")
	}
}

func TestInjectBuildMetadata_KeepsExistingKeys(t *testing.T) {
	tree := config.Tree{
		"auto_generated": map[string]any{"custom": "kept"},
	}

	injectBuildMetadata(tree, t.TempDir())

	meta := tree["auto_generated"].(map[string]any)
	if meta["custom"] != "kept" {
		t.Error("existing auto_generated key lost")
	}
}
