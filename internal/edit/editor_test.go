package edit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
)

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ciu.toml.j2")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func parseFile(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing %s: %v\n%s", path, err, data)
	}
	return doc
}

func TestSetKey_UpdatesExistingValue(t *testing.T) {
	path := writeTOML(t, "# pool size tuned for the small droplet\n[database]\npool_size = \"5\"\n")

	if err := SetKey(path, "database.pool_size", "20"); err != nil {
		t.Fatalf("SetKey() error = %v", err)
	}

	doc := parseFile(t, path)
	if doc["database"].(map[string]any)["pool_size"] != "20" {
		t.Errorf("pool_size = %v, want 20", doc["database"].(map[string]any)["pool_size"])
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# pool size tuned for the small droplet") {
		t.Error("comment lost while updating a value")
	}
}

func TestSetKey_InsertsIntoExistingSection(t *testing.T) {
	path := writeTOML(t, "[database]\nhost = \"localhost\"\n")

	if err := SetKey(path, "database.port", "5432"); err != nil {
		t.Fatalf("SetKey() error = %v", err)
	}

	doc := parseFile(t, path)
	db := doc["database"].(map[string]any)
	if db["port"] != "5432" {
		t.Errorf("port = %v, want 5432", db["port"])
	}
	if db["host"] != "localhost" {
		t.Errorf("host = %v, want existing key kept", db["host"])
	}
}

func TestSetKey_CreatesMissingSection(t *testing.T) {
	path := writeTOML(t, "[myapp]\nname = \"svc\"\n")

	if err := SetKey(path, "database.credentials.user", "admin"); err != nil {
		t.Fatalf("SetKey() error = %v", err)
	}

	doc := parseFile(t, path)
	if got := doc["database"].(map[string]any)["credentials"].(map[string]any)["user"]; got != "admin" {
		t.Errorf("user = %v, want admin in a created section", got)
	}
}

func TestSetKey_RootLevelKey(t *testing.T) {
	path := writeTOML(t, "existing = \"kept\"\n")

	if err := SetKey(path, "added", "new"); err != nil {
		t.Fatalf("SetKey() error = %v", err)
	}

	doc := parseFile(t, path)
	if doc["added"] != "new" {
		t.Errorf("added = %v, want new", doc["added"])
	}
	if doc["existing"] != "kept" {
		t.Errorf("existing = %v, want kept", doc["existing"])
	}
}

func TestDeleteKey(t *testing.T) {
	path := writeTOML(t, "[database]\nhost = \"localhost\"\nport = \"5432\"\n")

	if err := DeleteKey(path, "database.port"); err != nil {
		t.Fatalf("DeleteKey() error = %v", err)
	}

	doc := parseFile(t, path)
	db := doc["database"].(map[string]any)
	if _, ok := db["port"]; ok {
		t.Error("port still present after delete")
	}
	if db["host"] != "localhost" {
		t.Error("sibling key lost on delete")
	}
}

func TestDeleteKey_Missing(t *testing.T) {
	path := writeTOML(t, "[database]\nhost = \"localhost\"\n")

	if err := DeleteKey(path, "database.absent"); err == nil {
		t.Error("expected error deleting a missing key")
	}
}

func TestSetKey_PreservesFileMode(t *testing.T) {
	path := writeTOML(t, "[database]\nhost = \"localhost\"\n")
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := SetKey(path, "database.host", "db.internal"); err != nil {
		t.Fatalf("SetKey() error = %v", err)
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %o, want 600 preserved", info.Mode().Perm())
	}
}
