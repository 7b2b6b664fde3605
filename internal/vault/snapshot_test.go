package vault

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeKV2 serves a minimal KV v2 API backed by an in-memory map and records
// every write payload it receives.
type fakeKV2 struct {
	mu      sync.Mutex
	secrets map[string]map[string]string
	writes  map[string]map[string]any
}

func newFakeKV2(secrets map[string]map[string]string) *fakeKV2 {
	return &fakeKV2{secrets: secrets, writes: map[string]map[string]any{}}
}

func (f *fakeKV2) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kvPath := strings.TrimPrefix(r.URL.Path, "/v1/secret/data/")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := f.secrets[kvPath]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"errors": []string{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 1},
			},
		})

	case http.MethodPut, http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.writes[kvPath], _ = body["data"].(map[string]any)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func testBridge(t *testing.T, fake *fakeKV2) *Bridge {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	bridge, err := NewBridge(server.URL, "secret", "test-token")
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}
	return bridge
}

func TestFetchSnapshot(t *testing.T) {
	fake := newFakeKV2(map[string]map[string]string{
		"shared/db/password": {"value": "db-secret"},
		"myapp/api/token":    {"token": "single-key"},
	})
	bridge := testBridge(t, fake)

	snapshot, err := bridge.FetchSnapshot([]string{
		"shared/db/password",
		"myapp/api/token",
		"absent/path",
	})
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}

	if snapshot["shared/db/password"] != "db-secret" {
		t.Errorf("db password = %q, want db-secret", snapshot["shared/db/password"])
	}
	if snapshot["myapp/api/token"] != "single-key" {
		t.Errorf("api token = %q, want the single key's value", snapshot["myapp/api/token"])
	}
	if _, ok := snapshot["absent/path"]; ok {
		t.Error("absent path should be omitted from the snapshot")
	}
}

func TestFetchSnapshot_AmbiguousPayloadFails(t *testing.T) {
	fake := newFakeKV2(map[string]map[string]string{
		"shared/multi": {"a": "1", "b": "2"},
	})
	bridge := testBridge(t, fake)

	if _, err := bridge.FetchSnapshot([]string{"shared/multi"}); err == nil {
		t.Error("expected error for ambiguous multi-key payload")
	}
}

func TestFlush(t *testing.T) {
	fake := newFakeKV2(map[string]map[string]string{})
	bridge := testBridge(t, fake)

	err := bridge.Flush(map[string]string{
		"shared/db/password": "new-secret",
		"myapp/api/token":    "new-token",
	})
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	dbWrite := fake.writes["shared/db/password"]
	if dbWrite == nil {
		t.Fatal("no write recorded for shared/db/password")
	}
	if dbWrite["value"] != "new-secret" {
		t.Errorf("value = %v, want new-secret", dbWrite["value"])
	}
	if dbWrite["password"] != "new-secret" {
		t.Errorf("password mirror = %v, want new-secret", dbWrite["password"])
	}

	tokenWrite := fake.writes["myapp/api/token"]
	if tokenWrite == nil {
		t.Fatal("no write recorded for myapp/api/token")
	}
	if _, mirrored := tokenWrite["token"]; mirrored {
		t.Error("non-conventional path should carry only the value key")
	}
}
