package hooks

import "testing"

func TestNormalizeUpdate(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    Update
		wantErr bool
	}{
		{
			name: "flat value persists to env",
			raw:  "plain",
			want: Update{Path: "p", Value: "plain", Persist: PersistEnv, Source: "unit"},
		},
		{
			name: "table without value key is itself the value",
			raw:  map[string]any{"nested": "table"},
			want: Update{Path: "p", Value: map[string]any{"nested": "table"}, Persist: PersistEnv, Source: "unit"},
		},
		{
			name: "explicit persist target honored",
			raw:  map[string]any{"value": "v", "persist": "toml"},
			want: Update{Path: "p", Value: "v", Persist: PersistTOML, Source: "unit"},
		},
		{
			name: "auto resolves to toml for non-sensitive",
			raw:  map[string]any{"value": "v", "persist": "auto"},
			want: Update{Path: "p", Value: "v", Persist: PersistTOML, Source: "unit"},
		},
		{
			name: "auto resolves to env for sensitive",
			raw:  map[string]any{"value": "v", "persist": "auto", "sensitive": true},
			want: Update{Path: "p", Value: "v", Persist: PersistEnv, Sensitive: true, Source: "unit"},
		},
		{
			name: "apply to config flag carried",
			raw:  map[string]any{"value": "v", "apply_to_config": true},
			want: Update{Path: "p", Value: "v", Persist: PersistEnv, ApplyToConfig: true, Source: "unit"},
		},
		{
			name:    "unknown persist target fails",
			raw:     map[string]any{"value": "v", "persist": "database"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeUpdate("p", tt.raw, "unit")
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if table, ok := tt.want.Value.(map[string]any); ok {
				gotTable, isTable := got.Value.(map[string]any)
				if !isTable || gotTable["nested"] != table["nested"] {
					t.Errorf("Value = %v, want %v", got.Value, tt.want.Value)
				}
				got.Value, tt.want.Value = nil, nil
			}
			if got != tt.want {
				t.Errorf("normalizeUpdate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEnvName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"DEPLOY_HOSTNAME", "DEPLOY_HOSTNAME"},
		{"myapp.registry.url", "MYAPP_REGISTRY_URL"},
		{"a.b", "A_B"},
	}

	for _, tt := range tests {
		if got := envName(tt.path); got != tt.want {
			t.Errorf("envName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEnvValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "s", "s"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"nil", nil, ""},
		{"int", 42, "42"},
	}

	for _, tt := range tests {
		if got := envValue(tt.value); got != tt.want {
			t.Errorf("envValue(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
