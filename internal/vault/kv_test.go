package vault

import (
	"reflect"
	"testing"
)

func TestBuildKV2Path(t *testing.T) {
	tests := []struct {
		name   string
		mount  string
		kvPath string
		want   string
	}{
		{
			name:   "standard path",
			mount:  "secret",
			kvPath: "shared/db/password",
			want:   "secret/data/shared/db/password",
		},
		{
			name:   "custom mount",
			mount:  "kv",
			kvPath: "myapp/api/token",
			want:   "kv/data/myapp/api/token",
		},
		{
			name:   "single segment path",
			mount:  "secret",
			kvPath: "keys",
			want:   "secret/data/keys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildKV2Path(tt.mount, tt.kvPath)
			if got != tt.want {
				t.Errorf("buildKV2Path(%q, %q) = %q, want %q", tt.mount, tt.kvPath, got, tt.want)
			}
		})
	}
}

func TestExtractKV2Data(t *testing.T) {
	tests := []struct {
		name         string
		responseData map[string]any
		want         map[string]string
		wantNil      bool
	}{
		{
			name: "valid data",
			responseData: map[string]any{
				"data": map[string]any{
					"value":    "s3cret",
					"password": "s3cret",
				},
				"metadata": map[string]any{"version": 1},
			},
			want: map[string]string{"value": "s3cret", "password": "s3cret"},
		},
		{
			name:         "missing data key reads as absent",
			responseData: map[string]any{},
			wantNil:      true,
		},
		{
			name: "non-string values are skipped",
			responseData: map[string]any{
				"data": map[string]any{
					"value": "keep",
					"port":  5432,
				},
			},
			want: map[string]string{"value": "keep"},
		},
		{
			name: "only non-string values reads as absent",
			responseData: map[string]any{
				"data": map[string]any{
					"port":    5432,
					"enabled": true,
				},
			},
			wantNil: true,
		},
		{
			name: "empty data table reads as absent",
			responseData: map[string]any{
				"data": map[string]any{},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractKV2Data(tt.responseData, "test/path")
			if err != nil {
				t.Fatalf("extractKV2Data() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("extractKV2Data() = %v, want nil", got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractKV2Data() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractKV2Data_UnexpectedFormat(t *testing.T) {
	_, err := extractKV2Data(map[string]any{"data": "not a map"}, "test/path")
	if err == nil {
		t.Error("expected error for non-map data payload")
	}
}

func TestExtractValue(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]string
		want    string
		wantErr bool
	}{
		{
			name: "value key wins",
			data: map[string]string{"value": "canonical", "password": "other"},
			want: "canonical",
		},
		{
			name: "single key without value",
			data: map[string]string{"password": "only"},
			want: "only",
		},
		{
			name:    "multiple keys without value is ambiguous",
			data:    map[string]string{"a": "1", "b": "2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractValue(tt.data, "test/path")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPayload(t *testing.T) {
	tests := []struct {
		name   string
		kvPath string
		want   map[string]string
	}{
		{
			name:   "plain path",
			kvPath: "myapp/api/token",
			want:   map[string]string{"value": "tok"},
		},
		{
			name:   "password suffix mirrored",
			kvPath: "shared/db/password",
			want:   map[string]string{"value": "tok", "password": "tok"},
		},
		{
			name:   "access key suffix mirrored",
			kvPath: "myapp/s3/access_key",
			want:   map[string]string{"value": "tok", "access_key": "tok"},
		},
		{
			name:   "secret key suffix mirrored",
			kvPath: "myapp/s3/secret_key",
			want:   map[string]string{"value": "tok", "secret_key": "tok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPayload(tt.kvPath, "tok")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildPayload(%q) = %v, want %v", tt.kvPath, got, tt.want)
			}
		})
	}
}

func TestNewBridge_Validation(t *testing.T) {
	if _, err := NewBridge("", "secret", "tok"); err == nil {
		t.Error("expected error for missing address")
	}
	if _, err := NewBridge("http://127.0.0.1:8200", "secret", ""); err == nil {
		t.Error("expected error for missing token")
	}
	bridge, err := NewBridge("http://127.0.0.1:8200", "", "tok")
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}
	if bridge.mount != "secret" {
		t.Errorf("mount = %q, want the default secret", bridge.mount)
	}
}
