package vault

import (
	"fmt"
	"path"
	"strings"
)

// Read reads all key-value pairs stored at the given KV v2 path relative to
// the mount. Returns nil with no error when the path does not exist; any
// other failure is an error.
func (b *Bridge) Read(kvPath string) (map[string]string, error) {
	fullPath := buildKV2Path(b.mount, kvPath)

	secret, err := b.inner.Logical().Read(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading KV path %q: %w", kvPath, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	return extractKV2Data(secret.Data, kvPath)
}

// Write stores a payload at the given KV v2 path. Any non-success response
// is fatal and is not retried.
func (b *Bridge) Write(kvPath string, payload map[string]string) error {
	fullPath := buildKV2Path(b.mount, kvPath)

	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}

	if _, err := b.inner.Logical().Write(fullPath, map[string]any{"data": data}); err != nil {
		return fmt.Errorf("writing KV path %q: %w", kvPath, err)
	}

	return nil
}

// buildKV2Path constructs the full KV v2 API path by inserting "data"
// between the mount point and the secret path.
func buildKV2Path(mount string, kvPath string) string {
	return path.Join(mount, "data", kvPath)
}

// extractKV2Data parses the nested KV v2 response structure. The API returns
// the payload in response.Data["data"] as a nested map. A missing or empty
// payload reads as absent.
func extractKV2Data(responseData map[string]any, kvPath string) (map[string]string, error) {
	dataRaw, ok := responseData["data"]
	if !ok || dataRaw == nil {
		return nil, nil
	}

	dataMap, ok := dataRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("reading KV path %q: unexpected data format", kvPath)
	}

	result := make(map[string]string, len(dataMap))
	for key, val := range dataMap {
		str, ok := val.(string)
		if !ok {
			continue
		}
		result[key] = str
	}

	// A payload with no string values has nothing usable; it reads as
	// absent rather than surfacing a confusing extraction error later.
	if len(result) == 0 {
		return nil, nil
	}

	return result, nil
}

// ExtractValue pulls the single canonical secret out of a KV payload. A
// payload counts as single-valued when it has a "value" key or exactly one
// key overall; anything else is ambiguous and fails.
func ExtractValue(data map[string]string, kvPath string) (string, error) {
	if value, ok := data["value"]; ok {
		return value, nil
	}

	if len(data) == 1 {
		for _, value := range data {
			return value, nil
		}
	}

	return "", fmt.Errorf("vault secret at %q contains multiple keys and no %q key; cannot determine the canonical value", kvPath, "value")
}

// BuildPayload builds a KV payload for a single-value secret. The payload
// always carries the value under "value"; when the path ends in a
// conventional suffix the value is mirrored under that key too, so
// consumers reading by convention find it.
func BuildPayload(kvPath string, secret string) map[string]string {
	payload := map[string]string{"value": secret}

	for _, suffix := range []string{"password", "access_key", "secret_key"} {
		if strings.HasSuffix(kvPath, suffix) {
			payload[suffix] = secret
		}
	}

	return payload
}
