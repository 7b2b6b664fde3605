package migrate

import (
	"bytes"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Convert transforms legacy env entries into an overrides template document.
// Plain variables land under [<stack>.env]; variables whose names follow the
// legacy secret conventions become directive strings:
//
//	*_PASSWORD, *_TOKEN*          -> GEN_LOCAL:<lowercased name>
//	*_PASSWORD_DEFERED, *_DEFERED -> ASK_EXTERNAL:<name without suffix>
//
// The input slice is not mutated.
func Convert(entries []EnvEntry, stackKey string) (map[string]any, error) {
	if stackKey == "" {
		return nil, fmt.Errorf("stack key is required")
	}

	env := map[string]any{}

	for _, entry := range entries {
		env[strippedName(entry.Name)] = convertValue(entry)
	}

	return map[string]any{
		stackKey: map[string]any{
			"env": env,
		},
	}, nil
}

// FormatTOML serializes a converted document as TOML text.
func FormatTOML(doc map[string]any) (string, error) {
	var buf bytes.Buffer

	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding TOML: %w", err)
	}

	return buf.String(), nil
}

// convertValue maps one legacy entry to its template value.
func convertValue(entry EnvEntry) string {
	name := entry.Name

	if strings.HasSuffix(name, "_DEFERED") {
		return "ASK_EXTERNAL:" + strippedName(name)
	}

	if strings.HasSuffix(name, "_PASSWORD") || strings.Contains(name, "_TOKEN") {
		return "GEN_LOCAL:" + strings.ToLower(name)
	}

	return entry.Value
}

// strippedName removes the legacy metadata suffixes from a variable name.
func strippedName(name string) string {
	name = strings.TrimSuffix(name, "_DEFERED")
	return name
}
