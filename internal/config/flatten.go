package config

import (
	"fmt"
	"strings"
)

// FlattenEnv flattens a configuration tree into environment-variable form.
// Nested keys join with underscores and uppercase (deploy.registry.url
// becomes DEPLOY_REGISTRY_URL). An env subtree at any level passes its keys
// through as ENV_<KEY> with the key case preserved. Lists join with commas;
// booleans render as true/false; nil renders as the empty string.
func FlattenEnv(tree Tree) map[string]string {
	items := make(map[string]string)
	flattenInto(items, tree, "")
	return items
}

func flattenInto(items map[string]string, tree Tree, parent string) {
	for key, value := range tree {
		if key == "env" {
			if envTable, ok := value.(map[string]any); ok {
				for envKey, envVal := range envTable {
					items["ENV_"+envKey] = stringifyEnvValue(envVal)
				}
				continue
			}
		}

		name := key
		if parent != "" {
			name = parent + "_" + key
		}

		switch val := value.(type) {
		case map[string]any:
			flattenInto(items, val, name)
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = stringifyEnvValue(item)
			}
			items[strings.ToUpper(name)] = strings.Join(parts, ",")
		default:
			items[strings.ToUpper(name)] = stringifyEnvValue(val)
		}
	}
}

// stringifyEnvValue renders a scalar the way shell environments expect.
func stringifyEnvValue(value any) string {
	switch val := value.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
