package secrets

import (
	"fmt"
	"sort"
	"strings"
)

// FindUnresolved walks a resolved tree and returns the dotted paths of every
// string leaf that still parses as a directive. Soft resolution failures
// surface only this way, so callers run this check before handing the
// configuration to the compose step.
func FindUnresolved(tree map[string]any) []string {
	var found []string
	findUnresolved(tree, "", &found)
	sort.Strings(found)
	return found
}

func findUnresolved(value any, path string, found *[]string) {
	switch val := value.(type) {
	case map[string]any:
		for key, item := range val {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			findUnresolved(item, childPath, found)
		}
	case []any:
		for i, item := range val {
			findUnresolved(item, fmt.Sprintf("%s[%d]", path, i), found)
		}
	case string:
		// Malformed DERIVE strings fail Parse but are still directive
		// shaped; they must be rejected too.
		if IsDirective(val) || strings.HasPrefix(val, "DERIVE:") {
			*found = append(*found, path)
		}
	}
}
