package render

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnresolvedEnvironment reports $VAR / ${VAR} references that remain
// unbound after expansion. Rendering fails fast rather than emitting a
// partially expanded document.
var ErrUnresolvedEnvironment = errors.New("unresolved environment references")

var envRefPattern = regexp.MustCompile(`\$(\w+)|\$\{([^}]+)\}`)

// ExpandEnv replaces every $VAR and ${VAR} reference in text with the value
// from the environment snapshot. A reference whose variable is unset or
// empty is an error; every missing name is reported at once. The source
// string names the file being expanded for error context.
func ExpandEnv(text string, env map[string]string, source string) (string, error) {
	missing := map[string]struct{}{}

	expanded := envRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := refName(match)
		value := env[name]
		if value == "" {
			missing[name] = struct{}{}
			return match
		}
		return value
	})

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)

		return "", fmt.Errorf("expanding %s: missing values for %s: %w",
			source, strings.Join(names, ", "), ErrUnresolvedEnvironment)
	}

	return expanded, nil
}

// refName extracts the variable name from a matched $VAR or ${VAR} token.
func refName(match string) string {
	groups := envRefPattern.FindStringSubmatch(match)
	if groups[1] != "" {
		return groups[1]
	}
	return groups[2]
}
