// Package migrate converts legacy .env.sample files into overrides template
// skeletons. The legacy format encoded secret metadata in variable names
// (FOO_PASSWORD, BAR_TOKEN_HEX32); the converter maps those conventions to
// secret directives so the resolver takes over generation.
package migrate

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// EnvEntry is one variable parsed from a legacy env file.
type EnvEntry struct {
	Name  string
	Value string
}

// ParseEnvFile reads a legacy KEY=VALUE env file. Comment and blank lines
// are skipped; surrounding single or double quotes on values are stripped.
// Order is preserved.
func ParseEnvFile(path string) ([]EnvEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	defer f.Close()

	var entries []EnvEntry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		entries = append(entries, EnvEntry{
			Name:  strings.TrimSpace(name),
			Value: unquote(strings.TrimSpace(value)),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return entries, nil
}

// unquote strips one matching pair of surrounding quotes.
func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
