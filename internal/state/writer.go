// Package state persists small dotted-path updates onto rendered TOML files.
// Files are always rewritten whole: structural changes such as new tables
// cannot be safely expressed as line edits.
package state

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// defaultMode is used for newly created files. Rendered files can carry
// locally generated secret material, so they are not group or world readable.
const defaultMode fs.FileMode = 0o600

// Apply loads the TOML file at path (or starts from an empty document when it
// does not exist), sets each dotted-path update into the nested structure,
// and atomically rewrites the whole file.
func Apply(path string, updates map[string]any) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}

	for key, value := range updates {
		setNested(doc, key, value)
	}

	return WriteDocument(path, doc)
}

// WriteDocument serializes doc as TOML and writes it to path atomically via
// a temp file and rename. An existing file keeps its permissions; new files
// are created with owner-only access.
func WriteDocument(path string, doc map[string]any) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding TOML for %s: %w", path, err)
	}

	mode := defaultMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting mode on temp file for %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}

// LoadDocument parses an existing TOML file, or returns an empty document
// when the file does not exist.
func LoadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if doc == nil {
		doc = map[string]any{}
	}

	return doc, nil
}

// setNested writes a value at a dotted path, creating intermediate tables
// and replacing non-table intermediates.
func setNested(doc map[string]any, dotted string, value any) {
	parts := strings.Split(dotted, ".")
	cursor := doc

	for _, part := range parts[:len(parts)-1] {
		next, ok := cursor[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cursor[part] = next
		}
		cursor = next
	}

	cursor[parts[len(parts)-1]] = value
}
