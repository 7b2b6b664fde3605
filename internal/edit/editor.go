// Package edit performs in-place edits on hand-maintained overrides
// templates. Unlike rendered files, overrides carry user comments and
// ordering that a re-marshal would destroy, so edits go through a
// structure-preserving TOML editor.
package edit

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/creachadair/tomledit"
	"github.com/creachadair/tomledit/parser"
	"github.com/creachadair/tomledit/transform"
)

// SetKey sets a dotted key to a string value in the TOML file at filePath,
// preserving all existing comments, formatting, and ordering. The section
// for all but the last segment is created when missing.
func SetKey(filePath, dottedKey, value string) error {
	doc, err := readDoc(filePath)
	if err != nil {
		return err
	}

	segments := strings.Split(dottedKey, ".")
	keyName := segments[len(segments)-1]
	sectionKey := segments[:len(segments)-1]

	if entry := doc.First(segments...); entry != nil && entry.KeyValue != nil {
		entry.KeyValue.Value = parser.MustValue(fmt.Sprintf("%q", value))
		return writeDoc(filePath, doc)
	}

	section := findSection(doc, sectionKey)
	if section == nil {
		section = createSection(doc, sectionKey)
	}

	kv := &parser.KeyValue{
		Name:  parser.Key{keyName},
		Value: parser.MustValue(fmt.Sprintf("%q", value)),
	}
	transform.InsertMapping(section, kv, false)

	return writeDoc(filePath, doc)
}

// DeleteKey removes a dotted key from the TOML file at filePath.
func DeleteKey(filePath, dottedKey string) error {
	doc, err := readDoc(filePath)
	if err != nil {
		return err
	}

	segments := strings.Split(dottedKey, ".")
	entry := doc.First(segments...)
	if entry == nil {
		return fmt.Errorf("key %q not found in %s", dottedKey, filePath)
	}

	if !entry.Remove() {
		return fmt.Errorf("removing key %q from %s", dottedKey, filePath)
	}

	return writeDoc(filePath, doc)
}

// findSection returns the table section matching the key path, or nil. An
// empty key path addresses the document's root section.
func findSection(doc *tomledit.Document, key []string) *tomledit.Section {
	if len(key) == 0 {
		return doc.Global
	}

	for _, entry := range doc.Find(key...) {
		if entry.IsSection() {
			return entry.Section
		}
	}

	return nil
}

// createSection appends a new table section for the key path and returns it.
func createSection(doc *tomledit.Document, key []string) *tomledit.Section {
	section := &tomledit.Section{
		Heading: &parser.Heading{Name: parser.Key(key)},
	}

	doc.Sections = append(doc.Sections, section)
	return section
}

// readDoc reads and parses a TOML file into an editable document tree.
func readDoc(filePath string) (*tomledit.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	doc, err := tomledit.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML in %s: %w", filePath, err)
	}

	return doc, nil
}

// writeDoc writes the document back to disk, keeping the original file
// permissions.
func writeDoc(filePath string, doc *tomledit.Document) error {
	var buf bytes.Buffer
	var fmtr tomledit.Formatter
	if err := fmtr.Format(&buf, doc); err != nil {
		return fmt.Errorf("formatting TOML: %w", err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(filePath); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.WriteFile(filePath, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("writing %s: %w", filePath, err)
	}

	return nil
}
