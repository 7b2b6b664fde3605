// Package render turns TOML templates into parsed configuration trees.
// Rendering is a three step process: template execution against the
// accumulated configuration, literal $VAR / ${VAR} expansion against an
// environment snapshot, and a TOML parse of the result.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	toml "github.com/pelletier/go-toml/v2"
)

// Renderer renders template files against a configuration context and an
// immutable environment snapshot. It never reads the process environment
// itself; the snapshot is taken once by the caller.
type Renderer struct {
	env map[string]string
}

// NewRenderer creates a Renderer bound to the given environment snapshot.
func NewRenderer(env map[string]string) *Renderer {
	if env == nil {
		env = map[string]string{}
	}
	return &Renderer{env: env}
}

// RenderFile renders the template at path with context as the template data,
// expands environment references, and parses the result as TOML.
func (r *Renderer) RenderFile(path string, context map[string]any) (map[string]any, error) {
	expanded, err := r.RenderText(path, context)
	if err != nil {
		return nil, err
	}

	var tree map[string]any
	if err := toml.Unmarshal([]byte(expanded), &tree); err != nil {
		return nil, fmt.Errorf("parsing rendered TOML from %s: %w", path, err)
	}

	return tree, nil
}

// RenderText renders the template at path with context as the template data
// and expands environment references, returning the raw text. Used for
// non-TOML templates such as compose files.
func (r *Renderer) RenderText(path string, context map[string]any) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}

	rendered, err := execute(filepath.Base(path), string(data), r.templateContext(context))
	if err != nil {
		return "", fmt.Errorf("rendering template %s: %w", path, err)
	}

	expanded, err := ExpandEnv(rendered, r.env, path)
	if err != nil {
		return "", err
	}

	return expanded, nil
}

// templateContext extends the configuration context with the environment
// snapshot under "env", so templates can read variables directly. The
// snapshot shadows any configuration subtree of the same name.
func (r *Renderer) templateContext(context map[string]any) map[string]any {
	ctx := make(map[string]any, len(context)+1)
	for k, v := range context {
		ctx[k] = v
	}
	ctx["env"] = r.env
	return ctx
}

// execute runs a single template body against the context. Literal $VAR
// references are handled by the expansion pass afterwards, so templates and
// plain files behave identically there.
func execute(name string, body string, context map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	if context == nil {
		context = map[string]any{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
