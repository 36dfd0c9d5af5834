package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

// TrendUpdateTemplate is the file name of the prompt used to propose trend
// ledger changes.
const TrendUpdateTemplate = "trend_update.tmpl"

// Template wraps a text/template loaded from a prompts directory.
type Template struct {
	path string

	mu   sync.RWMutex
	tmpl *template.Template
	hash string
}

// Funcs are available to every prompt template.
var Funcs = template.FuncMap{
	"json":  toJSON,
	"join":  strings.Join,
	"upper": strings.ToUpper,
}

// Load parses name from dir.
func Load(dir, name string) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("prompt template name is empty")
	}
	return NewTemplate(filepath.Join(dir, name))
}

// NewTemplate parses the template at path.
func NewTemplate(path string) (*Template, error) {
	if path == "" {
		return nil, fmt.Errorf("prompt template path is empty")
	}
	t := &Template{path: path}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Render executes the template with data. Missing keys are an error.
func (t *Template) Render(data any) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", t.path, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Reload reparses the template from disk.
func (t *Template) Reload() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload()
}

func (t *Template) reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read prompt template %q: %w", t.path, err)
	}
	tmpl, err := template.New(filepath.Base(t.path)).
		Option("missingkey=error").
		Funcs(Funcs).
		Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse prompt template %q: %w", t.path, err)
	}
	t.tmpl = tmpl
	t.hash = computeDigest(data)
	return nil
}

// Digest returns a short content hash of the parsed template.
func (t *Template) Digest() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hash
}

func toJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
