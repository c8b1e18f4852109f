// Package prompt renders the named LLM prompts. Each template is registered
// together with a JSON schema; the render context is validated against the
// schema before the template executes.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Names of the built-in prompts.
const (
	RankSources          = "rank_sources"
	BestSources          = "best_sources"
	ScrapingInstructions = "scraping_instructions"
	StructuredExtraction = "structured_extraction"
)

//go:embed templates/*.tmpl templates/*.schema.json
var builtin embed.FS

// RenderError is returned when a context fails schema validation, the
// template is unknown, or execution fails.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("prompt: render %q: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Template is a registered prompt: its source and the compiled artifacts
// derived from it.
type Template struct {
	Name     string
	Source   string
	Schema   string
	compiled *template.Template
	schema   *jsonschema.Schema
}

// Engine holds registered templates by name.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{templates: make(map[string]*Template)}
}

// NewDefaultEngine returns an engine with the four built-in prompts.
func NewDefaultEngine() (*Engine, error) {
	e := NewEngine()
	for _, name := range []string{RankSources, BestSources, ScrapingInstructions, StructuredExtraction} {
		src, err := builtin.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return nil, eris.Wrapf(err, "prompt: read template %s", name)
		}
		schema, err := builtin.ReadFile("templates/" + name + ".schema.json")
		if err != nil {
			return nil, eris.Wrapf(err, "prompt: read schema %s", name)
		}
		if err := e.Register(name, string(src), string(schema)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

var funcs = template.FuncMap{
	"join": join,
}

// join accepts the []any produced by JSON round-tripping as well as []string.
func join(v any, sep string) string {
	switch items := v.(type) {
	case []string:
		return strings.Join(items, sep)
	case []any:
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = fmt.Sprint(it)
		}
		return strings.Join(parts, sep)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Register compiles source and schema and stores them under name, replacing
// any previous registration.
func (e *Engine) Register(name, source, schema string) error {
	compiled, err := template.New(name).Funcs(funcs).Parse(source)
	if err != nil {
		return eris.Wrapf(err, "prompt: compile template %s", name)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	url := "mem://prompt/" + name + ".json"
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		return eris.Wrapf(err, "prompt: load schema %s", name)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return eris.Wrapf(err, "prompt: compile schema %s", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[name] = &Template{
		Name:     name,
		Source:   source,
		Schema:   schema,
		compiled: compiled,
		schema:   sch,
	}
	return nil
}

// Lookup returns the registered template, if any.
func (e *Engine) Lookup(name string) (*Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[name]
	return t, ok
}

// Render validates data against the named template's schema and executes it.
// data may be any JSON-serializable value.
func (e *Engine) Render(name string, data any) (string, error) {
	t, ok := e.Lookup(name)
	if !ok {
		return "", &RenderError{Template: name, Err: eris.New("template not registered")}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	if err := t.schema.Validate(doc); err != nil {
		return "", &RenderError{Template: name, Err: err}
	}

	var buf bytes.Buffer
	if err := t.compiled.Execute(&buf, doc); err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	return buf.String(), nil
}
