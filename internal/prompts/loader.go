// Package prompts renders the embedded prompt templates sent to the model.
//
// Each JSON file maps a prompt key to a text/template body. A file is parsed
// once on first use into a single template set with one named template per
// key.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// funcs are available to every prompt template.
var funcs = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"fence": Fence,
	"join":  strings.Join,
}

// promptSet is one parsed prompt file
type promptSet struct {
	raw  map[string]string
	tmpl *template.Template
}

var (
	setsMu sync.Mutex
	sets   = map[string]*promptSet{}
)

// Get returns the unrendered template text stored under key in filename
// (for example "flows.json").
func Get(filename, key string) (string, error) {
	set, err := load(filename)
	if err != nil {
		return "", err
	}
	text, ok := set.raw[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return text, nil
}

// Keys lists the prompt keys in filename, sorted.
func Keys(filename string) ([]string, error) {
	set, err := load(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set.raw))
	for k := range set.raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Render executes the prompt template stored under key with data as its
// context. Missing fields are an error, so optional sections are written as
// {{if .Field}}...{{end}} against fields that always exist.
func Render(filename, key string, data any) (string, error) {
	set, err := load(filename)
	if err != nil {
		return "", err
	}
	if _, ok := set.raw[key]; !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	var sb strings.Builder
	if err := set.tmpl.ExecuteTemplate(&sb, key, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s/%s: %w", filename, key, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Fence neutralizes triple quotes in user-supplied text so it cannot close
// the """ block it is embedded in.
func Fence(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"""`, `'''`)
}

// ClearCache forgets every parsed file. Tests use it to force a reload.
func ClearCache() {
	setsMu.Lock()
	sets = map[string]*promptSet{}
	setsMu.Unlock()
}

func load(filename string) (*promptSet, error) {
	setsMu.Lock()
	defer setsMu.Unlock()

	if set, ok := sets[filename]; ok {
		return set, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	root := template.New(filename).Funcs(funcs).Option("missingkey=error")
	for key, text := range raw {
		if _, err := root.New(key).Parse(text); err != nil {
			return nil, fmt.Errorf("failed to parse prompt %s/%s: %w", filename, key, err)
		}
	}

	set := &promptSet{raw: raw, tmpl: root}
	sets[filename] = set
	return set, nil
}
