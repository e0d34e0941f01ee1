package poem

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sahilm/fuzzy"
)

//go:embed templates/*.json
var builtinFS embed.FS

// Library is a named collection of templates.
type Library struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewLibrary() *Library {
	return &Library{templates: make(map[string]Template)}
}

// Builtin returns a library holding the bundled templates.
func Builtin() *Library {
	lib := NewLibrary()
	if _, err := lib.LoadFS(builtinFS, "templates"); err != nil {
		panic(fmt.Sprintf("builtin templates: %v", err))
	}
	return lib
}

func (l *Library) Add(name string, t Template) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[name] = t
	return nil
}

// Get looks a template up by name. Unknown names get the closest matches as
// suggestions.
func (l *Library) Get(name string) (Template, error) {
	l.mu.RLock()
	t, ok := l.templates[name]
	l.mu.RUnlock()
	if ok {
		return t, nil
	}

	if suggestions := l.Suggest(name, 3); len(suggestions) > 0 {
		return nil, fmt.Errorf("%w: %q (did you mean %s?)", ErrTemplateNotFound, name, strings.Join(suggestions, ", "))
	}
	return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
}

func (l *Library) Suggest(name string, max int) []string {
	matches := fuzzy.Find(name, l.Names())
	var out []string
	for _, m := range matches {
		if len(out) == max {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFS adds every *.json, *.yaml and *.yml template below dir of fsys,
// named after the file. It returns the number of templates loaded.
func (l *Library) LoadFS(fsys fs.FS, dir string) (int, error) {
	matches, err := doublestar.Glob(fsys, path.Join(dir, "**/*.{json,yaml,yml}"))
	if err != nil {
		return 0, fmt.Errorf("glob templates: %w", err)
	}

	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return 0, fmt.Errorf("read template %s: %w", m, err)
		}
		t, err := decodeByExt(m, data)
		if err != nil {
			return 0, fmt.Errorf("template %s: %w", m, err)
		}
		name := strings.TrimSuffix(path.Base(m), path.Ext(m))
		if err := l.Add(name, t); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

// LoadDir is LoadFS over a directory on disk. A missing directory loads
// nothing.
func (l *Library) LoadDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}
	return l.LoadFS(os.DirFS(dir), ".")
}

// LoadTemplateFile decodes a template file by its extension.
func LoadTemplateFile(p string) (Template, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return decodeByExt(p, data)
}

// Resolve treats ref as a template file when one exists at that path and as
// a library name otherwise.
func (l *Library) Resolve(ref string) (Template, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return LoadTemplateFile(ref)
	}
	return l.Get(ref)
}

func decodeByExt(p string, data []byte) (Template, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return DecodeTemplateYAML(data)
	default:
		return DecodeTemplate(data)
	}
}
