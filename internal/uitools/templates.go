package uitools

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/infrastructure/logging"
)

// templatePatterns selects which files under the template directory are
// considered renderable sources.
var templatePatterns = []string{"**/*.html", "**/*.js"}

// TemplateSet holds the page templates and remote-dom scripts the demo
// tools render. Built-ins are always present; a template directory can
// override them by base name.
type TemplateSet struct {
	log *logging.Logger

	mu    sync.Mutex
	pages map[string]*template.Template
	raw   map[string]string
}

// LoadTemplates builds a template set from the built-ins plus any
// overrides found under dir. A missing directory is not an error.
func LoadTemplates(log *logging.Logger, dir string) (*TemplateSet, error) {
	ts := &TemplateSet{
		log:   log.Component("uitools"),
		pages: make(map[string]*template.Template),
		raw:   make(map[string]string),
	}

	for name, src := range builtinPages {
		tpl, err := template.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("builtin template %q: %w", name, err)
		}
		ts.pages[name] = tpl
	}
	for name, src := range builtinScripts {
		ts.raw[name] = src
	}

	if dir == "" {
		return ts, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		ts.log.Debug("template directory missing, using built-ins", zap.String("dir", dir))
		return ts, nil
	}

	// fastwalk runs the callback concurrently, so loads take the lock.
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range templatePatterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return ts.load(path, rel)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking template dir %q: %w", dir, err)
	}
	return ts, nil
}

// load reads one template file, sniffing content to keep binary or
// mislabeled files out of the set.
func (t *TemplateSet) load(path, rel string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	kind := mimetype.Detect(data)
	if !strings.HasPrefix(kind.String(), "text/") && !kind.Is("application/javascript") {
		t.log.Warn("skipping non-text template",
			zap.String("file", rel),
			zap.String("detected", kind.String()))
		return nil
	}

	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	t.mu.Lock()
	defer t.mu.Unlock()
	switch filepath.Ext(rel) {
	case ".html":
		tpl, err := template.New(name).Parse(string(data))
		if err != nil {
			return fmt.Errorf("template %q: %w", rel, err)
		}
		t.pages[name] = tpl
		t.log.Debug("loaded page template", zap.String("name", name), zap.String("file", rel))
	case ".js":
		t.raw[name] = string(data)
		t.log.Debug("loaded script template", zap.String("name", name), zap.String("file", rel))
	}
	return nil
}

// Page renders the named page template with data.
func (t *TemplateSet) Page(name string, data interface{}) (string, error) {
	tpl, ok := t.pages[name]
	if !ok {
		return "", fmt.Errorf("unknown page template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %q: %w", name, err)
	}
	return buf.String(), nil
}

// Script returns the named remote-dom script source.
func (t *TemplateSet) Script(name string) (string, bool) {
	src, ok := t.raw[name]
	return src, ok
}

// Names lists loaded template names for diagnostics.
func (t *TemplateSet) Names() []string {
	out := make([]string, 0, len(t.pages)+len(t.raw))
	for name := range t.pages {
		out = append(out, name+".html")
	}
	for name := range t.raw {
		out = append(out, name+".js")
	}
	return out
}
