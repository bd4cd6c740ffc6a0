// Package view renders Warbler's HTML pages from embedded templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"
)

//go:embed templates
var templateFS embed.FS

const (
	layoutFile   = "templates/layout.html"
	partialsGlob = "templates/partials/*.html"
)

// Engine implements fiber.Views over the embedded templates. Each page is
// parsed together with the shared layout and addressed by its path without
// the extension, e.g. "messages/show".
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

func New() *Engine {
	return &Engine{}
}

// Funcs are available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"fmtDate": func(t time.Time) string { return t.Format("02 January 2006") },
		"year":    func() int { return time.Now().Year() },
		"has": func(set map[uint]bool, id uint) bool {
			return set[id]
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
}

// Load parses every page. It is called once by fiber before the first render.
func (e *Engine) Load() error {
	pages := make(map[string]*template.Template)
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == "templates/partials" {
				return fs.SkipDir
			}
			return nil
		}
		if path == layoutFile || !strings.HasSuffix(path, ".html") {
			return nil
		}
		t, err := template.New("layout.html").Funcs(Funcs()).ParseFS(templateFS, layoutFile, partialsGlob, path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		pages[name] = t
		return nil
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes the named page inside the layout. Layout arguments are ignored.
func (e *Engine) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	e.mu.RLock()
	loaded := e.pages != nil
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
