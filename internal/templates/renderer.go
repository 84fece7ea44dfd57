package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"
)

// LayoutTemplate is parsed together with every page template.
const LayoutTemplate = "layout.html.tmpl"

// ContextProcessor contributes values to every render of a request.
type ContextProcessor func(r *http.Request) map[string]any

// Options configures a Renderer.
type Options struct {
	// FS holds the bundled templates.
	FS fs.FS
	// OverrideDir, when it exists, takes precedence over FS file by file.
	OverrideDir string
	// AutoReload disables the parsed template cache.
	AutoReload bool
	Logger     *zap.Logger
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	fsys       fs.FS
	autoReload bool
	logger     *zap.Logger

	mu         sync.RWMutex
	funcs      template.FuncMap
	globals    map[string]any
	processors []ContextProcessor
	cache      map[string]*template.Template
}

// NewRenderer creates a Renderer with the built-in helper functions
// registered.
func NewRenderer(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fsys, overridden := overlayDir(opts.OverrideDir, opts.FS)
	if overridden {
		logger.Debug("template overrides enabled", zap.String("dir", opts.OverrideDir))
	}

	r := &Renderer{
		fsys:       fsys,
		autoReload: opts.AutoReload,
		logger:     logger,
		funcs:      template.FuncMap{},
		globals:    map[string]any{},
		cache:      map[string]*template.Template{},
	}
	r.AddFilter("format_date", formatDateFunc)
	r.AddFilter("format_creators", formatCreatorsFunc)
	r.AddFunc("is_coming_soon", isComingSoonFunc)
	return r
}

// AddFilter registers a function used in pipelines ({{ .x | name }}).
func (r *Renderer) AddFilter(name string, fn any) {
	r.AddFunc(name, fn)
}

// AddFunc registers a template function. Registering invalidates the cache.
func (r *Renderer) AddFunc(name string, fn any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
	r.cache = map[string]*template.Template{}
}

// AddGlobal exposes a value to every render under name.
func (r *Renderer) AddGlobal(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals[name] = value
}

// AddContextProcessor registers a per-request value provider.
func (r *Renderer) AddContextProcessor(p ContextProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors = append(r.processors, p)
}

// Render executes the named page with data layered over globals and context
// processor values, and writes it with the given status.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, data map[string]any) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, LayoutTemplate, r.context(req, data)); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func (r *Renderer) context(req *http.Request, data map[string]any) map[string]any {
	r.mu.RLock()
	globals := r.globals
	processors := r.processors
	r.mu.RUnlock()

	ctx := make(map[string]any, len(globals)+len(data)+4)
	for k, v := range globals {
		ctx[k] = v
	}
	if req != nil {
		for _, p := range processors {
			for k, v := range p(req) {
				ctx[k] = v
			}
		}
	}
	for k, v := range data {
		ctx[k] = v
	}
	return ctx
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if !r.autoReload {
		r.mu.RLock()
		tmpl, ok := r.cache[name]
		r.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	r.mu.RLock()
	funcs := make(template.FuncMap, len(r.funcs))
	for k, v := range r.funcs {
		funcs[k] = v
	}
	r.mu.RUnlock()

	tmpl := template.New("page:" + name).Funcs(funcs)
	for _, file := range []string{LayoutTemplate, name} {
		content, err := fs.ReadFile(r.fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		if _, err := tmpl.New(file).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}
	}

	if !r.autoReload {
		r.mu.Lock()
		r.cache[name] = tmpl
		r.mu.Unlock()
	}
	return tmpl, nil
}

// OverlayDir returns lower with the files of dir layered on top, or lower
// itself when dir is empty or not a directory.
func OverlayDir(dir string, lower fs.FS) fs.FS {
	fsys, _ := overlayDir(dir, lower)
	return fsys
}

func overlayDir(dir string, lower fs.FS) (fs.FS, bool) {
	if dir == "" {
		return lower, false
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return lower, false
	}
	return overlayFS{upper: os.DirFS(dir), lower: lower}, true
}

// overlayFS serves files from upper when present, falling back to lower.
type overlayFS struct {
	upper fs.FS
	lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.upper.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.lower.Open(name)
}
