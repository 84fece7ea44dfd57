// Package assets builds named CSS and JavaScript bundles from static files
// and serves them with content fingerprints.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrUnknownBundle is returned when a bundle name was never registered.
	ErrUnknownBundle = errors.New("unknown asset bundle")
	// ErrEmptyBundle is returned for a bundle without source files.
	ErrEmptyBundle = errors.New("asset bundle has no files")
)

// Bundle concatenates Files into Output, both relative to the static root.
type Bundle struct {
	Name   string
	Output string
	Files  []string
}

type built struct {
	output      string
	content     []byte
	fingerprint string
	contentType string
}

// Environment holds the built bundles and serves the static tree.
type Environment struct {
	prefix  string
	fsys    fs.FS
	bundles map[string]*built
	outputs map[string]*built
	modTime time.Time
}

// New builds every bundle from fsys. URLs are rooted at prefix.
func New(fsys fs.FS, prefix string, bundles ...Bundle) (*Environment, error) {
	env := &Environment{
		prefix:  "/" + strings.Trim(prefix, "/"),
		fsys:    fsys,
		bundles: make(map[string]*built, len(bundles)),
		outputs: make(map[string]*built, len(bundles)),
		modTime: time.Now(),
	}

	for _, b := range bundles {
		if len(b.Files) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyBundle, b.Name)
		}

		var buf bytes.Buffer
		for _, file := range b.Files {
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				return nil, fmt.Errorf("bundle %s: %w", b.Name, err)
			}
			buf.Write(content)
			if len(content) > 0 && content[len(content)-1] != '\n' {
				buf.WriteByte('\n')
			}
		}

		out := &built{
			output:      strings.TrimPrefix(b.Output, "/"),
			content:     buf.Bytes(),
			fingerprint: strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16),
			contentType: mime.TypeByExtension(path.Ext(b.Output)),
		}
		env.bundles[b.Name] = out
		env.outputs[out.output] = out
	}
	return env, nil
}

// Prefix returns the URL prefix static files are served under.
func (e *Environment) Prefix() string {
	return e.prefix
}

// URL returns the fingerprinted URL of the named bundle.
func (e *Environment) URL(name string) (string, error) {
	b, ok := e.bundles[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBundle, name)
	}
	return e.prefix + "/" + b.output + "?v=" + b.fingerprint, nil
}

// StaticURL returns the URL of a file in the static tree.
func (e *Environment) StaticURL(filename string) string {
	return e.prefix + "/" + strings.TrimPrefix(filename, "/")
}

// Handler serves bundle outputs from memory and every other path from the
// static tree. It expects the prefix to be stripped already.
func (e *Environment) Handler() http.Handler {
	files := http.FileServer(http.FS(e.fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		b, ok := e.outputs[name]
		if !ok {
			files.ServeHTTP(w, r)
			return
		}

		if b.contentType != "" {
			w.Header().Set("Content-Type", b.contentType)
		}
		w.Header().Set("ETag", strconv.Quote(b.fingerprint))
		if r.URL.Query().Get("v") == b.fingerprint {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.ServeContent(w, r, name, e.modTime, bytes.NewReader(b.content))
	})
}
