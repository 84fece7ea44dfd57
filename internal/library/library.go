// Package library mounts the external bibliography service under a URL
// prefix. Requests are forwarded to the service unchanged apart from the
// stripped prefix, forwarding headers and default search parameters.
package library

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eugenenazirov/kerkoapp/internal/composer"
)

const (
	// Name is the endpoint namespace of the blueprint.
	Name = "kerko"
	// EndpointSearch names the search page.
	EndpointSearch = "search"
)

// ErrUnknownEndpoint is returned by URLFor for endpoints the blueprint does
// not expose.
var ErrUnknownEndpoint = errors.New("unknown library endpoint")

// ErrorFunc renders a failure to reach the upstream service.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// Blueprint proxies the library service.
type Blueprint struct {
	upstream *url.URL
	prefix   string
	composer *composer.Composer
	logger   *zap.Logger
	onError  ErrorFunc
	proxy    *httputil.ReverseProxy
}

// New creates a Blueprint forwarding to upstream. onError is invoked when the
// upstream cannot be reached.
func New(upstream, prefix string, c *composer.Composer, logger *zap.Logger, onError ErrorFunc) (*Blueprint, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse library upstream: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("parse library upstream: %q is not an absolute URL", upstream)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	}

	b := &Blueprint{
		upstream: target,
		prefix:   "/" + strings.Trim(prefix, "/"),
		composer: c,
		logger:   logger,
		onError:  onError,
	}
	b.proxy = &httputil.ReverseProxy{
		Rewrite:      b.rewrite,
		ErrorHandler: b.handleProxyError,
	}
	return b, nil
}

// Prefix returns the mount point.
func (b *Blueprint) Prefix() string {
	return b.prefix
}

// URLFor returns the path of a library endpoint.
func (b *Blueprint) URLFor(endpoint string) (string, error) {
	switch strings.TrimPrefix(endpoint, Name+".") {
	case EndpointSearch:
		return b.prefix + "/", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
}

// Routes returns the handler to mount at Prefix.
func (b *Blueprint) Routes() http.Handler {
	r := chi.NewRouter()
	r.Handle("/", http.HandlerFunc(b.handleSearch))
	r.Handle("/*", b.proxy)
	return r
}

func (b *Blueprint) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && b.composer != nil {
		query := r.URL.Query()
		changed := false
		for key, values := range b.composer.DefaultQuery() {
			if !query.Has(key) {
				query[key] = values
				changed = true
			}
		}
		if changed {
			r = r.Clone(r.Context())
			r.URL.RawQuery = query.Encode()
		}
	}
	b.proxy.ServeHTTP(w, r)
}

func (b *Blueprint) rewrite(pr *httputil.ProxyRequest) {
	path := strings.TrimPrefix(pr.In.URL.Path, b.prefix)
	if path == "" {
		path = "/"
	}
	pr.Out.URL.Path = path
	pr.Out.URL.RawPath = ""
	pr.SetURL(b.upstream)
	pr.SetXForwarded()
	pr.Out.Header.Set("X-Forwarded-Prefix", b.prefix)
}

func (b *Blueprint) handleProxyError(w http.ResponseWriter, r *http.Request, err error) {
	b.logger.Warn("library upstream unavailable",
		zap.String("path", r.URL.Path),
		zap.String("upstream", b.upstream.String()),
		zap.Error(err),
	)
	b.onError(w, r, err)
}
