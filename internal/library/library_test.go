package library

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/kerkoapp/internal/composer"
)

type seen struct {
	path   string
	query  url.Values
	prefix string
	host   string
}

func newUpstream(t *testing.T) (*httptest.Server, *seen) {
	t.Helper()

	s := &seen{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.path = r.URL.Path
		s.query = r.URL.Query()
		s.prefix = r.Header.Get("X-Forwarded-Prefix")
		s.host = r.Header.Get("X-Forwarded-Host")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("library"))
	}))
	t.Cleanup(server.Close)
	return server, s
}

func mount(t *testing.T, b *Blueprint) http.Handler {
	t.Helper()

	r := chi.NewRouter()
	r.Mount(b.Prefix(), b.Routes())
	return r
}

func testComposer() *composer.Composer {
	return &composer.Composer{
		DefaultSort: "score",
		PageSize:    20,
		Sorts:       []composer.Sort{{Key: "score", Label: "Relevance"}},
	}
}

func TestNewRejectsRelativeUpstream(t *testing.T) {
	if _, err := New("/relative", "/lib", nil, nil, nil); err == nil {
		t.Fatalf("expected error for relative upstream")
	}
}

func TestURLFor(t *testing.T) {
	b, err := New("http://127.0.0.1:5000", "lib/", nil, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	for _, endpoint := range []string{"search", "kerko.search"} {
		got, err := b.URLFor(endpoint)
		if err != nil || got != "/lib/" {
			t.Fatalf("URLFor(%s) = %q, %v", endpoint, got, err)
		}
	}
	if _, err := b.URLFor("kerko.item"); !errors.Is(err, ErrUnknownEndpoint) {
		t.Fatalf("expected ErrUnknownEndpoint, got %v", err)
	}
}

func TestSearchAddsDefaultQuery(t *testing.T) {
	upstream, s := newUpstream(t)
	b, err := New(upstream.URL, "/lib", testComposer(), zaptest.NewLogger(t), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	handler := mount(t, b)

	req := httptest.NewRequest(http.MethodGet, "/lib/?q=history", nil)
	req.Host = "bib.example.org"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "library" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if s.path != "/" {
		t.Fatalf("expected prefix to be stripped, got %s", s.path)
	}
	if s.query.Get("q") != "history" || s.query.Get("page-len") != "20" || s.query.Get("sort") != "score" {
		t.Fatalf("unexpected upstream query %v", s.query)
	}
	if s.prefix != "/lib" || s.host != "bib.example.org" {
		t.Fatalf("unexpected forwarding headers prefix=%q host=%q", s.prefix, s.host)
	}
}

func TestSearchKeepsExplicitParameters(t *testing.T) {
	upstream, s := newUpstream(t)
	b, err := New(upstream.URL, "/lib", testComposer(), zaptest.NewLogger(t), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	mount(t, b).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lib/?sort=date_desc", nil))

	if got := s.query["sort"]; len(got) != 1 || got[0] != "date_desc" {
		t.Fatalf("expected explicit sort to win, got %v", got)
	}
}

func TestProxyForwardsOtherPaths(t *testing.T) {
	upstream, s := newUpstream(t)
	b, err := New(upstream.URL, "/lib", testComposer(), zaptest.NewLogger(t), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	mount(t, b).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lib/ABCD1234?format=bibtex", nil))

	if s.path != "/ABCD1234" {
		t.Fatalf("unexpected upstream path %s", s.path)
	}
	if s.query.Has("page-len") {
		t.Fatalf("defaults should only apply to search")
	}
}

func TestUpstreamFailureInvokesErrorFunc(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	var called error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		called = err
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	b, err := New(addr, "/lib", testComposer(), zaptest.NewLogger(t), onError)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	mount(t, b).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lib/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if called == nil {
		t.Fatalf("expected error callback to receive the proxy error")
	}
}
