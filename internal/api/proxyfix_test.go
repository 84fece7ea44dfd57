package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedValue(t *testing.T) {
	testCases := []struct {
		trusted int
		header  string
		want    string
		ok      bool
	}{
		{trusted: 0, header: "1.1.1.1", ok: false},
		{trusted: 1, header: "", ok: false},
		{trusted: 1, header: "1.1.1.1", want: "1.1.1.1", ok: true},
		{trusted: 1, header: "spoofed, 2.2.2.2", want: "2.2.2.2", ok: true},
		{trusted: 2, header: "spoofed, 3.3.3.3, 2.2.2.2", want: "3.3.3.3", ok: true},
		{trusted: 2, header: "2.2.2.2", ok: false},
	}

	for _, tc := range testCases {
		got, ok := trustedValue(tc.trusted, tc.header)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("trustedValue(%d, %q) = %q, %v; want %q, %v", tc.trusted, tc.header, got, ok, tc.want, tc.ok)
		}
	}
}

func TestProxyFixRewritesRequest(t *testing.T) {
	var seen *http.Request
	handler := ProxyFix(ProxyFixOptions{For: 1, Proto: 1, Host: 1, Port: 1, Prefix: 1}, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 203.0.113.7")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "bib.example.org")
	req.Header.Set("X-Forwarded-Port", "8443")
	req.Header.Set("X-Forwarded-Prefix", "/bibliography/")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen.RemoteAddr != "203.0.113.7" {
		t.Fatalf("unexpected remote addr %s", seen.RemoteAddr)
	}
	if seen.URL.Scheme != "https" {
		t.Fatalf("unexpected scheme %s", seen.URL.Scheme)
	}
	if seen.Host != "bib.example.org:8443" {
		t.Fatalf("unexpected host %s", seen.Host)
	}
	if got := ScriptRoot(seen.Context()); got != "/bibliography" {
		t.Fatalf("unexpected script root %q", got)
	}
}

func TestProxyFixIgnoresUntrustedHeaders(t *testing.T) {
	var seen *http.Request
	handler := ProxyFix(ProxyFixOptions{For: 1, Proto: 1}, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Host", "evil.example")
	req.Header.Set("X-Forwarded-Prefix", "/evil")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen.Host != "example.com" {
		t.Fatalf("host should not change, got %s", seen.Host)
	}
	if ScriptRoot(seen.Context()) != "" {
		t.Fatalf("prefix should not be trusted")
	}
	if seen.RemoteAddr != req.RemoteAddr {
		t.Fatalf("remote addr should not change without header")
	}
}
