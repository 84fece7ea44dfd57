package api

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type scriptRootKey struct{}

// ProxyFixOptions sets how many proxies are trusted for each X-Forwarded-*
// header. Zero ignores the header.
type ProxyFixOptions struct {
	For    int
	Proto  int
	Host   int
	Port   int
	Prefix int
}

// ProxyFix rewrites the request from X-Forwarded-* headers set by trusted
// proxies. For each header the value appended by the outermost trusted proxy
// is used; headers with fewer values than trusted proxies are ignored.
func ProxyFix(opts ProxyFixOptions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if prefix, ok := trustedValue(opts.Prefix, r.Header.Get("X-Forwarded-Prefix")); ok {
			ctx = context.WithValue(ctx, scriptRootKey{}, strings.TrimRight(prefix, "/"))
		}
		r = r.Clone(ctx)

		if addr, ok := trustedValue(opts.For, r.Header.Get("X-Forwarded-For")); ok {
			r.RemoteAddr = addr
		}
		if proto, ok := trustedValue(opts.Proto, r.Header.Get("X-Forwarded-Proto")); ok {
			r.URL.Scheme = proto
		}
		if host, ok := trustedValue(opts.Host, r.Header.Get("X-Forwarded-Host")); ok {
			r.Host = host
		}
		if port, ok := trustedValue(opts.Port, r.Header.Get("X-Forwarded-Port")); ok {
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			r.Host = net.JoinHostPort(host, port)
		}

		next.ServeHTTP(w, r)
	})
}

func trustedValue(trusted int, header string) (string, bool) {
	if trusted <= 0 || header == "" {
		return "", false
	}
	values := strings.Split(header, ",")
	if len(values) < trusted {
		return "", false
	}
	return strings.TrimSpace(values[len(values)-trusted]), true
}

// ScriptRoot returns the path prefix the application is served under, as set
// by ProxyFix, or "".
func ScriptRoot(ctx context.Context) string {
	root, _ := ctx.Value(scriptRootKey{}).(string)
	return root
}
