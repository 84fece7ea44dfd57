// Package i18n negotiates the request locale and translates interface
// messages.
package i18n

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// ErrNoLocales is returned when no supported locale is configured.
var ErrNoLocales = errors.New("at least one locale is required")

type contextKey struct{}

// Translator holds the supported locales and the message catalog.
type Translator struct {
	supported []language.Tag
	names     []string
	matcher   language.Matcher
	catalog   *catalog.Builder
	printers  map[string]*message.Printer
}

// New creates a Translator. The default locale is always supported and wins
// when negotiation finds no acceptable match.
func New(defaultLocale string, locales []string) (*Translator, error) {
	if defaultLocale == "" && len(locales) == 0 {
		return nil, ErrNoLocales
	}
	if defaultLocale == "" {
		defaultLocale = locales[0]
	}

	t := &Translator{printers: map[string]*message.Printer{}}
	seen := map[string]bool{}
	for _, name := range append([]string{defaultLocale}, locales...) {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", name, err)
		}
		if seen[tag.String()] {
			continue
		}
		seen[tag.String()] = true
		t.supported = append(t.supported, tag)
		t.names = append(t.names, tag.String())
	}
	t.matcher = language.NewMatcher(t.supported)

	t.catalog = catalog.NewBuilder(catalog.Fallback(t.supported[0]))
	if err := register(t.catalog); err != nil {
		return nil, err
	}
	for i, tag := range t.supported {
		t.printers[t.names[i]] = message.NewPrinter(tag, message.Catalog(t.catalog))
	}
	return t, nil
}

// Default returns the default locale.
func (t *Translator) Default() string {
	return t.names[0]
}

// Locales returns the supported locales, default first.
func (t *Translator) Locales() []string {
	return append([]string(nil), t.names...)
}

// Negotiate picks the best supported locale for r from its Accept-Language
// header.
func (t *Translator) Negotiate(r *http.Request) string {
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return t.Default()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return t.Default()
	}
	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.Default()
	}
	return t.names[index]
}

// Gettext translates msg into locale. Untranslated messages are returned as
// they are.
func (t *Translator) Gettext(locale, msg string) string {
	p, ok := t.printers[locale]
	if !ok {
		p = t.printers[t.Default()]
	}
	return p.Sprintf(msg)
}

// Middleware stores the negotiated locale in the request context.
func (t *Translator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := t.Negotiate(r)
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), locale)))
	})
}

// NewContext returns ctx carrying locale.
func NewContext(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, contextKey{}, locale)
}

// FromContext returns the locale stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	locale, _ := ctx.Value(contextKey{}).(string)
	return locale
}
