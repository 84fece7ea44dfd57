package config

// Defaults returns a fresh copy of the built-in configuration. Nothing here
// satisfies the required secrets (SECRET_KEY, kerko.zotero.*,
// kerkoapp.library.upstream_url); those must come from files or the
// environment.
func Defaults() Mapping {
	return Mapping{
		"DEBUG":                      false,
		"LOG_LEVEL":                  "info",
		"BABEL_DEFAULT_LOCALE":       "en",
		"BABEL_DEFAULT_TIMEZONE":     "UTC",
		"SESSION_COOKIE_NAME":        "session",
		"SESSION_COOKIE_SECURE":      false,
		"PERMANENT_SESSION_LIFETIME": "744h",
		"TEMPLATES_AUTO_RELOAD":      false,
		"BOOTSTRAP_SERVE_LOCAL":      false,
		"kerko": map[string]any{
			"meta": map[string]any{
				"title": "Kerko App",
			},
			"search": map[string]any{
				"result_page_size": int64(20),
				"default_sort":     "score",
				"sorts": []any{
					map[string]any{"key": "score", "label": "Relevance"},
					map[string]any{"key": "date_desc", "label": "Newest first"},
					map[string]any{"key": "date_asc", "label": "Oldest first"},
					map[string]any{"key": "author_asc", "label": "Author A-Z"},
					map[string]any{"key": "title_asc", "label": "Title A-Z"},
				},
			},
			"facets": map[string]any{
				"item_type": map[string]any{"title": "Item type", "field": "item_type", "enabled": true, "position": int64(10)},
				"year":      map[string]any{"title": "Publication year", "field": "year", "enabled": true, "position": int64(20)},
				"tag":       map[string]any{"title": "Topic", "field": "tag", "enabled": true, "position": int64(30)},
				"link":      map[string]any{"title": "Online resource", "field": "link", "enabled": false, "position": int64(40)},
			},
		},
		"kerkoapp": map[string]any{
			"locales": []any{"en"},
			"library": map[string]any{
				"prefix": "/lib",
			},
			"server": map[string]any{
				"address":               ":8080",
				"read_header_timeout":   "5s",
				"write_timeout":         "15s",
				"idle_timeout":          "60s",
				"shutdown_grace_period": "10s",
				"request_logging":       true,
			},
			"rate_limit": map[string]any{
				"rps":   25.0,
				"burst": int64(50),
			},
			"analytics": map[string]any{
				"enabled": false,
				"timeout": "5s",
			},
			"metrics": map[string]any{
				"enabled": false,
				"path":    "/metrics",
			},
		},
	}
}
