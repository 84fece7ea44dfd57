package config

import "time"

// Settings is the typed view of a validated configuration mapping.
type Settings struct {
	Debug               bool          `mapstructure:"DEBUG"`
	SecretKey           string        `mapstructure:"SECRET_KEY" validate:"required,min=16"`
	LogLevel            string        `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error"`
	DefaultLocale       string        `mapstructure:"BABEL_DEFAULT_LOCALE" validate:"required"`
	DefaultTimezone     string        `mapstructure:"BABEL_DEFAULT_TIMEZONE" validate:"required"`
	SessionCookieName   string        `mapstructure:"SESSION_COOKIE_NAME" validate:"required"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionLifetime     time.Duration `mapstructure:"PERMANENT_SESSION_LIFETIME" validate:"gt=0"`
	TemplatesAutoReload bool          `mapstructure:"TEMPLATES_AUTO_RELOAD"`
	BootstrapServeLocal bool          `mapstructure:"BOOTSTRAP_SERVE_LOCAL"`

	Kerko    KerkoSettings    `mapstructure:"kerko"`
	KerkoApp KerkoAppSettings `mapstructure:"kerkoapp"`
}

// KerkoSettings holds the settings consumed by the library.
type KerkoSettings struct {
	Meta   MetaSettings             `mapstructure:"meta"`
	Search SearchSettings           `mapstructure:"search"`
	Facets map[string]FacetSettings `mapstructure:"facets" validate:"dive"`
	Zotero ZoteroSettings           `mapstructure:"zotero"`
}

type MetaSettings struct {
	Title string `mapstructure:"title" validate:"required"`
}

type SearchSettings struct {
	ResultPageSize int            `mapstructure:"result_page_size" validate:"gte=1,lte=100"`
	DefaultSort    string         `mapstructure:"default_sort" validate:"required"`
	Sorts          []SortSettings `mapstructure:"sorts" validate:"required,min=1,dive"`
}

type SortSettings struct {
	Key   string `mapstructure:"key" validate:"required"`
	Label string `mapstructure:"label" validate:"required"`
}

type FacetSettings struct {
	Title    string `mapstructure:"title" validate:"required"`
	Field    string `mapstructure:"field" validate:"required"`
	Enabled  bool   `mapstructure:"enabled"`
	Position int    `mapstructure:"position"`
}

type ZoteroSettings struct {
	LibraryID   string `mapstructure:"library_id" validate:"required"`
	LibraryType string `mapstructure:"library_type" validate:"required,oneof=group user"`
	APIKey      string `mapstructure:"api_key" validate:"required"`
}

// KerkoAppSettings holds the settings owned by this application.
type KerkoAppSettings struct {
	Locales   []string          `mapstructure:"locales" validate:"required,min=1,dive,required"`
	Library   LibrarySettings   `mapstructure:"library"`
	Server    ServerSettings    `mapstructure:"server"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	// ProxyFix is nil when the section is absent from every layer.
	ProxyFix  *ProxyFixSettings `mapstructure:"proxy_fix"`
	Analytics AnalyticsSettings `mapstructure:"analytics"`
	Metrics   MetricsSettings   `mapstructure:"metrics"`
}

type LibrarySettings struct {
	UpstreamURL string `mapstructure:"upstream_url" validate:"required,url"`
	Prefix      string `mapstructure:"prefix" validate:"required,startswith=/,ne=/"`
}

type ServerSettings struct {
	Address             string        `mapstructure:"address" validate:"required"`
	ReadHeaderTimeout   time.Duration `mapstructure:"read_header_timeout" validate:"gte=0"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout         time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period" validate:"gte=0"`
	RequestLogging      bool          `mapstructure:"request_logging"`
}

// RateLimitSettings configures the token bucket limiter. Zero disables it.
type RateLimitSettings struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

// ProxyFixSettings lists how many proxies are trusted for each forwarded header.
type ProxyFixSettings struct {
	Enabled bool `mapstructure:"enabled"`
	XFor    int  `mapstructure:"x_for" validate:"gte=0"`
	XProto  int  `mapstructure:"x_proto" validate:"gte=0"`
	XHost   int  `mapstructure:"x_host" validate:"gte=0"`
	XPort   int  `mapstructure:"x_port" validate:"gte=0"`
	XPrefix int  `mapstructure:"x_prefix" validate:"gte=0"`
}

type AnalyticsSettings struct {
	Enabled bool          `mapstructure:"enabled"`
	Host    string        `mapstructure:"host" validate:"required_if=Enabled true"`
	APIKey  string        `mapstructure:"api_key" validate:"required_if=Enabled true"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type MetricsSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required,startswith=/"`
}
