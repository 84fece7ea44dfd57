package application

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/kerkoapp/internal/analytics"
	"github.com/eugenenazirov/kerkoapp/internal/api"
	"github.com/eugenenazirov/kerkoapp/internal/assets"
	"github.com/eugenenazirov/kerkoapp/internal/composer"
	"github.com/eugenenazirov/kerkoapp/internal/config"
	"github.com/eugenenazirov/kerkoapp/internal/i18n"
	"github.com/eugenenazirov/kerkoapp/internal/library"
	"github.com/eugenenazirov/kerkoapp/internal/logging"
	"github.com/eugenenazirov/kerkoapp/internal/session"
	"github.com/eugenenazirov/kerkoapp/internal/templates"
	"github.com/eugenenazirov/kerkoapp/web"
)

const (
	staticPrefix = "/static"

	bootstrapCDN = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist"

	bootstrapLocalCSS = "vendor/bootstrap/css/bootstrap.min.css"
	bootstrapLocalJS  = "vendor/bootstrap/js/bootstrap.bundle.min.js"
)

// ErrBootstrapMissing is returned when BOOTSTRAP_SERVE_LOCAL is set but the
// instance static directory does not provide the Bootstrap files.
var ErrBootstrapMissing = errors.New("bootstrap files missing from instance static directory")

var bundles = []assets.Bundle{
	{Name: "css_main", Output: "gen/main.css", Files: []string{"css/kerkoapp.css", "css/theme.css"}},
	{Name: "js_main", Output: "gen/main.js", Files: []string{"js/kerkoapp.js"}},
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	config     *config.Config
	composer   *composer.Composer
	logger     *zap.Logger
	renderer   *templates.Renderer
	translator *i18n.Translator
	assets     *assets.Environment
	sessions   *session.Store
	library    *library.Blueprint
	errs       *api.ErrorHandler
	registry   *prometheus.Registry
	router     *chi.Mux
	handler    http.Handler
	server     *http.Server
}

// Create runs the configuration pipeline against environ, builds the logger
// the configuration asks for and initializes the application.
func Create(environ []string) (*App, error) {
	bootstrap, err := logging.New("info", false)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(environ, bootstrap)
	_ = bootstrap.Sync()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Settings.LogLevel, cfg.Settings.Debug)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("application: nil configuration")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := cfg.Settings

	comp := composer.New(settings.Kerko)
	composer.Update(comp)

	translator, err := i18n.New(settings.DefaultLocale, settings.KerkoApp.Locales)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize locales: %w", err)
	}

	static := templates.OverlayDir(filepath.Join(cfg.InstancePath, "static"), web.Static())
	assetEnv, err := assets.New(static, staticPrefix, bundles...)
	if err != nil {
		return nil, fmt.Errorf("failed to build asset bundles: %w", err)
	}
	if settings.BootstrapServeLocal {
		for _, file := range []string{bootstrapLocalCSS, bootstrapLocalJS} {
			if _, err := fs.Stat(static, file); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBootstrapMissing, file, err)
			}
		}
	}

	sessions, err := session.NewStore(session.Options{
		CookieName: settings.SessionCookieName,
		Secret:     settings.SecretKey,
		Secure:     settings.SessionCookieSecure,
		Lifetime:   settings.SessionLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	renderer := templates.NewRenderer(templates.Options{
		FS:          web.Templates(),
		OverrideDir: filepath.Join(cfg.InstancePath, "templates"),
		AutoReload:  settings.TemplatesAutoReload,
		Logger:      logger,
	})
	errs := api.NewErrorHandler(renderer, logger)

	lib, err := library.New(settings.KerkoApp.Library.UpstreamURL, settings.KerkoApp.Library.Prefix, comp, logger,
		func(w http.ResponseWriter, r *http.Request, err error) {
			errs.Render(w, r, api.NewHTTPError(http.StatusServiceUnavailable, err))
		})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize library blueprint: %w", err)
	}

	app := &App{
		config:     cfg,
		composer:   comp,
		logger:     logger,
		renderer:   renderer,
		translator: translator,
		assets:     assetEnv,
		sessions:   sessions,
		library:    lib,
		errs:       errs,
		registry:   prometheus.NewRegistry(),
	}
	app.registerTemplateHelpers()

	if err := app.buildRouter(); err != nil {
		return nil, err
	}

	app.handler = app.router
	if pf := settings.KerkoApp.ProxyFix; pf != nil && pf.Enabled {
		app.handler = api.ProxyFix(api.ProxyFixOptions{
			For:    pf.XFor,
			Proto:  pf.XProto,
			Host:   pf.XHost,
			Port:   pf.XPort,
			Prefix: pf.XPrefix,
		}, app.router)
	}
	app.server = NewServer(settings.KerkoApp.Server, app.handler)

	logger.Debug("application initialized",
		zap.String("instance_path", cfg.InstancePath),
		zap.Strings("locales", translator.Locales()),
		zap.String("library_prefix", lib.Prefix()),
	)
	return app, nil
}

func (a *App) registerTemplateHelpers() {
	settings := a.config.Settings

	a.renderer.AddFunc("gettext", a.translator.Gettext)
	a.renderer.AddFunc("asset_url", a.assets.URL)
	a.renderer.AddFunc("url_for", a.urlFor)

	cssURL := bootstrapCDN + "/css/bootstrap.min.css"
	jsURL := bootstrapCDN + "/js/bootstrap.bundle.min.js"
	if settings.BootstrapServeLocal {
		cssURL = a.assets.StaticURL(bootstrapLocalCSS)
		jsURL = a.assets.StaticURL(bootstrapLocalJS)
	}
	a.renderer.AddGlobal("bootstrap_css_url", cssURL)
	a.renderer.AddGlobal("bootstrap_js_url", jsURL)
	a.renderer.AddGlobal("title", a.composer.Title)
	a.renderer.AddGlobal("locales", a.translator.Locales())

	a.renderer.AddContextProcessor(func(r *http.Request) map[string]any {
		locale := i18n.FromContext(r.Context())
		if locale == "" {
			locale = a.translator.Default()
		}
		return map[string]any{
			"theme":       session.FromContext(r.Context()).Theme(),
			"locale":      locale,
			"script_root": api.ScriptRoot(r.Context()),
		}
	})
}

// urlFor resolves an endpoint name to a path relative to the script root.
func (a *App) urlFor(endpoint string, args ...string) (string, error) {
	switch endpoint {
	case "index":
		return "/", nil
	case "toggle_theme":
		return "/toggle-theme", nil
	case "static":
		if len(args) != 1 {
			return "", errors.New("url_for static: expected a filename")
		}
		return a.assets.StaticURL(args[0]), nil
	}
	if strings.HasPrefix(endpoint, library.Name+".") {
		return a.library.URLFor(endpoint)
	}
	return "", fmt.Errorf("url_for: unknown endpoint %q", endpoint)
}

func (a *App) buildRouter() error {
	settings := a.config.Settings.KerkoApp

	opts := []api.RouterOption{
		api.WithLogging(settings.Server.RequestLogging),
		api.WithRateLimit(settings.RateLimit.RPS, settings.RateLimit.Burst),
	}
	if settings.Metrics.Enabled {
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := api.NewMetrics(a.registry)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, api.WithMetrics(metrics))
	}

	handlerOpts := []api.HandlerOption{api.WithLogger(a.logger)}
	if settings.Analytics.Enabled {
		client, err := analytics.Instrument(
			analytics.NewHTTPClient(settings.Analytics.Host, settings.Analytics.APIKey, settings.Analytics.Timeout),
			a.registry,
		)
		if err != nil {
			return fmt.Errorf("failed to register analytics metrics: %w", err)
		}
		handlerOpts = append(handlerOpts, api.WithAnalytics(client))
	}

	searchURL, err := a.library.URLFor(library.EndpointSearch)
	if err != nil {
		return err
	}

	router := api.NewRouter(a.logger, a.errs, opts...)
	router.Use(a.translator.Middleware, a.sessions.Middleware)

	api.NewHandler(a.sessions, a.errs, searchURL, handlerOpts...).Register(router)
	router.Mount(a.library.Prefix(), a.library.Routes())
	router.Handle(staticPrefix+"/*", http.StripPrefix(staticPrefix, a.assets.Handler()))
	if settings.Metrics.Enabled {
		router.Handle(settings.Metrics.Path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}

	a.router = router
	return nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.ServerSettings, handler http.Handler) *http.Server {
	addr := cfg.Address
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Router returns the route table without the proxy adapter.
func (a *App) Router() chi.Router {
	return a.router
}

// Handler returns the root handler, wrapped by the proxy adapter when enabled.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Settings returns the validated configuration.
func (a *App) Settings() config.Settings {
	return a.config.Settings
}

// Mapping returns the merged configuration mapping.
func (a *App) Mapping() config.Mapping {
	return a.config.Mapping
}

// Composer returns the library settings derived from the configuration.
func (a *App) Composer() *composer.Composer {
	return a.composer
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}
